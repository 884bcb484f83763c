// Package activity keeps a bounded in-memory feed of index events and
// answers filtered, paginated queries over it.
package activity

import "time"

// QueryOptions controls filtering and pagination for feed queries.
type QueryOptions struct {
	Since  *time.Time // only events at or after
	Until  *time.Time // only events at or before
	Types  []string   // filter to specific event types
	Path   string     // filter to events whose path starts with Path
	Search string     // case-insensitive substring of the summary
	Limit  int        // max results (default: 50, max: 500)
	Cursor string     // next_cursor from a previous page
}

// DefaultQueryOptions returns QueryOptions with sensible defaults.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{Limit: 50}
}

func (o QueryOptions) limit() int {
	if o.Limit <= 0 || o.Limit > 500 {
		return 50
	}
	return o.Limit
}
