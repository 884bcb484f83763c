package activity

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/matthewbaird/mdb/internal/event"
)

// DefaultSize is the number of events a Feed keeps when none is given.
const DefaultSize = 1000

// Feed keeps the most recent index events. It is an event bus handler.
type Feed struct {
	mu      sync.RWMutex
	size    int
	entries []event.IndexEvent
}

// NewFeed creates a Feed holding at most size events.
func NewFeed(size int) *Feed {
	if size < 1 {
		size = DefaultSize
	}
	return &Feed{size: size}
}

func (f *Feed) HandleEvent(_ context.Context, evt event.IndexEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, evt)
	if over := len(f.entries) - f.size; over > 0 {
		f.entries = append(f.entries[:0:0], f.entries[over:]...)
	}
	return nil
}

// Len returns the number of events held.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}

// Query returns matching events newest first, the cursor for the next
// page ("" on the last page) and the number of matches before paging.
func (f *Feed) Query(opts QueryOptions) ([]event.IndexEvent, string, int) {
	f.mu.RLock()
	var matched []event.IndexEvent
	for i := len(f.entries) - 1; i >= 0; i-- {
		if opts.matches(f.entries[i]) {
			matched = append(matched, f.entries[i])
		}
	}
	f.mu.RUnlock()

	// Sort by occurred_at DESC; arrival order breaks ties.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].OccurredAt.After(matched[j].OccurredAt)
	})

	total := len(matched)
	if opts.Cursor != "" {
		if cursorTime, err := time.Parse(time.RFC3339Nano, opts.Cursor); err == nil {
			start := sort.Search(len(matched), func(i int) bool {
				return matched[i].OccurredAt.Before(cursorTime)
			})
			matched = matched[start:]
		}
	}

	var next string
	if limit := opts.limit(); len(matched) > limit {
		matched = matched[:limit]
		next = matched[len(matched)-1].OccurredAt.Format(time.RFC3339Nano)
	}
	return matched, next, total
}

func (o QueryOptions) matches(e event.IndexEvent) bool {
	if o.Since != nil && e.OccurredAt.Before(*o.Since) {
		return false
	}
	if o.Until != nil && e.OccurredAt.After(*o.Until) {
		return false
	}
	if len(o.Types) > 0 && !slices.Contains(o.Types, e.EventType) {
		return false
	}
	if o.Path != "" && !strings.HasPrefix(e.Path, o.Path) {
		return false
	}
	if o.Search != "" && !strings.Contains(strings.ToLower(e.Summary), strings.ToLower(o.Search)) {
		return false
	}
	return true
}
