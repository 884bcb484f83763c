package compiler

import (
	"fmt"
	"strings"

	"github.com/matthewbaird/mdb/internal/filter"
	"github.com/matthewbaird/mdb/internal/schema"
)

// AllFields selects every column of the documents table.
const AllFields = "*"

// Query is a compiled filter plus its projection.
type Query struct {
	SQL     string   // full SELECT statement, without LIMIT
	Where   string   // compiled predicate
	Columns []string // SELECT expressions in order
	Labels  []string // display name of each column
}

// BuildQuery compiles filterText and fields with the SQLite dialect and
// returns the SELECT statement. The caller appends any LIMIT.
func BuildQuery(filterText, fields string) string {
	return defaultCompiler.Build(filterText, fields).SQL
}

// Build parses and compiles filterText. fields is "*" or a comma-separated
// list of field references, each resolved like a filter field.
func (c *Compiler) Build(filterText, fields string) *Query {
	where := c.Compile(filter.ParseString(filterText))

	q := &Query{Where: where}
	if fields == AllFields {
		q.Columns = schema.Documents().Columns()
		q.Labels = schema.Documents().Columns()
	} else {
		for _, part := range strings.Split(fields, ",") {
			name := strings.TrimSpace(part)
			q.Columns = append(q.Columns, Resolve(name))
			q.Labels = append(q.Labels, name)
		}
	}

	q.SQL = fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(q.Columns, ", "), schema.Table, where)
	return q
}
