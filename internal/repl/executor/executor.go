// Package executor compiles filter requests and runs them against the
// document store.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/matthewbaird/mdb/internal/compiler"
	"github.com/matthewbaird/mdb/internal/render"
	"github.com/matthewbaird/mdb/internal/schema"
)

// Defaults used when a request leaves a setting empty.
const (
	DefaultFields = "file.path, file.mtime"
	DefaultLimit  = 1000
)

// ErrEmptyFilter is returned for a request without a filter expression.
var ErrEmptyFilter = errors.New("executor: empty filter")

// Querier runs a compiled SELECT and returns its rows as text.
type Querier interface {
	Query(ctx context.Context, sql string, limit int) ([][]string, error)
}

// Request is one filter query.
type Request struct {
	Filter string `json:"filter"`
	Fields string `json:"fields,omitempty"` // "*" or comma-separated; DefaultFields when empty
	Limit  int    `json:"limit,omitempty"`  // 0 means no limit
}

// Result holds the output of a query execution.
type Result struct {
	SQL     string     `json:"sql"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Meta    ResultMeta `json:"meta"`
}

// ResultMeta provides metadata about the result.
type ResultMeta struct {
	Total   int           `json:"total"`
	Limit   int           `json:"limit"`
	Elapsed time.Duration `json:"elapsed"`
}

// Objects returns the rows as JSON objects keyed by column label.
func (r *Result) Objects() []render.Object {
	return render.Objects(r.Rows, r.Columns)
}

// Render formats the rows in the given mode.
func (r *Result) Render(mode render.Mode) string {
	return render.Render(r.Rows, mode, r.Columns)
}

// Executor compiles requests and runs them through a Querier.
type Executor struct {
	store    Querier
	compiler *compiler.Compiler
}

// New creates an executor. A nil compiler uses the SQLite dialect.
func New(q Querier, c *compiler.Compiler) *Executor {
	if c == nil {
		c = compiler.New(nil)
	}
	return &Executor{store: q, compiler: c}
}

// Dialect names the SQL dialect filters compile to.
func (e *Executor) Dialect() string {
	return e.compiler.Dialect().Name()
}

// Plan compiles req without running it.
func (e *Executor) Plan(req Request) (*compiler.Query, error) {
	if strings.TrimSpace(req.Filter) == "" {
		return nil, ErrEmptyFilter
	}
	fields := req.Fields
	if strings.TrimSpace(fields) == "" {
		fields = DefaultFields
	}
	return e.compiler.Build(req.Filter, fields), nil
}

// Run compiles and executes req.
func (e *Executor) Run(ctx context.Context, req Request) (*Result, error) {
	q, err := e.Plan(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := e.store.Query(ctx, q.SQL, req.Limit)
	if err != nil {
		return nil, err
	}

	return &Result{
		SQL:     limited(q.SQL, req.Limit),
		Columns: q.Labels,
		Rows:    rows,
		Meta: ResultMeta{
			Total:   len(rows),
			Limit:   req.Limit,
			Elapsed: time.Since(start),
		},
	}, nil
}

// Count returns the number of documents matching filter.
func (e *Executor) Count(ctx context.Context, filter string) (int, error) {
	q, err := e.Plan(Request{Filter: filter})
	if err != nil {
		return 0, err
	}
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", schema.Table, q.Where)
	rows, err := e.store.Query(ctx, sql, 0)
	if err != nil {
		return 0, err
	}
	if len(rows) != 1 || len(rows[0]) != 1 {
		return 0, fmt.Errorf("executor: count: unexpected result shape")
	}
	n, err := strconv.Atoi(rows[0][0])
	if err != nil {
		return 0, fmt.Errorf("executor: count: %w", err)
	}
	return n, nil
}

func limited(sql string, limit int) string {
	if limit > 0 {
		return fmt.Sprintf("%s LIMIT %d", sql, limit)
	}
	return sql
}
