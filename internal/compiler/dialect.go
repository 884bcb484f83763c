package compiler

import "fmt"

// Dialect renders the backend-specific parts of a predicate.
type Dialect interface {
	// Name identifies the dialect in logs and :env output.
	Name() string
	// Contains renders "sequence has an element equal to value". value is
	// an already-compiled SQL fragment.
	Contains(sequence Resolved, value string) string
}

// SQLite stores sequence columns as JSON arrays and tests membership with
// json_each.
var SQLite Dialect = sqliteDialect{}

// DuckDB stores sequence columns as native lists and tests membership with
// ANY.
var DuckDB Dialect = duckDialect{}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) Contains(sequence Resolved, value string) string {
	source := fmt.Sprintf("json_each(%s)", sequence.Expr)
	if sequence.IsProperty() {
		// The two-argument form also accepts a scalar property value.
		source = fmt.Sprintf("json_each(properties, %s)", PropertyPath(sequence.Key))
	}
	return fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE json_each.value = %s)", source, value)
}

type duckDialect struct{}

func (duckDialect) Name() string { return "duckdb" }

func (duckDialect) Contains(sequence Resolved, value string) string {
	return fmt.Sprintf("%s = ANY(%s)", value, sequence.Expr)
}

// DialectByName returns the dialect with the given name, or nil.
func DialectByName(name string) Dialect {
	switch name {
	case "sqlite", "":
		return SQLite
	case "duckdb":
		return DuckDB
	default:
		return nil
	}
}
