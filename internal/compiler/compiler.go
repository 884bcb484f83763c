package compiler

import (
	"strings"

	"github.com/matthewbaird/mdb/internal/filter"
)

// AlwaysTrue is emitted for calls the compiler does not understand.
const AlwaysTrue = "1=1"

// Compiler renders filter ASTs as SQL predicates for one dialect.
type Compiler struct {
	dialect Dialect
}

// New creates a compiler for the given dialect. A nil dialect means SQLite.
func New(d Dialect) *Compiler {
	if d == nil {
		d = SQLite
	}
	return &Compiler{dialect: d}
}

// Dialect returns the compiler's dialect.
func (c *Compiler) Dialect() Dialect {
	return c.dialect
}

var defaultCompiler = New(SQLite)

// Compile renders n with the SQLite dialect.
func Compile(n filter.Node) string {
	return defaultCompiler.Compile(n)
}

// Compile renders n as SQL. It never fails: unknown functions and wrong
// arities become AlwaysTrue.
func (c *Compiler) Compile(n filter.Node) string {
	switch n := n.(type) {
	case *filter.Binary:
		left := c.Compile(n.Left)
		right := c.Compile(n.Right)
		if n.Op == filter.OpMatch {
			return left + " LIKE " + right
		}
		return left + " " + sqlOp(n.Op) + " " + right
	case *filter.FieldRef:
		return Resolve(n.Name)
	case *filter.StringLiteral:
		return Quote(n.Value)
	case *filter.NumberLiteral:
		return n.Text
	case *filter.Call:
		return c.compileCall(n)
	case *filter.Group:
		return "(" + c.Compile(n.Inner) + ")"
	default:
		return AlwaysTrue
	}
}

// compileCall handles has(field, value): true when value is an element of
// the sequence field. Membership is exact, never a pattern match.
func (c *Compiler) compileCall(call *filter.Call) string {
	if call.Name != "has" || len(call.Args) != 2 {
		return AlwaysTrue
	}

	var seq Resolved
	if ref, ok := call.Args[0].(*filter.FieldRef); ok {
		seq = ResolveField(ref.Name)
	} else {
		seq = Resolved{Expr: c.Compile(call.Args[0])}
	}
	return c.dialect.Contains(seq, c.Compile(call.Args[1]))
}

// Quote renders s as a single-quoted SQL string, doubling embedded quotes.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// sqlOp maps a filter operator to its SQL spelling.
func sqlOp(op string) string {
	switch op {
	case filter.OpAnd:
		return "AND"
	case filter.OpOr:
		return "OR"
	case filter.OpEQ:
		return "="
	case filter.OpNEQ:
		return "!="
	case filter.OpGT:
		return ">"
	case filter.OpLT:
		return "<"
	case filter.OpGTE:
		return ">="
	case filter.OpLTE:
		return "<="
	case filter.OpMatch:
		return "LIKE"
	default:
		return "="
	}
}
