package filter

import "strings"

// Node is implemented by every AST node. The set of implementations is
// closed: the unexported marker keeps other packages from adding variants,
// so type switches over Node can be exhaustive.
type Node interface {
	node()
	String() string
}

// Binary is a logical (AND, OR) or comparison (==, !=, >, <, >=, <=, =~)
// expression.
type Binary struct {
	Left  Node
	Op    string
	Right Node
}

// FieldRef is a field reference exactly as written: file.name, note.tags,
// category. Resolution happens in the compiler.
type FieldRef struct {
	Name string
}

// StringLiteral is a quoted literal with the quotes stripped.
type StringLiteral struct {
	Value string
}

// NumberLiteral keeps the number as source text; it is only re-emitted.
type NumberLiteral struct {
	Text string
}

// Call is a function invocation such as has(note.tags, 'todo').
type Call struct {
	Name string
	Args []Node
}

// Group is a parenthesized sub-expression.
type Group struct {
	Inner Node
}

func (*Binary) node()        {}
func (*FieldRef) node()      {}
func (*StringLiteral) node() {}
func (*NumberLiteral) node() {}
func (*Call) node()          {}
func (*Group) node()         {}

// Empty returns the fallback leaf produced when the parser meets a token
// that cannot start a primary expression.
func Empty() *StringLiteral {
	return &StringLiteral{}
}

// IsEmpty reports whether n is the fallback leaf, i.e. "no constraint".
func IsEmpty(n Node) bool {
	lit, ok := n.(*StringLiteral)
	return ok && lit.Value == ""
}

// String renders the node back in filter syntax. Logical operators are
// written lowercase. Used by :ast in the REPL and in test failure output.
func (b *Binary) String() string {
	op := b.Op
	switch op {
	case OpAnd:
		op = "and"
	case OpOr:
		op = "or"
	}
	return b.Left.String() + " " + op + " " + b.Right.String()
}

func (f *FieldRef) String() string { return f.Name }

func (s *StringLiteral) String() string {
	if strings.Contains(s.Value, "'") {
		return `"` + s.Value + `"`
	}
	return "'" + s.Value + "'"
}

func (n *NumberLiteral) String() string { return n.Text }

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Name + "(" + strings.Join(args, ", ") + ")"
}

func (g *Group) String() string { return "(" + g.Inner.String() + ")" }
