package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireBinary(t *testing.T, n Node, op string) *Binary {
	t.Helper()
	b, ok := n.(*Binary)
	require.True(t, ok, "expected *Binary, got %T", n)
	require.Equal(t, op, b.Op)
	return b
}

func TestParser_SimpleField(t *testing.T) {
	n := ParseString("file.name")
	f, ok := n.(*FieldRef)
	require.True(t, ok)
	assert.Equal(t, "file.name", f.Name)
}

func TestParser_Equality(t *testing.T) {
	b := requireBinary(t, ParseString("file.name == 'readme'"), OpEQ)
	assert.Equal(t, &FieldRef{Name: "file.name"}, b.Left)
	assert.Equal(t, &StringLiteral{Value: "readme"}, b.Right)
}

func TestParser_NumericComparison(t *testing.T) {
	b := requireBinary(t, ParseString("file.size > 1000"), OpGT)
	assert.Equal(t, &FieldRef{Name: "file.size"}, b.Left)
	assert.Equal(t, &NumberLiteral{Text: "1000"}, b.Right)
}

func TestParser_AllOperators(t *testing.T) {
	for _, op := range []string{"==", "!=", ">", "<", ">=", "<=", "=~"} {
		n := ParseString("file.size " + op + " 100")
		b, ok := n.(*Binary)
		require.True(t, ok, "operator %s", op)
		assert.Equal(t, op, b.Op)
	}
}

func TestParser_And(t *testing.T) {
	b := requireBinary(t, ParseString("a == 1 and b == 2"), OpAnd)
	requireBinary(t, b.Left, OpEQ)
	requireBinary(t, b.Right, OpEQ)
}

func TestParser_Or(t *testing.T) {
	b := requireBinary(t, ParseString("a == 1 or b == 2"), OpOr)
	requireBinary(t, b.Left, OpEQ)
	requireBinary(t, b.Right, OpEQ)
}

func TestParser_AndBindsTighterThanOr(t *testing.T) {
	b := requireBinary(t, ParseString("a==1 and b==2 or c==3"), OpOr)
	requireBinary(t, b.Left, OpAnd)
	requireBinary(t, b.Right, OpEQ)

	b = requireBinary(t, ParseString("a==1 or b==2 and c==3"), OpOr)
	requireBinary(t, b.Left, OpEQ)
	requireBinary(t, b.Right, OpAnd)
}

func TestParser_LeftAssociative(t *testing.T) {
	top := requireBinary(t, ParseString("a==1 and b==2 and c==3"), OpAnd)
	inner := requireBinary(t, top.Left, OpAnd)
	assert.Equal(t, "a", requireBinary(t, inner.Left, OpEQ).Left.(*FieldRef).Name)
	assert.Equal(t, "b", requireBinary(t, inner.Right, OpEQ).Left.(*FieldRef).Name)
	assert.Equal(t, "c", requireBinary(t, top.Right, OpEQ).Left.(*FieldRef).Name)

	top = requireBinary(t, ParseString("a or b or c"), OpOr)
	requireBinary(t, top.Left, OpOr)
	assert.Equal(t, &FieldRef{Name: "c"}, top.Right)
}

func TestParser_Grouping(t *testing.T) {
	g, ok := ParseString("(a == 1)").(*Group)
	require.True(t, ok)
	requireBinary(t, g.Inner, OpEQ)
}

func TestParser_GroupOverridesPrecedence(t *testing.T) {
	b := requireBinary(t, ParseString("(a == 1 or b == 2) and c == 3"), OpAnd)
	g, ok := b.Left.(*Group)
	require.True(t, ok)
	requireBinary(t, g.Inner, OpOr)
	requireBinary(t, b.Right, OpEQ)
}

func TestParser_FunctionCall(t *testing.T) {
	c, ok := ParseString("has(note.tags, 'important')").(*Call)
	require.True(t, ok)
	assert.Equal(t, "has", c.Name)
	require.Len(t, c.Args, 2)
	assert.Equal(t, &FieldRef{Name: "note.tags"}, c.Args[0])
	assert.Equal(t, &StringLiteral{Value: "important"}, c.Args[1])
}

func TestParser_FunctionCallsJoined(t *testing.T) {
	b := requireBinary(t, ParseString("has(note.tags, 'a') and has(note.links, 'b')"), OpAnd)
	assert.IsType(t, &Call{}, b.Left)
	assert.IsType(t, &Call{}, b.Right)
}

func TestParser_FunctionWithoutParens(t *testing.T) {
	c, ok := ParseString("has").(*Call)
	require.True(t, ok)
	assert.Empty(t, c.Args)
}

func TestParser_FunctionArgumentsArePrimaries(t *testing.T) {
	// a comparison is not an argument: '==' is skipped inside the list
	c, ok := ParseString("has(a == 'x')").(*Call)
	require.True(t, ok)
	require.Len(t, c.Args, 2)
	assert.Equal(t, &FieldRef{Name: "a"}, c.Args[0])
	assert.Equal(t, &StringLiteral{Value: "x"}, c.Args[1])
}

func TestParser_PatternMatch(t *testing.T) {
	b := requireBinary(t, ParseString("file.name =~ '%test%'"), OpMatch)
	assert.Equal(t, &StringLiteral{Value: "%test%"}, b.Right)
}

func TestParser_ComparisonDoesNotChain(t *testing.T) {
	b := requireBinary(t, ParseString("a > b > c"), OpGT)
	assert.Equal(t, &FieldRef{Name: "a"}, b.Left)
	assert.Equal(t, &FieldRef{Name: "b"}, b.Right)
}

func TestParser_TrailingTokensIgnored(t *testing.T) {
	b := requireBinary(t, ParseString("a == 1 b == 2"), OpEQ)
	assert.Equal(t, &NumberLiteral{Text: "1"}, b.Right)
}

func TestParser_EmptyFallback(t *testing.T) {
	for _, in := range []string{"", "   ", ")", ",", "@"} {
		n := ParseString(in)
		assert.True(t, IsEmpty(n), "input %q gave %#v", in, n)
	}
}

func TestParser_BareOperatorComparesEmptyLeaves(t *testing.T) {
	b := requireBinary(t, ParseString("=="), OpEQ)
	assert.True(t, IsEmpty(b.Left))
	assert.True(t, IsEmpty(b.Right))
}

func TestParser_MissingArgumentKeepsEmptyLeaf(t *testing.T) {
	c, ok := ParseString("has(note.tags,, 'x')").(*Call)
	require.True(t, ok)
	require.Len(t, c.Args, 3)
	assert.Equal(t, &FieldRef{Name: "note.tags"}, c.Args[0])
	assert.True(t, IsEmpty(c.Args[1]))
	assert.Equal(t, &StringLiteral{Value: "x"}, c.Args[2])

	c, ok = ParseString("has(, 'x')").(*Call)
	require.True(t, ok)
	require.Len(t, c.Args, 2)
	assert.True(t, IsEmpty(c.Args[0]))
	assert.Equal(t, &StringLiteral{Value: "x"}, c.Args[1])

	c, ok = ParseString("has(,,,)").(*Call)
	require.True(t, ok)
	assert.Len(t, c.Args, 3)
}

func TestParser_MissingOperand(t *testing.T) {
	b := requireBinary(t, ParseString("a =="), OpEQ)
	assert.True(t, IsEmpty(b.Right))

	b = requireBinary(t, ParseString("a and"), OpAnd)
	assert.True(t, IsEmpty(b.Right))
}

func TestParser_StrayEqualsIsNotComparison(t *testing.T) {
	f, ok := ParseString("a = 1").(*FieldRef)
	require.True(t, ok)
	assert.Equal(t, "a", f.Name)
}

func TestParser_UnbalancedInputTerminates(t *testing.T) {
	inputs := []string{"(", "((a", "has(", "has(a,", "has(a, >", "(a == 1", "has(,,,)", "a == (b"}
	for _, in := range inputs {
		assert.NotPanics(t, func() { ParseString(in) }, "input %q", in)
	}

	g, ok := ParseString("(a == 1").(*Group)
	require.True(t, ok)
	requireBinary(t, g.Inner, OpEQ)

	c, ok := ParseString("has(a, >").(*Call)
	require.True(t, ok)
	assert.Equal(t, []Node{&FieldRef{Name: "a"}}, c.Args)
}

func TestParser_ASTString(t *testing.T) {
	n := ParseString(`(file.size >= 10 or has(note.tags, "it's")) and x =~ '%a%'`)
	assert.Equal(t, `(file.size >= 10 or has(note.tags, "it's")) and x =~ '%a%'`, n.String())
}
