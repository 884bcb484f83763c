package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tok struct {
	typ TokenType
	lit string
}

func assertTokens(t *testing.T, input string, expected []tok) {
	t.Helper()
	tokens := Tokenize(input)
	require.Len(t, tokens, len(expected), "tokens for %q", input)
	for i, exp := range expected {
		assert.Equal(t, exp.typ, tokens[i].Type, "token %d type", i)
		assert.Equal(t, exp.lit, tokens[i].Literal, "token %d literal", i)
	}
}

func TestLexer_SimpleField(t *testing.T) {
	assertTokens(t, "file.name", []tok{
		{TokenField, "file.name"},
		{TokenEOF, ""},
	})
}

func TestLexer_Equality(t *testing.T) {
	assertTokens(t, "file.name == 'readme'", []tok{
		{TokenField, "file.name"},
		{TokenOperator, "=="},
		{TokenString, "readme"},
		{TokenEOF, ""},
	})
}

func TestLexer_ComparisonOperators(t *testing.T) {
	for _, op := range []string{"==", "!=", ">", "<", ">=", "<=", "=~"} {
		tokens := Tokenize("file.size " + op + " 100")
		require.Len(t, tokens, 4, "operator %s", op)
		assert.Equal(t, TokenOperator, tokens[1].Type, "operator %s", op)
		assert.Equal(t, op, tokens[1].Literal)
		assert.Equal(t, "100", tokens[2].Literal)
	}
}

func TestLexer_StrayOperators(t *testing.T) {
	assertTokens(t, "a = b ! c", []tok{
		{TokenField, "a"},
		{TokenOperator, "="},
		{TokenField, "b"},
		{TokenOperator, "!"},
		{TokenField, "c"},
		{TokenEOF, ""},
	})
}

func TestLexer_OperatorWithoutSpaces(t *testing.T) {
	assertTokens(t, "size>=10", []tok{
		{TokenField, "size"},
		{TokenOperator, ">="},
		{TokenNumber, "10"},
		{TokenEOF, ""},
	})
}

func TestLexer_StringLiterals(t *testing.T) {
	assertTokens(t, `'hello world' "double quotes"`, []tok{
		{TokenString, "hello world"},
		{TokenString, "double quotes"},
		{TokenEOF, ""},
	})
}

func TestLexer_MixedQuotesInsideLiteral(t *testing.T) {
	assertTokens(t, `"it's" 'say "hi"'`, []tok{
		{TokenString, "it's"},
		{TokenString, `say "hi"`},
		{TokenEOF, ""},
	})
}

func TestLexer_ApostropheSplitsLiteral(t *testing.T) {
	// No escapes: the apostrophe closes the literal.
	assertTokens(t, `'it's'`, []tok{
		{TokenString, "it"},
		{TokenField, "s"},
		{TokenString, ""},
		{TokenEOF, ""},
	})
}

func TestLexer_UnterminatedString(t *testing.T) {
	assertTokens(t, `name == 'open`, []tok{
		{TokenField, "name"},
		{TokenOperator, "=="},
		{TokenString, "open"},
		{TokenEOF, ""},
	})
}

func TestLexer_NumberLiterals(t *testing.T) {
	assertTokens(t, "123 45.67 1.2.3", []tok{
		{TokenNumber, "123"},
		{TokenNumber, "45.67"},
		{TokenNumber, "1.2.3"},
		{TokenEOF, ""},
	})
}

func TestLexer_LogicalKeywords(t *testing.T) {
	assertTokens(t, "a and b or c", []tok{
		{TokenField, "a"},
		{TokenAnd, "and"},
		{TokenField, "b"},
		{TokenOr, "or"},
		{TokenField, "c"},
		{TokenEOF, ""},
	})
}

func TestLexer_KeywordsAreCaseSensitive(t *testing.T) {
	tokens := Tokenize("AND Or HAS")
	require.Len(t, tokens, 4)
	for _, tk := range tokens[:3] {
		assert.Equal(t, TokenField, tk.Type, tk.Literal)
	}
}

func TestLexer_Function(t *testing.T) {
	assertTokens(t, "has(note.tags, 'important')", []tok{
		{TokenFunction, "has"},
		{TokenLParen, ""},
		{TokenField, "note.tags"},
		{TokenComma, ""},
		{TokenString, "important"},
		{TokenRParen, ""},
		{TokenEOF, ""},
	})
}

func TestLexer_Parentheses(t *testing.T) {
	tokens := Tokenize("(a == 1)")
	require.Len(t, tokens, 6)
	assert.Equal(t, TokenLParen, tokens[0].Type)
	assert.Equal(t, TokenRParen, tokens[4].Type)
}

func TestLexer_ComplexQuery(t *testing.T) {
	tokens := Tokenize("file.name == 'readme' and file.size > 1000 or has(note.tags, 'todo')")
	require.Greater(t, len(tokens), 10)
	assert.Equal(t, "file.name", tokens[0].Literal)
	assert.Equal(t, "readme", tokens[2].Literal)
	assert.Equal(t, TokenAnd, tokens[3].Type)
	assert.Equal(t, "file.size", tokens[4].Literal)
	assert.Equal(t, TokenNumber, tokens[6].Type)
	assert.Equal(t, TokenOr, tokens[7].Type)
	assert.Equal(t, TokenFunction, tokens[8].Type)
}

func TestLexer_UnknownCharactersSkipped(t *testing.T) {
	assertTokens(t, "a @ # $ == ; 1", []tok{
		{TokenField, "a"},
		{TokenOperator, "=="},
		{TokenNumber, "1"},
		{TokenEOF, ""},
	})
}

func TestLexer_Positions(t *testing.T) {
	tokens := Tokenize("  size > 10")
	require.Len(t, tokens, 4)
	assert.Equal(t, 2, tokens[0].Pos)
	assert.Equal(t, 7, tokens[1].Pos)
	assert.Equal(t, 9, tokens[2].Pos)
	assert.Equal(t, 11, tokens[3].Pos)
}

func TestLexer_UnicodeIdentifier(t *testing.T) {
	assertTokens(t, "catégorie == 'été'", []tok{
		{TokenField, "catégorie"},
		{TokenOperator, "=="},
		{TokenString, "été"},
		{TokenEOF, ""},
	})
}

func TestLexer_AlwaysEndsWithSingleEOF(t *testing.T) {
	inputs := []string{"", "   ", "'", `"`, "(((", "== != =~", "has(", "1..", "@@@", "a and", "\t\n"}
	for _, in := range inputs {
		tokens := Tokenize(in)
		require.NotEmpty(t, tokens, "input %q", in)
		assert.Equal(t, TokenEOF, tokens[len(tokens)-1].Type, "input %q", in)
		eofs := 0
		for _, tk := range tokens {
			if tk.Type == TokenEOF {
				eofs++
			}
		}
		assert.Equal(t, 1, eofs, "input %q", in)
	}
}

func TestLexer_EmptyInput(t *testing.T) {
	assertTokens(t, "", []tok{{TokenEOF, ""}})
}

func TestLexer_Whitespace(t *testing.T) {
	assertTokens(t, "  file.name   ==    'test'  ", []tok{
		{TokenField, "file.name"},
		{TokenOperator, "=="},
		{TokenString, "test"},
		{TokenEOF, ""},
	})
}
