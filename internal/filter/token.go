// Package filter implements the lexer, parser, and AST for the mdb filter
// language, e.g. `file.size > 1000 and has(note.tags, 'todo')`.
//
// Both stages are total: malformed input never produces an error. Unknown
// characters are skipped by the lexer and the parser degrades to a partial
// tree or an empty string literal.
package filter

// TokenType identifies the kind of lexical token.
type TokenType int

const (
	TokenEOF      TokenType = iota
	TokenField              // file.name, note.tags, category
	TokenOperator           // == != > < >= <= =~ (and stray = or !)
	TokenString             // 'quoted' or "quoted", quotes stripped
	TokenNumber             // 123, 4.5, 1.2.3 (kept verbatim)
	TokenLParen             // (
	TokenRParen             // )
	TokenComma              // ,
	TokenFunction           // has
	TokenAnd                // and
	TokenOr                 // or
)

// String returns a human-readable name for the token type.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenField:
		return "field"
	case TokenOperator:
		return "operator"
	case TokenString:
		return "string"
	case TokenNumber:
		return "number"
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	case TokenComma:
		return ","
	case TokenFunction:
		return "function"
	case TokenAnd:
		return "and"
	case TokenOr:
		return "or"
	default:
		return "unknown"
	}
}

// Token is a single lexical token.
type Token struct {
	Type    TokenType
	Literal string // field name, operator symbol, literal text; "" for punctuation
	Pos     int    // byte offset in source
}

// keywords maps reserved identifiers to their token types. Lookup is
// case-sensitive: "AND" is a field name.
var keywords = map[string]TokenType{
	"has": TokenFunction,
	"and": TokenAnd,
	"or":  TokenOr,
}

// LookupIdent classifies an identifier run.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokenField
}

// Comparison operators accepted by the parser, in surface spelling.
const (
	OpEQ    = "=="
	OpNEQ   = "!="
	OpGT    = ">"
	OpLT    = "<"
	OpGTE   = ">="
	OpLTE   = "<="
	OpMatch = "=~"
)

// Logical operators as stored on Binary nodes.
const (
	OpAnd = "AND"
	OpOr  = "OR"
)

// IsComparison reports whether op is one of the comparison operators.
func IsComparison(op string) bool {
	switch op {
	case OpEQ, OpNEQ, OpGT, OpLT, OpGTE, OpLTE, OpMatch:
		return true
	}
	return false
}

// Functions lists the function names the lexer recognizes.
func Functions() []string {
	return []string{"has"}
}
