package filter

import (
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes filter source text.
type Lexer struct {
	input  string
	pos    int // current byte position
	tokens []Token
}

// NewLexer creates a lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize is shorthand for NewLexer(input).Tokenize().
func Tokenize(input string) []Token {
	return NewLexer(input).Tokenize()
}

// Tokenize scans the entire input. It never fails: characters that do not
// start a token are dropped. The result always ends with exactly one
// TokenEOF.
func (l *Lexer) Tokenize() []Token {
	for {
		l.skipWhitespace()
		if l.pos >= len(l.input) {
			break
		}
		if tok, ok := l.next(); ok {
			l.tokens = append(l.tokens, tok)
		}
	}
	l.tokens = append(l.tokens, Token{Type: TokenEOF, Pos: len(l.input)})
	return l.tokens
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

func (l *Lexer) advance() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// next scans one token. ok is false when the character was skipped.
func (l *Lexer) next() (Token, bool) {
	start := l.pos
	r := l.peek()

	switch {
	case r >= '0' && r <= '9':
		return l.scanNumber(start), true
	case r == '\'' || r == '"':
		return l.scanString(start), true
	case isIdentStart(r):
		return l.scanIdent(start), true
	case r == '=' || r == '!' || r == '>' || r == '<':
		return l.scanOperator(start), true
	}

	l.advance()
	switch r {
	case '(':
		return Token{Type: TokenLParen, Pos: start}, true
	case ')':
		return Token{Type: TokenRParen, Pos: start}, true
	case ',':
		return Token{Type: TokenComma, Pos: start}, true
	}
	return Token{}, false
}

// scanNumber reads a run of ASCII digits and dots. The text is not
// validated, so "1.2.3" is a single number token.
func (l *Lexer) scanNumber(start int) Token {
	for l.pos < len(l.input) {
		r := l.peek()
		if (r >= '0' && r <= '9') || r == '.' {
			l.advance()
			continue
		}
		break
	}
	return Token{Type: TokenNumber, Literal: l.input[start:l.pos], Pos: start}
}

// scanString reads a literal closed by the same quote character that opened
// it. There are no escape sequences; an unterminated literal runs to the end
// of input.
func (l *Lexer) scanString(start int) Token {
	quote := l.advance()
	body := l.pos
	for l.pos < len(l.input) && l.peek() != quote {
		l.advance()
	}
	lit := l.input[body:l.pos]
	l.advance() // closing quote, if any
	return Token{Type: TokenString, Literal: lit, Pos: start}
}

// scanIdent reads an identifier. Dots are part of the run so dotted names
// such as note.tags stay a single token.
func (l *Lexer) scanIdent(start int) Token {
	for l.pos < len(l.input) && isIdentPart(l.peek()) {
		l.advance()
	}
	lit := l.input[start:l.pos]
	return Token{Type: LookupIdent(lit), Literal: lit, Pos: start}
}

func (l *Lexer) scanOperator(start int) Token {
	first := l.advance()
	second := l.peek()
	if second == '=' || (first == '=' && second == '~') {
		l.advance()
	}
	return Token{Type: TokenOperator, Literal: l.input[start:l.pos], Pos: start}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
