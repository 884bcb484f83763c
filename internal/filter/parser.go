package filter

// Parser implements a recursive descent parser for the filter language.
//
// Grammar, lowest precedence first:
//
//	expr       := or_expr
//	or_expr    := and_expr ( "or" and_expr )*
//	and_expr   := comparison ( "and" comparison )*
//	comparison := primary [ compare_op primary ]
//	primary    := "(" expr ")"
//	            | function [ "(" primary ( "," primary )* ")" ]
//	            | field | string | number
//
// Comparisons do not chain: in `a > b > c` only the first operator is
// applied and the remaining tokens are left unconsumed.
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a parser from a token slice (typically from Tokenize).
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse is shorthand for NewParser(tokens).Parse().
func Parse(tokens []Token) Node {
	return NewParser(tokens).Parse()
}

// ParseString tokenizes and parses a filter expression.
func ParseString(input string) Node {
	return Parse(Tokenize(input))
}

// Parse parses one expression. It never fails; tokens after a complete
// expression are ignored.
func (p *Parser) Parse() Node {
	return p.parseOr()
}

// ── Token navigation ────────────────────────────────────────────────────────

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) atEnd() bool {
	return p.peek().Type == TokenEOF
}

func (p *Parser) check(t TokenType) bool {
	return p.peek().Type == t
}

// ── Expressions ─────────────────────────────────────────────────────────────

func (p *Parser) parseOr() Node {
	left := p.parseAnd()
	for p.check(TokenOr) {
		p.advance()
		right := p.parseAnd()
		left = &Binary{Left: left, Op: OpOr, Right: right}
	}
	return left
}

func (p *Parser) parseAnd() Node {
	left := p.parseComparison()
	for p.check(TokenAnd) {
		p.advance()
		right := p.parseComparison()
		left = &Binary{Left: left, Op: OpAnd, Right: right}
	}
	return left
}

func (p *Parser) parseComparison() Node {
	left := p.parsePrimary()

	tok := p.peek()
	if tok.Type != TokenOperator || !IsComparison(tok.Literal) {
		return left
	}
	p.advance()
	right := p.parsePrimary()
	return &Binary{Left: left, Op: tok.Literal, Right: right}
}

func (p *Parser) parsePrimary() Node {
	tok := p.peek()
	switch tok.Type {
	case TokenLParen:
		p.advance()
		inner := p.parseOr()
		p.advance() // presumed ')'
		return &Group{Inner: inner}
	case TokenFunction:
		p.advance()
		return p.parseCall(tok.Literal)
	case TokenField:
		p.advance()
		return &FieldRef{Name: tok.Literal}
	case TokenString:
		p.advance()
		return &StringLiteral{Value: tok.Literal}
	case TokenNumber:
		p.advance()
		return &NumberLiteral{Text: tok.Literal}
	case TokenEOF, TokenOperator, TokenRParen, TokenComma, TokenAnd, TokenOr:
		// Not a primary start; the token is left for the caller.
	}
	return Empty()
}

// parseCall reads an argument list after a function name. A function name
// that is not followed by '(' is a call with no arguments.
func (p *Parser) parseCall(name string) Node {
	call := &Call{Name: name}
	if !p.check(TokenLParen) {
		return call
	}
	p.advance()

	for !p.check(TokenRParen) && !p.atEnd() {
		before := p.pos
		arg := p.parsePrimary()
		if p.pos == before && !p.check(TokenComma) {
			// Neither an argument nor a separator: drop the token so the
			// loop makes progress.
			p.advance()
			continue
		}
		// A missing argument before ',' keeps its empty leaf.
		call.Args = append(call.Args, arg)
		if p.check(TokenComma) {
			p.advance()
		}
	}
	p.advance() // presumed ')'
	return call
}
