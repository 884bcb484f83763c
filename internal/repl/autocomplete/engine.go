// Package autocomplete provides context-aware completions for filters and
// meta-commands.
package autocomplete

import (
	"strings"

	"github.com/matthewbaird/mdb/internal/filter"
	"github.com/matthewbaird/mdb/internal/render"
	"github.com/matthewbaird/mdb/internal/repl/meta"
	"github.com/matthewbaird/mdb/internal/schema"
)

// CompletionItem is a single autocomplete suggestion.
type CompletionItem struct {
	Label      string `json:"label"`
	Kind       string `json:"kind"` // "field", "function", "keyword", "operator", "meta", "value"
	Detail     string `json:"detail,omitempty"`
	InsertText string `json:"insert_text,omitempty"`
}

// Engine completes from the in-memory document schema.
type Engine struct {
	registry *schema.Registry
}

// New creates an autocomplete engine backed by the given registry.
func New(registry *schema.Registry) *Engine {
	return &Engine{registry: registry}
}

var operators = []string{
	filter.OpEQ, filter.OpNEQ, filter.OpGT, filter.OpLT, filter.OpGTE, filter.OpLTE, filter.OpMatch,
}

// Complete returns suggestions for text with the cursor at byte offset
// cursor.
func (e *Engine) Complete(text string, cursor int) []CompletionItem {
	if cursor < 0 || cursor > len(text) {
		cursor = len(text)
	}
	prefix := text[:cursor]

	if strings.HasPrefix(strings.TrimSpace(prefix), meta.Prefix) {
		return e.completeMeta(strings.TrimLeft(prefix, " \t"))
	}

	tokens := filter.Tokenize(prefix)
	tokens = tokens[:len(tokens)-1] // EOF

	if len(tokens) > 0 {
		last := tokens[len(tokens)-1]
		if last.Type == filter.TokenString && insideString(prefix, last) {
			return nil
		}
	}

	// An identifier touching the cursor is still being typed.
	partial := ""
	if n := len(tokens); n > 0 {
		last := tokens[n-1]
		if last.Pos+len(last.Literal) == len(prefix) && isWord(last.Type) {
			partial = last.Literal
			tokens = tokens[:n-1]
		}
	}

	return e.contextual(tokens, partial)
}

func (e *Engine) contextual(tokens []filter.Token, partial string) []CompletionItem {
	if len(tokens) == 0 {
		return e.operands(partial)
	}

	last := tokens[len(tokens)-1]
	switch last.Type {
	case filter.TokenLParen, filter.TokenComma, filter.TokenAnd, filter.TokenOr:
		return e.operands(partial)
	case filter.TokenFunction:
		return []CompletionItem{{Label: "(", Kind: "keyword", Detail: "open argument list"}}
	case filter.TokenOperator:
		return nil
	case filter.TokenField:
		if len(tokens) >= 2 && tokens[len(tokens)-2].Type == filter.TokenOperator {
			return keywords(partial)
		}
		if inCall(tokens) {
			return []CompletionItem{{Label: ",", Kind: "keyword", Detail: "next argument"}}
		}
		return completeOperators()
	case filter.TokenString, filter.TokenNumber, filter.TokenRParen:
		return keywords(partial)
	}
	return nil
}

// operands suggests what may start a comparison: fields, has, a group.
func (e *Engine) operands(partial string) []CompletionItem {
	var items []CompletionItem
	for _, f := range e.registry.Fields() {
		q := f.Qualified()
		if strings.HasPrefix(q, partial) || strings.HasPrefix(f.Name, partial) {
			items = append(items, CompletionItem{Label: q, Kind: "field", Detail: f.Kind.String() + ": " + f.Doc})
		}
	}
	for _, fn := range filter.Functions() {
		if strings.HasPrefix(fn, partial) {
			items = append(items, CompletionItem{
				Label:      fn,
				Kind:       "function",
				Detail:     fn + "(field, value)",
				InsertText: fn + "(",
			})
		}
	}
	if partial == "" {
		items = append(items, CompletionItem{Label: "(", Kind: "keyword", Detail: "group"})
	}
	return items
}

func keywords(partial string) []CompletionItem {
	var items []CompletionItem
	for _, kw := range []string{"and", "or"} {
		if strings.HasPrefix(kw, partial) {
			items = append(items, CompletionItem{Label: kw, Kind: "keyword"})
		}
	}
	return items
}

func completeOperators() []CompletionItem {
	items := make([]CompletionItem, 0, len(operators))
	for _, op := range operators {
		items = append(items, CompletionItem{Label: op, Kind: "operator"})
	}
	return items
}

func (e *Engine) completeMeta(prefix string) []CompletionItem {
	name, arg, hasArg := strings.Cut(strings.TrimPrefix(prefix, meta.Prefix), " ")
	if !hasArg {
		var items []CompletionItem
		for _, cmd := range meta.Commands() {
			if strings.HasPrefix(cmd, name) {
				items = append(items, CompletionItem{Label: meta.Prefix + cmd, Kind: "meta"})
			}
		}
		return items
	}

	arg = strings.TrimLeft(arg, " ")
	var candidates []string
	switch name {
	case "format":
		candidates = render.Modes()
	case "schema":
		candidates = e.registry.QualifiedNames()
	case "help":
		candidates = []string{"fields", "operators", "has", "format"}
	case "sql", "ast", "count":
		return e.Complete(arg, len(arg))
	}
	var items []CompletionItem
	for _, c := range candidates {
		if strings.HasPrefix(c, arg) {
			items = append(items, CompletionItem{Label: c, Kind: "value"})
		}
	}
	return items
}

func isWord(t filter.TokenType) bool {
	switch t {
	case filter.TokenField, filter.TokenFunction, filter.TokenAnd, filter.TokenOr:
		return true
	}
	return false
}

// insideString reports whether the cursor at the end of prefix is still
// inside the string token tok: the string is unterminated, or the closing
// quote is the last character typed.
func insideString(prefix string, tok filter.Token) bool {
	end := tok.Pos + 1 + len(tok.Literal)
	if end >= len(prefix) {
		return true
	}
	return end == len(prefix)-1
}

// inCall reports whether the tokens end inside an unclosed has( ... ).
func inCall(tokens []filter.Token) bool {
	depth := 0
	for i := len(tokens) - 1; i >= 0; i-- {
		switch tokens[i].Type {
		case filter.TokenRParen:
			depth++
		case filter.TokenLParen:
			if depth == 0 {
				return i > 0 && tokens[i-1].Type == filter.TokenFunction
			}
			depth--
		}
	}
	return false
}
