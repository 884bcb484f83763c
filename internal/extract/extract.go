// Package extract pulls frontmatter, tags, wikilinks and embeds out of a
// markdown document.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

const delimiter = "---"

var (
	tagPattern = sync.OnceValue(func() *regexp.Regexp {
		return regexp.MustCompile(`#[\p{L}\p{N}_\-/]+`)
	})
	linkPattern = sync.OnceValue(func() *regexp.Regexp {
		return regexp.MustCompile(`\[\[([^\]]+)\]\]`)
	})
	embedPattern = sync.OnceValue(func() *regexp.Regexp {
		return regexp.MustCompile(`!\[\[([^\]]+)\]\]`)
	})
	markdown = sync.OnceValue(func() goldmark.Markdown {
		return goldmark.New()
	})
)

// Result is everything extracted from one document.
type Result struct {
	Content    string         // body with the frontmatter removed
	Properties map[string]any // frontmatter, empty when absent or invalid
	Tags       []string       // #tags without the leading #, first occurrence order
	Links      []string       // [[target]] values, including embeds
	Embeds     []string       // ![[target]] values
}

// Extract parses source. It never fails: malformed frontmatter is treated
// as body text.
func Extract(source string) Result {
	props, content := Frontmatter(source)
	return Result{
		Content:    content,
		Properties: props,
		Tags:       Tags(content),
		Links:      captures(linkPattern(), content),
		Embeds:     captures(embedPattern(), content),
	}
}

// Frontmatter splits a leading YAML block delimited by --- from the body.
// The block ends at the next --- anywhere after the opening one. When there
// is no block, or it is not valid YAML, the properties are empty and the
// source is returned unchanged.
func Frontmatter(source string) (map[string]any, string) {
	props := map[string]any{}
	if !strings.HasPrefix(source, delimiter) {
		return props, source
	}
	end := strings.Index(source[len(delimiter):], delimiter)
	if end < 0 {
		return props, source
	}
	block := source[len(delimiter) : len(delimiter)+end]
	rest := source[2*len(delimiter)+end:]

	var raw any
	if err := yaml.Unmarshal([]byte(block), &raw); err != nil {
		return props, source
	}
	if m, ok := normalize(raw).(map[string]any); ok {
		props = m
	}
	return props, strings.TrimSpace(rest)
}

// Tags returns the distinct #tags of content, ignoring code blocks and
// code spans.
func Tags(content string) []string {
	masked := maskCode([]byte(content))
	var tags []string
	seen := make(map[string]bool)
	for _, m := range tagPattern().FindAllString(string(masked), -1) {
		tag := strings.TrimPrefix(m, "#")
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

func captures(re *regexp.Regexp, content string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(content, -1) {
		out = append(out, m[1])
	}
	return out
}

// maskCode blanks out code blocks and code spans, keeping offsets and line
// breaks intact.
func maskCode(src []byte) []byte {
	doc := markdown().Parser().Parse(text.NewReader(src))
	out := make([]byte, len(src))
	copy(out, src)

	blank := func(seg text.Segment) {
		for i := seg.Start; i < seg.Stop && i < len(out); i++ {
			if out[i] != '\n' && out[i] != '\r' {
				out[i] = ' '
			}
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				blank(lines.At(i))
			}
			return ast.WalkSkipChildren, nil
		case *ast.CodeSpan:
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					blank(t.Segment)
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return out
}

// normalize converts the map[any]any values yaml produces for non-string
// keys into map[string]any so the result can be stored as JSON.
func normalize(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, e := range v {
			v[k] = normalize(e)
		}
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []any:
		for i, e := range v {
			v[i] = normalize(e)
		}
		return v
	default:
		return v
	}
}
