// Package render formats query result rows for the terminal and the API.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Mode selects an output layout.
type Mode string

const (
	ModeTable Mode = "table"
	ModeJSON  Mode = "json"
	ModeList  Mode = "list"
)

// NoResults is printed instead of any layout when there are no rows.
const NoResults = "No results found."

// minWidth is the narrowest a table column is drawn.
const minWidth = 10

// ParseMode maps a format name to a Mode. Lowercase and capitalized names
// are accepted; anything else is a table.
func ParseMode(s string) Mode {
	switch s {
	case "json", "Json":
		return ModeJSON
	case "list", "List":
		return ModeList
	default:
		return ModeTable
	}
}

// Modes returns the recognised mode names.
func Modes() []string {
	return []string{string(ModeTable), string(ModeJSON), string(ModeList)}
}

// Render formats rows in the given mode. names labels each column by
// position; columns past the end of names are labelled colN.
func Render(rows [][]string, mode Mode, names []string) string {
	if len(rows) == 0 {
		return NoResults + "\n"
	}
	switch ParseMode(string(mode)) {
	case ModeJSON:
		return renderJSON(rows, names)
	case ModeList:
		return renderList(rows, names)
	default:
		return renderTable(rows, names)
	}
}

// Write renders rows to w.
func Write(w io.Writer, rows [][]string, mode Mode, names []string) error {
	_, err := io.WriteString(w, Render(rows, mode, names))
	return err
}

// Label returns the display name of column i.
func Label(names []string, i int) string {
	if i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("col%d", i)
}

// Objects pairs each row with its column labels, keeping column order.
func Objects(rows [][]string, names []string) []Object {
	out := make([]Object, 0, len(rows))
	for _, row := range rows {
		obj := make(Object, 0, len(row))
		for i, v := range row {
			obj = obj.set(Label(names, i), v)
		}
		out = append(out, obj)
	}
	return out
}

// Pair is one key/value of an Object.
type Pair struct {
	Key   string
	Value string
}

// Object is a JSON object whose keys marshal in insertion order.
type Object []Pair

// set replaces the value of an existing key in place or appends a new pair.
func (o Object) set(key, value string) Object {
	for i := range o {
		if o[i].Key == key {
			o[i].Value = value
			return o
		}
	}
	return append(o, Pair{Key: key, Value: value})
}

// MarshalJSON implements json.Marshaler.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func renderJSON(rows [][]string, names []string) string {
	data, err := json.MarshalIndent(Objects(rows, names), "", "  ")
	if err != nil {
		// Only strings are marshalled, so this is unreachable in practice.
		return fmt.Sprintf("render: %v\n", err)
	}
	return string(data) + "\n"
}

func renderList(rows [][]string, names []string) string {
	var b strings.Builder
	for _, row := range rows {
		for i, v := range row {
			fmt.Fprintf(&b, "%s: %s\n", Label(names, i), v)
		}
		b.WriteString("---\n")
	}
	return b.String()
}

func renderTable(rows [][]string, names []string) string {
	n := len(rows[0])
	labels := make([]string, n)
	widths := make([]int, n)
	for i := range n {
		labels[i] = Label(names, i)
		widths[i] = max(runewidth.StringWidth(labels[i]), minWidth)
	}
	for _, row := range rows {
		for i := 0; i < n && i < len(row); i++ {
			widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
		}
	}

	var b strings.Builder
	writeRow(&b, labels, widths)

	seps := make([]string, n)
	for i, w := range widths {
		seps[i] = strings.Repeat("-", w)
	}
	b.WriteString(strings.Join(seps, "-+-"))
	b.WriteByte('\n')

	for _, row := range rows {
		writeRow(&b, row, widths)
	}
	return b.String()
}

// writeRow pads each cell to its display width. Cells beyond the first row's
// column count are written unpadded.
func writeRow(b *strings.Builder, cells []string, widths []int) {
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(" | ")
		}
		if i < len(widths) {
			cell = pad(cell, widths[i])
		}
		b.WriteString(cell)
	}
	b.WriteByte('\n')
}

func pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}
