// Package compiler turns filter ASTs into SQL against the documents table.
//
// Field references are resolved through the document schema: known file
// and note fields become bare columns, anything else reads a key out of the
// properties JSON. Compilation is pure and has no state between calls.
package compiler

import (
	"fmt"
	"strings"

	"github.com/matthewbaird/mdb/internal/schema"
)

// Resolved is the physical form of a field reference.
type Resolved struct {
	Expr   string // SQL text to emit
	Column string // bare column name, "" for property lookups and pass-through
	Key    string // properties key for property lookups
}

// IsProperty reports whether the reference reads inside properties.
func (r Resolved) IsProperty() bool {
	return r.Key != ""
}

// PropertyPath returns the JSON path of a properties key.
func PropertyPath(key string) string {
	return "'$." + key + "'"
}

// PropertyLookup returns the expression reading key out of properties.
func PropertyLookup(key string) string {
	return fmt.Sprintf("json_extract(properties, %s)", PropertyPath(key))
}

// Resolve maps a field reference to a column name or a property lookup.
//
//	file.name    -> name
//	note.tags    -> tags
//	note.custom  -> json_extract(properties, '$.custom')
//	category     -> json_extract(properties, '$.category')
//	foo.bar      -> foo.bar (unknown namespace, passed through)
//	a.b.c        -> a.b.c   (more than one dot, passed through)
func Resolve(name string) string {
	return ResolveField(name).Expr
}

// ResolveField is Resolve with the resolution kind attached.
func ResolveField(name string) Resolved {
	reg := schema.Documents()

	if strings.Contains(name, ".") {
		prefix, suffix, _ := strings.Cut(name, ".")
		if strings.Contains(suffix, ".") {
			return Resolved{Expr: name}
		}
		switch schema.Namespace(prefix) {
		case schema.NamespaceFile:
			if reg.IsFile(suffix) {
				return column(suffix)
			}
		case schema.NamespaceNote:
			if reg.IsNote(suffix) {
				return column(suffix)
			}
			return property(suffix)
		}
		return Resolved{Expr: name}
	}

	if reg.IsFile(name) || reg.IsNote(name) {
		return column(name)
	}
	return property(name)
}

func column(name string) Resolved {
	return Resolved{Expr: name, Column: name}
}

func property(key string) Resolved {
	return Resolved{Expr: PropertyLookup(key), Key: key}
}
