// Package schema describes the columns of the documents table and how the
// filter language names them.
//
// The registry is built once at package init and is read-only afterwards,
// so it is safe for concurrent use by the compiler, the REPL autocomplete
// engine and the store.
package schema

// Table is the name of the documents table.
const Table = "documents"

// Kind classifies how a column can be queried.
type Kind int

const (
	KindScalar   Kind = iota // plain comparable column
	KindSequence             // JSON array of strings, usable with has()
	KindJSON                 // free-form JSON object (properties)
)

// String returns the user-visible kind name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindJSON:
		return "json"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Namespace is the prefix a field is addressed by in the filter language.
type Namespace string

const (
	NamespaceFile Namespace = "file"
	NamespaceNote Namespace = "note"
)

// Field describes a single documents column.
type Field struct {
	Name      string    `json:"name"`      // column name, e.g. "tags"
	Namespace Namespace `json:"namespace"` // "file" or "note"
	Kind      Kind      `json:"kind"`
	Doc       string    `json:"doc"` // one-line description for :schema and /api/repl/schema
}

// Qualified returns the namespaced name, e.g. "note.tags".
func (f *Field) Qualified() string {
	return string(f.Namespace) + "." + f.Name
}

// Registry holds the document field metadata.
type Registry struct {
	fields map[string]*Field
	order  []string // column order of the documents table
	file   map[string]bool
	note   map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		fields: make(map[string]*Field),
		file:   make(map[string]bool),
		note:   make(map[string]bool),
	}
}

// Register adds a field. Fields are kept in registration order.
func (r *Registry) Register(f *Field) {
	r.fields[f.Name] = f
	r.order = append(r.order, f.Name)
	switch f.Namespace {
	case NamespaceFile:
		r.file[f.Name] = true
	case NamespaceNote:
		r.note[f.Name] = true
	}
}

// Lookup returns the field for a bare column name, or nil.
func (r *Registry) Lookup(name string) *Field {
	return r.fields[name]
}

// IsFile reports whether name is a file field.
func (r *Registry) IsFile(name string) bool {
	return r.file[name]
}

// IsNote reports whether name is a note field.
func (r *Registry) IsNote(name string) bool {
	return r.note[name]
}

// Columns returns every column name in table order.
func (r *Registry) Columns() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Fields returns every field in table order.
func (r *Registry) Fields() []*Field {
	out := make([]*Field, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.fields[name])
	}
	return out
}

// QualifiedNames returns "file.path", "file.folder", ... in table order.
func (r *Registry) QualifiedNames() []string {
	out := make([]string, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.fields[name].Qualified())
	}
	return out
}

var documents = func() *Registry {
	r := NewRegistry()
	for _, f := range []*Field{
		{Name: "path", Namespace: NamespaceFile, Kind: KindScalar, Doc: "full path of the file"},
		{Name: "folder", Namespace: NamespaceFile, Kind: KindScalar, Doc: "directory containing the file"},
		{Name: "name", Namespace: NamespaceFile, Kind: KindScalar, Doc: "file name without the .md extension"},
		{Name: "ext", Namespace: NamespaceFile, Kind: KindScalar, Doc: "file extension"},
		{Name: "size", Namespace: NamespaceFile, Kind: KindScalar, Doc: "size in bytes"},
		{Name: "ctime", Namespace: NamespaceFile, Kind: KindScalar, Doc: "creation time, unix seconds"},
		{Name: "mtime", Namespace: NamespaceFile, Kind: KindScalar, Doc: "modification time, unix seconds"},
		{Name: "content", Namespace: NamespaceNote, Kind: KindScalar, Doc: "body without frontmatter"},
		{Name: "tags", Namespace: NamespaceNote, Kind: KindSequence, Doc: "#tags found in the body"},
		{Name: "links", Namespace: NamespaceNote, Kind: KindSequence, Doc: "[[wikilink]] targets"},
		{Name: "backlinks", Namespace: NamespaceNote, Kind: KindSequence, Doc: "paths of notes linking here"},
		{Name: "embeds", Namespace: NamespaceNote, Kind: KindSequence, Doc: "![[embed]] targets"},
		{Name: "properties", Namespace: NamespaceNote, Kind: KindJSON, Doc: "frontmatter as JSON"},
	} {
		r.Register(f)
	}
	return r
}()

// Documents returns the registry for the documents table.
func Documents() *Registry {
	return documents
}
