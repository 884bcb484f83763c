// Package meta handles REPL meta-commands (:help, :schema, :format, :sql, ...).
package meta

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/matthewbaird/mdb/internal/filter"
	"github.com/matthewbaird/mdb/internal/render"
	"github.com/matthewbaird/mdb/internal/repl/executor"
	"github.com/matthewbaird/mdb/internal/repl/session"
	"github.com/matthewbaird/mdb/internal/schema"
)

// Prefix marks a REPL input line as a meta-command.
const Prefix = ":"

// Info describes the environment shown by :env.
type Info struct {
	Database string
	BaseDir  string
}

// Handler dispatches meta-commands.
type Handler struct {
	registry *schema.Registry
	exec     *executor.Executor
	info     Info
}

// New creates a meta-command handler.
func New(registry *schema.Registry, exec *executor.Executor, info Info) *Handler {
	return &Handler{registry: registry, exec: exec, info: info}
}

// Result is the output of a meta-command execution.
type Result struct {
	Output string `json:"output"`
	Clear  bool   `json:"clear,omitempty"` // Signal frontend to clear screen
	Quit   bool   `json:"quit,omitempty"`  // Signal terminal front end to exit
}

// Parse splits a meta-command line into its command name and the raw
// remainder. ok is false when line is not a meta-command.
func Parse(line string) (command, rest string, ok bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, Prefix) {
		return "", "", false
	}
	command, rest, _ = strings.Cut(strings.TrimPrefix(line, Prefix), " ")
	return strings.ToLower(command), strings.TrimSpace(rest), true
}

// Commands returns the meta-command names for completion.
func Commands() []string {
	return []string{"help", "history", "schema", "format", "fields", "limit", "sql", "ast", "count", "env", "clear", "quit"}
}

// Execute runs a meta-command and returns the result.
func (h *Handler) Execute(ctx context.Context, sess *session.Session, command, rest string) (*Result, error) {
	switch command {
	case "help", "h", "?":
		return h.help(rest)
	case "clear":
		return &Result{Clear: true}, nil
	case "quit", "exit", "q":
		return &Result{Quit: true}, nil
	case "env":
		return h.env(sess)
	case "history":
		return h.history(sess)
	case "schema":
		return h.schemaCmd(rest)
	case "format":
		return h.format(sess, rest)
	case "fields":
		return h.fields(sess, rest)
	case "limit":
		return h.limit(sess, rest)
	case "sql":
		return h.sql(sess, rest)
	case "ast":
		return h.ast(rest)
	case "count":
		return h.count(ctx, rest)
	default:
		return nil, fmt.Errorf("unknown meta-command ':%s'. Type :help for available commands", command)
	}
}

func (h *Handler) help(topic string) (*Result, error) {
	if topic != "" {
		return h.helpTopic(topic)
	}

	help := `mdb filter language

Filters:
  <field> <op> <value>         Compare a field with a string or number
  has(<field>, <value>)        True when a list field contains value
  <filter> and <filter>        Both must match (binds tighter than or)
  <filter> or <filter>         Either may match
  ( <filter> )                 Group

Operators: ==, !=, >, <, >=, <=, =~ (SQL LIKE pattern)
Keywords are lowercase: and, or, has

Fields:
  file.path file.folder file.name file.ext file.size file.ctime file.mtime
  note.content note.tags note.links note.backlinks note.embeds note.properties
  Any other name reads a frontmatter property (note.status or status).

Meta-commands:
  :help [topic]      Show help (topics: fields, operators, has, format)
  :schema [field]    Show document fields
  :format <mode>     Set output format (table, json, list)
  :fields <list>     Set output fields ("*" for all)
  :limit <n>         Set row limit (0 for none)
  :sql <filter>      Show the SQL a filter compiles to
  :ast <filter>      Show how a filter was parsed
  :count <filter>    Count matching documents
  :history           Show input history
  :env               Show session settings
  :clear             Clear the screen
  :quit              Leave the REPL

Examples:
  file.name == 'readme'
  has(note.tags, 'project') and file.mtime > 1700000000
  status == 'draft' or (file.size > 1000 and file.name =~ '%log%')`

	return &Result{Output: help}, nil
}

func (h *Handler) helpTopic(topic string) (*Result, error) {
	switch topic {
	case "fields":
		return h.schemaCmd("")
	case "operators":
		return &Result{Output: "==  equal\n!=  not equal\n>  <  >=  <=  ordered comparison\n=~  SQL LIKE: % matches any characters, _ a single character\n\nComparisons do not chain: a == 1 == 2 is a == 1."}, nil
	case "has":
		return &Result{Output: "has(<field>, <value>)\n\nTrue when the list field contains an element equal to value.\n  Example: has(note.tags, 'project')\n\nWorks on tags, links, backlinks, embeds and list-valued properties."}, nil
	case "format":
		return &Result{Output: "Output formats: " + strings.Join(render.Modes(), ", ") + "\n\n  :format json"}, nil
	default:
		return &Result{Output: fmt.Sprintf("No help available for '%s'", topic)}, nil
	}
}

func (h *Handler) env(sess *session.Session) (*Result, error) {
	st := sess.Settings()
	out := fmt.Sprintf("Session: %s\nDatabase: %s\nBase dir: %s\nDialect: %s\nFormat: %s\nFields: %s\nLimit: %d\nCreated: %s\nLast active: %s\nHistory entries: %d",
		sess.ID, h.info.Database, h.info.BaseDir, h.exec.Dialect(),
		st.Format, st.Fields, st.Limit,
		sess.CreatedAt.Format("2006-01-02 15:04:05"),
		sess.LastActiveAt().Format("2006-01-02 15:04:05"),
		len(sess.History()))
	return &Result{Output: out}, nil
}

func (h *Handler) history(sess *session.Session) (*Result, error) {
	entries := sess.History()
	if len(entries) == 0 {
		return &Result{Output: "(no history)"}, nil
	}

	var b strings.Builder
	for i, entry := range entries {
		fmt.Fprintf(&b, "%3d  %s\n", i+1, entry)
	}
	return &Result{Output: b.String()}, nil
}

func (h *Handler) schemaCmd(name string) (*Result, error) {
	if name != "" {
		if prefix, bare, found := strings.Cut(name, "."); found && (prefix == string(schema.NamespaceFile) || prefix == string(schema.NamespaceNote)) {
			name = bare
		}
		f := h.registry.Lookup(name)
		if f == nil {
			return nil, fmt.Errorf("unknown field '%s' (other names read frontmatter properties)", name)
		}
		return &Result{Output: fmt.Sprintf("%s\n  column: %s\n  kind:   %s\n  %s", f.Qualified(), f.Name, f.Kind, f.Doc)}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Table: %s\n\nFields:\n", schema.Table)
	for _, f := range h.registry.Fields() {
		fmt.Fprintf(&b, "  %-20s %-9s %s\n", f.Qualified(), f.Kind, f.Doc)
	}
	b.WriteString("\nOther names read frontmatter: status -> json_extract(properties, '$.status')")
	return &Result{Output: b.String()}, nil
}

func (h *Handler) format(sess *session.Session, arg string) (*Result, error) {
	if arg == "" {
		return &Result{Output: "Format: " + string(sess.Settings().Format)}, nil
	}
	switch arg {
	case "table", "json", "list", "Table", "Json", "List":
	default:
		return nil, fmt.Errorf("unknown format '%s' (want %s)", arg, strings.Join(render.Modes(), ", "))
	}
	st := sess.UpdateSettings(func(st *session.Settings) { st.Format = render.ParseMode(arg) })
	return &Result{Output: "Format: " + string(st.Format)}, nil
}

func (h *Handler) fields(sess *session.Session, arg string) (*Result, error) {
	st := sess.Settings()
	if arg != "" {
		st = sess.UpdateSettings(func(st *session.Settings) { st.Fields = arg })
	}
	return &Result{Output: "Fields: " + st.Fields}, nil
}

func (h *Handler) limit(sess *session.Session, arg string) (*Result, error) {
	st := sess.Settings()
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("limit must be a non-negative integer, got '%s'", arg)
		}
		st = sess.UpdateSettings(func(st *session.Settings) { st.Limit = n })
	}
	return &Result{Output: fmt.Sprintf("Limit: %d", st.Limit)}, nil
}

func (h *Handler) sql(sess *session.Session, filter string) (*Result, error) {
	st := sess.Settings()
	q, err := h.exec.Plan(executor.Request{Filter: filter, Fields: st.Fields})
	if err != nil {
		return nil, err
	}
	out := q.SQL
	if st.Limit > 0 {
		out = fmt.Sprintf("%s LIMIT %d", out, st.Limit)
	}
	return &Result{Output: out}, nil
}

// ast shows how input parses, in canonical filter syntax.
func (h *Handler) ast(input string) (*Result, error) {
	if strings.TrimSpace(input) == "" {
		return nil, executor.ErrEmptyFilter
	}
	return &Result{Output: filter.ParseString(input).String()}, nil
}

func (h *Handler) count(ctx context.Context, filter string) (*Result, error) {
	n, err := h.exec.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Result{Output: strconv.Itoa(n)}, nil
}
