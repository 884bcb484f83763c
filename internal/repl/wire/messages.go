// Package wire defines the WebSocket protocol for the REPL.
package wire

import (
	"encoding/json"

	"github.com/matthewbaird/mdb/internal/repl/autocomplete"
	"github.com/matthewbaird/mdb/internal/repl/session"
)

// Message types.
const (
	TypeExecute      = "execute"
	TypeAutocomplete = "autocomplete"
	TypePing         = "ping"

	TypeSession     = "session"
	TypeMeta        = "meta"
	TypeResult      = "result"
	TypeRows        = "rows"
	TypeDone        = "done"
	TypeError       = "error"
	TypeCompletions = "completions"
	TypePong        = "pong"
)

// ── Client → Server messages ────────────────────────────────────────────────

// ClientMessage is the envelope for all client-to-server WebSocket messages.
type ClientMessage struct {
	Type string          `json:"type"` // "execute", "autocomplete", "ping"
	ID   string          `json:"id"`   // Client-assigned request ID
	Data json.RawMessage `json:"data,omitempty"`
}

// ExecuteData is the payload for "execute" messages: a filter or a
// meta-command line.
type ExecuteData struct {
	Line string `json:"line"`
}

// AutocompleteData is the payload for "autocomplete" messages.
type AutocompleteData struct {
	Line   string `json:"line"`
	Cursor int    `json:"cursor"`
}

// ── Server → Client messages ────────────────────────────────────────────────

// ServerMessage is the envelope for all server-to-client WebSocket messages.
type ServerMessage struct {
	Type      string `json:"type"`                 // "session", "meta", "result", "rows", "done", "error", "completions", "pong"
	RequestID string `json:"request_id,omitempty"` // Echoes client ID
	Data      any    `json:"data,omitempty"`
}

// ResultData is sent before rows to describe the columns and row count.
type ResultData struct {
	SQL     string   `json:"sql"`
	Columns []string `json:"columns"`
	Total   int      `json:"total"`
	Format  string   `json:"format"`
}

// RowsData carries a batch of result rows in column order.
type RowsData struct {
	Rows [][]string `json:"rows"`
}

// DoneData signals completion of a request. Text holds the rendered output
// in the session's format.
type DoneData struct {
	Total   int    `json:"total"`
	Elapsed string `json:"elapsed"`
	Text    string `json:"text,omitempty"`
}

// ErrorData carries an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CompletionsData carries autocomplete suggestions.
type CompletionsData struct {
	Items []autocomplete.CompletionItem `json:"items"`
}

// SessionData carries session information.
type SessionData struct {
	SessionID string           `json:"session_id"`
	Settings  session.Settings `json:"settings"`
}
