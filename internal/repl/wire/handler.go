package wire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/matthewbaird/mdb/internal/repl/autocomplete"
	"github.com/matthewbaird/mdb/internal/repl/executor"
	"github.com/matthewbaird/mdb/internal/repl/session"
	"github.com/matthewbaird/mdb/internal/repl/shell"
)

const (
	// rowBatchSize controls how many rows are sent per "rows" message.
	rowBatchSize = 50
)

// Handler manages WebSocket connections for the REPL.
type Handler struct {
	sessions     *session.Manager
	shell        *shell.Shell
	autocomplete *autocomplete.Engine
}

// NewHandler creates a WebSocket handler with all dependencies.
func NewHandler(sessions *session.Manager, sh *shell.Shell, ac *autocomplete.Engine) *Handler {
	return &Handler{
		sessions:     sessions,
		shell:        sh,
		autocomplete: ac,
	}
}

// ServeHTTP upgrades to WebSocket and runs the message loop. A client may
// resume an existing session with ?session=<id>.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("repl: websocket accept: %v", err)
		return
	}
	defer conn.CloseNow()

	sess := h.sessions.Get(r.URL.Query().Get("session"))
	if sess == nil {
		sess = h.sessions.Create()
	}
	ctx := r.Context()

	h.send(ctx, conn, ServerMessage{
		Type: TypeSession,
		Data: SessionData{
			SessionID: sess.ID,
			Settings:  sess.Settings(),
		},
	})

	for {
		var msg ClientMessage
		err := wsjson.Read(ctx, conn, &msg)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Printf("repl: connection closed: %v", websocket.CloseStatus(err))
			}
			return
		}

		switch msg.Type {
		case TypeExecute:
			h.handleExecute(ctx, conn, sess, msg)
		case TypeAutocomplete:
			h.handleAutocomplete(ctx, conn, msg)
		case TypePing:
			sess.Touch()
			h.send(ctx, conn, ServerMessage{Type: TypePong, RequestID: msg.ID})
		default:
			h.sendError(ctx, conn, msg.ID, "unknown_type", fmt.Sprintf("unknown message type: %s", msg.Type))
		}
	}
}

func (h *Handler) handleExecute(ctx context.Context, conn *websocket.Conn, sess *session.Session, msg ClientMessage) {
	start := time.Now()

	var data ExecuteData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid execute data")
		return
	}

	out, err := h.shell.Eval(ctx, sess, data.Line)
	if err != nil {
		code := "exec_error"
		if errors.Is(err, executor.ErrEmptyFilter) {
			code = "empty_query"
		}
		h.sendError(ctx, conn, msg.ID, code, err.Error())
		return
	}

	switch {
	case out.Meta != nil:
		h.send(ctx, conn, ServerMessage{Type: TypeMeta, RequestID: msg.ID, Data: out.Meta})
		return
	case out.Query == nil:
		h.sendError(ctx, conn, msg.ID, "empty_query", "empty input")
		return
	}

	res := out.Query
	h.send(ctx, conn, ServerMessage{
		Type:      TypeResult,
		RequestID: msg.ID,
		Data: ResultData{
			SQL:     res.SQL,
			Columns: res.Columns,
			Total:   res.Meta.Total,
			Format:  string(sess.Settings().Format),
		},
	})

	for i := 0; i < len(res.Rows); i += rowBatchSize {
		end := min(i+rowBatchSize, len(res.Rows))
		h.send(ctx, conn, ServerMessage{
			Type:      TypeRows,
			RequestID: msg.ID,
			Data:      RowsData{Rows: res.Rows[i:end]},
		})
	}

	h.send(ctx, conn, ServerMessage{
		Type:      TypeDone,
		RequestID: msg.ID,
		Data: DoneData{
			Total:   res.Meta.Total,
			Elapsed: time.Since(start).String(),
			Text:    out.Text(sess),
		},
	})
}

func (h *Handler) handleAutocomplete(ctx context.Context, conn *websocket.Conn, msg ClientMessage) {
	var data AutocompleteData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid autocomplete data")
		return
	}

	items := h.autocomplete.Complete(data.Line, data.Cursor)
	if items == nil {
		items = []autocomplete.CompletionItem{}
	}
	h.send(ctx, conn, ServerMessage{
		Type:      TypeCompletions,
		RequestID: msg.ID,
		Data:      CompletionsData{Items: items},
	})
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		log.Printf("repl: write error: %v", err)
	}
}

func (h *Handler) sendError(ctx context.Context, conn *websocket.Conn, requestID, code, message string) {
	h.send(ctx, conn, ServerMessage{
		Type:      TypeError,
		RequestID: requestID,
		Data: ErrorData{
			Code:    code,
			Message: message,
		},
	})
}
