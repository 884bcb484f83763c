// Package repl wires the REPL components and exposes them over HTTP and
// WebSocket.
package repl

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/mdb/internal/repl/autocomplete"
	"github.com/matthewbaird/mdb/internal/repl/executor"
	"github.com/matthewbaird/mdb/internal/repl/meta"
	"github.com/matthewbaird/mdb/internal/repl/session"
	"github.com/matthewbaird/mdb/internal/repl/shell"
	"github.com/matthewbaird/mdb/internal/repl/wire"
	"github.com/matthewbaird/mdb/internal/schema"
)

// Session lifetimes for WebSocket clients.
const (
	SessionMaxAge      = 24 * time.Hour
	SessionIdleTimeout = 30 * time.Minute
)

// Components is a fully wired REPL.
type Components struct {
	Registry     *schema.Registry
	Executor     *executor.Executor
	Sessions     *session.Manager
	Shell        *shell.Shell
	Autocomplete *autocomplete.Engine
}

// New wires the REPL components around exec.
func New(exec *executor.Executor, defaults session.Settings, info meta.Info) *Components {
	registry := schema.Documents()
	return &Components{
		Registry:     registry,
		Executor:     exec,
		Sessions:     session.NewManager(defaults, SessionMaxAge, SessionIdleTimeout),
		Shell:        shell.New(exec, meta.New(registry, exec, info)),
		Autocomplete: autocomplete.New(registry),
	}
}

// RegisterRoutes registers REPL HTTP and WebSocket routes on the given
// router and expires idle sessions until ctx is done.
func (c *Components) RegisterRoutes(ctx context.Context, r chi.Router) {
	go c.Sessions.Run(ctx, time.Minute)

	wsHandler := wire.NewHandler(c.Sessions, c.Shell, c.Autocomplete)

	r.Route("/api/repl", func(r chi.Router) {
		// WebSocket endpoint
		r.Get("/ws", wsHandler.ServeHTTP)

		// Schema endpoint (REST, for tooling)
		r.Get("/schema", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(c.Registry.Fields())
		})

		// Session create endpoint; the id can be passed to /ws?session=
		r.Post("/session", func(w http.ResponseWriter, r *http.Request) {
			sess := c.Sessions.Create()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(sess)
		})
	})
}
