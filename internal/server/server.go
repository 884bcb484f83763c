// Package server assembles all HTTP handlers and starts the server.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/mdb/internal/activity"
	"github.com/matthewbaird/mdb/internal/event"
	"github.com/matthewbaird/mdb/internal/render"
	"github.com/matthewbaird/mdb/internal/repl"
	"github.com/matthewbaird/mdb/internal/repl/executor"
	"github.com/matthewbaird/mdb/internal/repl/session"
	"github.com/matthewbaird/mdb/internal/store"
)

// DefaultAddr is the listen address when Config.Addr is empty.
const DefaultAddr = ":8080"

// DocumentReader looks up one stored document by path.
type DocumentReader interface {
	Get(ctx context.Context, path string) (*store.Document, error)
}

// Config holds server configuration.
type Config struct {
	Addr      string
	Executor  *executor.Executor
	Documents DocumentReader // nil disables /api/document
	REPL      *repl.Components
	Activity  *activity.Feed   // nil disables /api/activity
	Defaults  session.Settings // applied to /api/query parameters left empty
}

// NewRouter builds the HTTP handler tree. ctx bounds background work
// started by the routes, such as REPL session expiry.
func NewRouter(ctx context.Context, cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(Recovery, Logging)

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	qh := &queryHandler{exec: cfg.Executor, defaults: cfg.Defaults}
	r.Get("/api/query", qh.ServeHTTP)

	if cfg.Documents != nil {
		r.Get("/api/document", documentHandler(cfg.Documents))
	}
	if cfg.Activity != nil {
		r.Get("/api/activity", activityHandler(cfg.Activity))
	}

	if cfg.REPL != nil {
		cfg.REPL.RegisterRoutes(ctx, r)
	}
	return r
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(ctx, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("server: shutdown: %v", err)
		}
	}()

	log.Printf("starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type queryHandler struct {
	exec     *executor.Executor
	defaults session.Settings
}

// ServeHTTP handles GET /api/query?q=&fields=&limit=&format=.
func (h *queryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	filter := strings.TrimSpace(params.Get("q"))
	if filter == "" {
		writeError(w, http.StatusBadRequest, "EMPTY_QUERY", "query parameter q is required")
		return
	}

	fields := params.Get("fields")
	if fields == "" {
		fields = h.defaults.Fields
	}
	limit, ok := parseLimit(r, "limit", h.defaults.Limit)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a non-negative integer")
		return
	}
	mode := h.defaults.Format
	if v := params.Get("format"); v != "" {
		mode = render.ParseMode(v)
	}

	res, err := h.exec.Run(r.Context(), executor.Request{Filter: filter, Fields: fields, Limit: limit})
	if err != nil {
		if errors.Is(err, executor.ErrEmptyFilter) {
			writeError(w, http.StatusBadRequest, "EMPTY_QUERY", err.Error())
			return
		}
		log.Printf("server: query %q: %v", filter, err)
		writeError(w, http.StatusBadRequest, "QUERY_ERROR", err.Error())
		return
	}

	if mode == render.ModeJSON {
		writeJSON(w, http.StatusOK, map[string]any{
			"sql":     res.SQL,
			"columns": res.Columns,
			"rows":    res.Objects(),
			"total":   res.Meta.Total,
		})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := render.Write(w, res.Rows, mode, res.Columns); err != nil {
		log.Printf("server: write response: %v", err)
	}
}

// documentHandler serves GET /api/document?path= with every stored column.
func documentHandler(docs DocumentReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Query().Get("path")
		if path == "" {
			writeError(w, http.StatusBadRequest, "MISSING_PATH", "query parameter path is required")
			return
		}
		doc, err := docs.Get(r.Context(), path)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "no document at "+path)
			return
		}
		if err != nil {
			log.Printf("server: document %s: %v", path, err)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load document")
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

// activityHandler serves GET /api/activity?type=&path=&q=&since=&until=&limit=&cursor=.
// type may be repeated.
func activityHandler(feed *activity.Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := r.URL.Query()
		opts := activity.DefaultQueryOptions()

		n, ok := parseLimit(r, "limit", opts.Limit)
		if !ok {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a non-negative integer")
			return
		}
		opts.Limit = n
		opts.Types = params["type"]
		opts.Path = params.Get("path")
		opts.Search = params.Get("q")
		opts.Cursor = params.Get("cursor")

		for name, dst := range map[string]**time.Time{"since": &opts.Since, "until": &opts.Until} {
			v := params.Get(name)
			if v == "" {
				continue
			}
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_TIME", name+" must be an RFC 3339 timestamp")
				return
			}
			*dst = &t
		}

		events, next, total := feed.Query(opts)
		if events == nil {
			events = []event.IndexEvent{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"events":      events,
			"next_cursor": next,
			"total":       total,
		})
	}
}
