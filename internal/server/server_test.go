package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/mdb/internal/activity"
	"github.com/matthewbaird/mdb/internal/event"
	"github.com/matthewbaird/mdb/internal/render"
	"github.com/matthewbaird/mdb/internal/repl/executor"
	"github.com/matthewbaird/mdb/internal/repl/session"
	"github.com/matthewbaird/mdb/internal/store"
)

type fakeStore struct {
	rows  [][]string
	sql   string
	limit int
	err   error
}

func (f *fakeStore) Query(_ context.Context, sql string, limit int) ([][]string, error) {
	f.sql, f.limit = sql, limit
	return f.rows, f.err
}

func newTestServer(t *testing.T, store *fakeStore, feed *activity.Feed) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := NewRouter(ctx, Config{
		Executor: executor.New(store, nil),
		Activity: feed,
		Defaults: session.Settings{Format: render.ModeTable, Fields: executor.DefaultFields, Limit: executor.DefaultLimit},
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, u string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeStore{}, nil)
	resp, body := get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestQuery_JSON(t *testing.T) {
	store := &fakeStore{rows: [][]string{{"a.md", "10"}, {"b.md", "20"}}}
	srv := newTestServer(t, store, nil)

	resp, body := get(t, srv.URL+"/api/query?q=file.size+%3E+1&format=json&limit=5")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var out struct {
		SQL     string              `json:"sql"`
		Columns []string            `json:"columns"`
		Rows    []map[string]string `json:"rows"`
		Total   int                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, "SELECT path, mtime FROM documents WHERE size > 1 LIMIT 5", out.SQL)
	assert.Equal(t, []string{"file.path", "file.mtime"}, out.Columns)
	assert.Equal(t, 2, out.Total)
	assert.Equal(t, "a.md", out.Rows[0]["file.path"])
	assert.Equal(t, "20", out.Rows[1]["file.mtime"])
	assert.Equal(t, 5, store.limit)
}

func TestQuery_TextDefaults(t *testing.T) {
	store := &fakeStore{rows: [][]string{{"a.md", "10"}}}
	srv := newTestServer(t, store, nil)

	resp, body := get(t, srv.URL+"/api/query?q=has(tags,'x')")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	assert.Equal(t, render.Render(store.rows, render.ModeTable, []string{"file.path", "file.mtime"}), body)
	assert.Equal(t, executor.DefaultLimit, store.limit)
}

func TestQuery_ListAndFields(t *testing.T) {
	store := &fakeStore{rows: [][]string{{"x"}}}
	srv := newTestServer(t, store, nil)

	_, body := get(t, srv.URL+"/api/query?q=a+%3D%3D+1&fields=file.name&format=list")
	assert.Equal(t, "file.name: x\n---\n", body)
	assert.Contains(t, store.sql, "SELECT name FROM documents")
}

func TestQuery_NoResults(t *testing.T) {
	srv := newTestServer(t, &fakeStore{}, nil)
	_, body := get(t, srv.URL+"/api/query?q=a+%3D%3D+1")
	assert.Equal(t, render.NoResults+"\n", body)
}

func TestQuery_Errors(t *testing.T) {
	srv := newTestServer(t, &fakeStore{err: assert.AnError}, nil)

	resp, body := get(t, srv.URL+"/api/query")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "EMPTY_QUERY")

	resp, body = get(t, srv.URL+"/api/query?q=a&limit=-1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "INVALID_LIMIT")

	resp, body = get(t, srv.URL+"/api/query?q=a")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "QUERY_ERROR")
}

func TestActivity(t *testing.T) {
	feed := activity.NewFeed(10)
	ctx := context.Background()
	require.NoError(t, feed.HandleEvent(ctx, event.NewDocumentRemoved("a.md")))
	require.NoError(t, feed.HandleEvent(ctx, event.NewDocumentIndexed(event.DocumentIndexedPayload{Path: "b.md"})))
	require.NoError(t, feed.HandleEvent(ctx, event.NewDocumentRemoved("c.md")))
	srv := newTestServer(t, &fakeStore{}, feed)

	type page struct {
		Events     []event.IndexEvent `json:"events"`
		NextCursor string             `json:"next_cursor"`
		Total      int                `json:"total"`
	}

	resp, body := get(t, srv.URL+"/api/activity?limit=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out page
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	require.Len(t, out.Events, 1)
	assert.Equal(t, "c.md", out.Events[0].Path)
	assert.Equal(t, 3, out.Total)
	assert.NotEmpty(t, out.NextCursor)

	_, body = get(t, srv.URL+"/api/activity?type=document.removed&type=index.completed")
	out = page{}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, 2, out.Total)

	_, body = get(t, srv.URL+"/api/activity?since=2999-01-01T00:00:00Z")
	assert.JSONEq(t, `{"events":[],"next_cursor":"","total":0}`, body)

	resp, body = get(t, srv.URL+"/api/activity?since=yesterday")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "INVALID_TIME")
}

func TestActivity_DisabledWithoutStore(t *testing.T) {
	srv := newTestServer(t, &fakeStore{}, nil)
	resp, _ := get(t, srv.URL+"/api/activity")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDocument(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "mdb.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Upsert(ctx, &store.Document{
		Path: "/notes/a.md", Folder: "/notes", Name: "a", Ext: "md",
		Tags: []string{"go"}, Links: []string{}, Backlinks: []string{}, Embeds: []string{},
		Properties: map[string]any{"status": "draft"},
	}))

	ctx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	srv := httptest.NewServer(NewRouter(ctx, Config{Executor: executor.New(st, nil), Documents: st}))
	t.Cleanup(srv.Close)

	resp, body := get(t, srv.URL+"/api/document?path="+url.QueryEscape("/notes/a.md"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var doc store.Document
	require.NoError(t, json.Unmarshal([]byte(body), &doc))
	assert.Equal(t, "a", doc.Name)
	assert.Equal(t, []string{"go"}, doc.Tags)
	assert.Equal(t, "draft", doc.Properties["status"])

	resp, body = get(t, srv.URL+"/api/document?path=/notes/missing.md")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "NOT_FOUND")

	resp, body = get(t, srv.URL+"/api/document")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "MISSING_PATH")
}

func TestDocument_DisabledWithoutReader(t *testing.T) {
	srv := newTestServer(t, &fakeStore{}, nil)
	resp, _ := get(t, srv.URL+"/api/document?path=/a.md")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLogging_SupportsHijack(t *testing.T) {
	hijacked := make(chan bool, 1)
	srv := httptest.NewServer(Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := w.(http.Hijacker)
		hijacked <- ok
	})))
	t.Cleanup(srv.Close)

	resp, _ := get(t, srv.URL)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, <-hijacked)
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestLogging_KeepsRequestID(t *testing.T) {
	var seen string
	h := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Config{Addr: "127.0.0.1:0", Executor: executor.New(&fakeStore{}, nil)})
	}()
	cancel()
	assert.NoError(t, <-done)
}
