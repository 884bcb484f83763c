// Package store persists indexed documents in SQLite and runs compiled
// filter queries against them.
//
// Sequence columns (tags, links, backlinks, embeds) hold JSON arrays and
// properties holds a JSON object, so compiled filters can use json_each and
// json_extract directly.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "modernc.org/sqlite"

	"github.com/matthewbaird/mdb/internal/schema"
)

// ErrNotFound is returned when no document has the requested path.
var ErrNotFound = errors.New("store: document not found")

// Document is one indexed markdown file.
type Document struct {
	Path       string         `json:"path"`
	Folder     string         `json:"folder"`
	Name       string         `json:"name"`
	Ext        string         `json:"ext"`
	Size       int64          `json:"size"`
	Ctime      int64          `json:"ctime"`
	Mtime      int64          `json:"mtime"`
	Content    string         `json:"content"`
	Tags       []string       `json:"tags"`
	Links      []string       `json:"links"`
	Backlinks  []string       `json:"backlinks"`
	Embeds     []string       `json:"embeds"`
	Properties map[string]any `json:"properties"`
}

// Store is a SQLite-backed document table.
type Store struct {
	db   *sql.DB
	drv  *entsql.Driver
	path string
}

// Open opens (creating if needed) the database at path and migrates the
// documents table.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: enabling foreign keys: %w", err)
	}

	drv := entsql.OpenDB(dialect.SQLite, db)
	if err := migrate(ctx, drv); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, drv: drv, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	return s.drv.Close()
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

// Upsert inserts doc or replaces the stored row with the same path.
func (s *Store) Upsert(ctx context.Context, doc *Document) error {
	tags, err := encodeList(doc.Tags)
	if err != nil {
		return err
	}
	links, err := encodeList(doc.Links)
	if err != nil {
		return err
	}
	backlinks, err := encodeList(doc.Backlinks)
	if err != nil {
		return err
	}
	embeds, err := encodeList(doc.Embeds)
	if err != nil {
		return err
	}
	props := doc.Properties
	if props == nil {
		props = map[string]any{}
	}
	properties, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("store: encode properties of %s: %w", doc.Path, err)
	}

	query, args := builder().Insert(schema.Table).
		Columns(schema.Documents().Columns()...).
		Values(doc.Path, doc.Folder, doc.Name, doc.Ext, doc.Size, doc.Ctime, doc.Mtime,
			doc.Content, tags, links, backlinks, embeds, string(properties)).
		OnConflict(entsql.ConflictColumns("path"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("store: upsert %s: %w", doc.Path, err)
	}
	return nil
}

// Get returns the document stored at path.
func (s *Store) Get(ctx context.Context, path string) (*Document, error) {
	query, args := builder().Select(schema.Documents().Columns()...).
		From(entsql.Table(schema.Table)).
		Where(entsql.EQ("path", path)).
		Query()

	var (
		doc                                   Document
		tags, links, backlinks, embeds, props sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&doc.Path, &doc.Folder, &doc.Name, &doc.Ext, &doc.Size, &doc.Ctime, &doc.Mtime,
		&doc.Content, &tags, &links, &backlinks, &embeds, &props)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", path, err)
	}

	for _, f := range []struct {
		src sql.NullString
		dst *[]string
	}{{tags, &doc.Tags}, {links, &doc.Links}, {backlinks, &doc.Backlinks}, {embeds, &doc.Embeds}} {
		if *f.dst, err = decodeList(f.src); err != nil {
			return nil, fmt.Errorf("store: get %s: %w", path, err)
		}
	}
	doc.Properties = map[string]any{}
	if props.Valid && props.String != "" {
		if err := json.Unmarshal([]byte(props.String), &doc.Properties); err != nil {
			return nil, fmt.Errorf("store: get %s: properties: %w", path, err)
		}
	}
	return &doc, nil
}

// Mtime returns the stored modification time of path, or ErrNotFound.
func (s *Store) Mtime(ctx context.Context, path string) (int64, error) {
	query, args := builder().Select("mtime").
		From(entsql.Table(schema.Table)).
		Where(entsql.EQ("path", path)).
		Query()

	var mtime int64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&mtime)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("store: mtime %s: %w", path, err)
	}
	return mtime, nil
}

// Links returns the outgoing link targets of every document keyed by path.
func (s *Store) Links(ctx context.Context) (map[string][]string, error) {
	query, args := builder().Select("path", "links").
		From(entsql.Table(schema.Table)).
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: links: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var (
			path string
			raw  sql.NullString
		)
		if err := rows.Scan(&path, &raw); err != nil {
			return nil, fmt.Errorf("store: links: %w", err)
		}
		links, err := decodeList(raw)
		if err != nil {
			return nil, fmt.Errorf("store: links of %s: %w", path, err)
		}
		out[path] = links
	}
	return out, rows.Err()
}

// SetBacklinks replaces the backlinks of the document at path.
func (s *Store) SetBacklinks(ctx context.Context, path string, backlinks []string) error {
	encoded, err := encodeList(backlinks)
	if err != nil {
		return err
	}
	query, args := builder().Update(schema.Table).
		Set("backlinks", encoded).
		Where(entsql.EQ("path", path)).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("store: set backlinks of %s: %w", path, err)
	}
	return nil
}

// Delete removes the document at path. Deleting a missing path is not an
// error.
func (s *Store) Delete(ctx context.Context, path string) error {
	query, args := builder().Delete(schema.Table).
		Where(entsql.EQ("path", path)).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("store: delete %s: %w", path, err)
	}
	return nil
}

// Paths returns every stored path in sorted order.
func (s *Store) Paths(ctx context.Context) ([]string, error) {
	query, args := builder().Select("path").
		From(entsql.Table(schema.Table)).
		OrderBy("path").
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("store: paths: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	query, args := builder().Select(entsql.Count("*")).
		From(entsql.Table(schema.Table)).
		Query()

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

// Query runs a compiled SELECT and returns every row as text. A positive
// limit is appended as LIMIT. NULL values become empty strings; sequence
// columns come back as their JSON text.
func (s *Store) Query(ctx context.Context, query string, limit int) ([][]string, error) {
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}

	var out [][]string
	for rows.Next() {
		cells := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("store: query: %w", err)
		}
		row := make([]string, len(cols))
		for i, c := range cells {
			row[i] = c.String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	return out, nil
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("store: encode list: %w", err)
	}
	return string(data), nil
}

func decodeList(raw sql.NullString) ([]string, error) {
	out := []string{}
	if !raw.Valid || raw.String == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw.String), &out); err != nil {
		return nil, err
	}
	return out, nil
}
