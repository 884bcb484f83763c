// Package indexer scans directories of markdown files into the document
// store and keeps backlinks consistent.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/matthewbaird/mdb/internal/event"
	"github.com/matthewbaird/mdb/internal/extract"
	"github.com/matthewbaird/mdb/internal/store"
)

// DefaultExtensions are the file extensions indexed when none are given.
var DefaultExtensions = []string{".md"}

// Store is the subset of the document store the indexer writes to.
type Store interface {
	Upsert(ctx context.Context, doc *store.Document) error
	Mtime(ctx context.Context, path string) (int64, error)
	Links(ctx context.Context) (map[string][]string, error)
	SetBacklinks(ctx context.Context, path string, backlinks []string) error
	Delete(ctx context.Context, path string) error
	Paths(ctx context.Context) ([]string, error)
}

// Options control a scan.
type Options struct {
	Force      bool          // re-index files even when unchanged
	Verbose    bool          // print each indexed path to Output
	Prune      bool          // delete stored documents whose file is gone
	Extensions []string      // defaults to DefaultExtensions
	Output     io.Writer     // destination of verbose lines, nil for none
	Debounce   time.Duration // watch mode settle time, defaults to 250ms
}

func (o Options) extensions() []string {
	if len(o.Extensions) == 0 {
		return DefaultExtensions
	}
	return o.Extensions
}

func (o Options) debounce() time.Duration {
	if o.Debounce <= 0 {
		return 250 * time.Millisecond
	}
	return o.Debounce
}

// Stats summarises one scan.
type Stats struct {
	Scanned int   `json:"scanned"`
	Indexed int   `json:"indexed"`
	Skipped int   `json:"skipped"`
	Removed int   `json:"removed"`
	Bytes   int64 `json:"bytes"`
}

// Indexer writes extracted documents to a Store.
type Indexer struct {
	store Store
	bus   event.Publisher
}

// New creates an Indexer. A nil publisher discards events.
func New(s Store, pub event.Publisher) *Indexer {
	if pub == nil {
		pub = event.Discard
	}
	return &Indexer{store: s, bus: pub}
}

// Index walks dir, indexing every matching file that is new or modified
// since it was last stored, then recomputes backlinks for the whole store.
// Hidden directories are not entered.
func (ix *Indexer) Index(ctx context.Context, dir string, opts Options) (Stats, error) {
	start := time.Now()
	exts := opts.extensions()

	var stats Stats
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("indexer: %s: %v", path, err)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !Matches(path, exts) {
			return nil
		}

		stats.Scanned++
		doc, err := ix.indexFile(ctx, path, opts.Force)
		if err != nil {
			return err
		}
		if doc == nil {
			stats.Skipped++
			return nil
		}
		stats.Indexed++
		stats.Bytes += doc.Size
		if opts.Verbose && opts.Output != nil {
			fmt.Fprintf(opts.Output, "Indexed: %s\n", doc.Path)
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("indexer: walk %s: %w", dir, err)
	}

	if opts.Prune {
		removed, err := ix.prune(ctx)
		if err != nil {
			return stats, err
		}
		stats.Removed = removed
	}

	if err := ix.RebuildBacklinks(ctx); err != nil {
		return stats, err
	}

	ix.bus.Publish(event.NewIndexCompleted(event.IndexCompletedPayload{
		Dir:      dir,
		Scanned:  stats.Scanned,
		Indexed:  stats.Indexed,
		Skipped:  stats.Skipped,
		Duration: time.Since(start),
	}))
	return stats, nil
}

// IndexFiles indexes the given files regardless of their stored mtime,
// then rebuilds backlinks once. Paths that are not regular files are
// skipped.
func (ix *Indexer) IndexFiles(ctx context.Context, paths ...string) ([]*store.Document, error) {
	var docs []*store.Document
	for _, p := range paths {
		doc, err := ix.indexFile(ctx, p, true)
		if err != nil {
			return docs, err
		}
		if doc != nil {
			docs = append(docs, doc)
		}
	}
	if err := ix.RebuildBacklinks(ctx); err != nil {
		return docs, err
	}
	return docs, nil
}

// indexFile stores path and returns the written document, or nil when the
// file is unchanged and force is false.
func (ix *Indexer) indexFile(ctx context.Context, path string, force bool) (*store.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("indexer: stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, nil
	}
	mtime := info.ModTime().Unix()

	if !force {
		stored, err := ix.store.Mtime(ctx, path)
		switch {
		case err == nil && mtime <= stored:
			return nil, nil
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("indexer: read %s: %w", path, err)
	}
	res := extract.Extract(string(data))

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	doc := &store.Document{
		Path:       path,
		Folder:     filepath.Dir(path),
		Name:       strings.TrimSuffix(base, ext),
		Ext:        strings.TrimPrefix(ext, "."),
		Size:       info.Size(),
		Ctime:      ctime(path, info),
		Mtime:      mtime,
		Content:    res.Content,
		Tags:       res.Tags,
		Links:      res.Links,
		Backlinks:  []string{},
		Embeds:     res.Embeds,
		Properties: res.Properties,
	}
	if err := ix.store.Upsert(ctx, doc); err != nil {
		return nil, err
	}

	ix.bus.Publish(event.NewDocumentIndexed(event.DocumentIndexedPayload{
		Path:   doc.Path,
		Name:   doc.Name,
		Size:   doc.Size,
		Mtime:  doc.Mtime,
		Tags:   len(doc.Tags),
		Links:  len(doc.Links),
		Embeds: len(doc.Embeds),
	}))
	return doc, nil
}

// Remove deletes the document at path and updates backlinks.
func (ix *Indexer) Remove(ctx context.Context, path string) error {
	if err := ix.remove(ctx, path); err != nil {
		return err
	}
	return ix.RebuildBacklinks(ctx)
}

func (ix *Indexer) remove(ctx context.Context, path string) error {
	if err := ix.store.Delete(ctx, path); err != nil {
		return err
	}
	ix.bus.Publish(event.NewDocumentRemoved(path))
	return nil
}

// prune deletes stored documents whose file no longer exists.
func (ix *Indexer) prune(ctx context.Context) (int, error) {
	paths, err := ix.store.Paths(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, p := range paths {
		if _, err := os.Stat(p); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := ix.remove(ctx, p); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// RebuildBacklinks recomputes the backlinks column of every document from
// the stored links.
func (ix *Indexer) RebuildBacklinks(ctx context.Context) error {
	links, err := ix.store.Links(ctx)
	if err != nil {
		return err
	}
	back := Backlinks(links)

	paths := make([]string, 0, len(links))
	for p := range links {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	for _, p := range paths {
		if err := ix.store.SetBacklinks(ctx, p, back[DocName(p)]); err != nil {
			return err
		}
	}
	return nil
}

// Matches reports whether path has one of the extensions, ignoring case.
func Matches(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
