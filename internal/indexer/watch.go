package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch re-indexes files under dir as they change until ctx is cancelled.
// Changes are collected until no event has arrived for the debounce
// interval, then applied as one batch followed by a backlink rebuild.
// New directories are watched as they appear.
func (ix *Indexer) Watch(ctx context.Context, dir string, opts Options) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("indexer: watch: %w", err)
	}
	defer w.Close()

	if err := watchTree(w, dir); err != nil {
		return fmt.Errorf("indexer: watch %s: %w", dir, err)
	}
	log.Printf("indexer: watching %s", dir)

	exts := opts.extensions()
	pending := make(map[string]struct{})
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	queue := func(path string) {
		pending[path] = struct{}{}
		timer.Reset(opts.debounce())
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.Events:
			if !ok {
				return nil
			}
			if evt.Op == fsnotify.Chmod {
				continue
			}
			if evt.Has(fsnotify.Create) {
				if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
					if isHidden(filepath.Base(evt.Name)) {
						continue
					}
					if err := watchTree(w, evt.Name); err != nil {
						log.Printf("indexer: watch %s: %v", evt.Name, err)
					}
					for _, p := range filesUnder(evt.Name, exts) {
						queue(p)
					}
					continue
				}
			}
			if Matches(evt.Name, exts) {
				queue(evt.Name)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("indexer: watcher error: %v", err)

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			slices.Sort(paths)
			ix.apply(ctx, paths, opts)
		}
	}
}

// apply indexes or removes each changed path, then rebuilds backlinks.
// Failures are logged so one bad file does not stop the watcher.
func (ix *Indexer) apply(ctx context.Context, paths []string, opts Options) {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			if err := ix.remove(ctx, p); err != nil {
				log.Printf("indexer: remove %s: %v", p, err)
			}
			continue
		}
		doc, err := ix.indexFile(ctx, p, true)
		if err != nil {
			log.Printf("indexer: %v", err)
			continue
		}
		if doc != nil && opts.Verbose && opts.Output != nil {
			fmt.Fprintf(opts.Output, "Indexed: %s\n", doc.Path)
		}
	}
	if err := ix.RebuildBacklinks(ctx); err != nil {
		log.Printf("indexer: backlinks: %v", err)
	}
}

// watchTree adds root and every non-hidden directory below it.
func watchTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

func filesUnder(root string, exts []string) []string {
	var out []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if Matches(path, exts) {
			out = append(out, path)
		}
		return nil
	})
	return out
}
