// Package watcher keeps registered folders fresh by reindexing them when
// their contents change on disk.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pdffind/pdffind/internal/pipeline"
)

// Reindexer triggers an incremental indexing run over one folder.
type Reindexer interface {
	IndexFolder(ctx context.Context, folderPath string) (*pipeline.Result, error)
}

// Watcher maps filesystem events under registered roots to debounced
// reindex runs. The incremental pipeline makes each run cheap: unchanged
// files are diffed away, so the watcher only pays for what actually moved.
type Watcher struct {
	reindex  Reindexer
	debounce *Debouncer
	fsw      *fsnotify.Watcher

	mu    sync.Mutex
	roots []string
}

// New creates a Watcher that calls reindex after events settle for the
// given debounce window.
func New(reindex Reindexer, window time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fs watcher: %w", err)
	}
	return &Watcher{
		reindex:  reindex,
		debounce: NewDebouncer(window),
		fsw:      fsw,
	}, nil
}

// AddFolder registers root and watches it recursively. Subtrees that fail
// to register are logged and skipped so a single unreadable directory does
// not block the rest of the tree.
func (w *Watcher) AddFolder(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	if err := w.watchTree(abs); err != nil {
		return err
	}

	w.mu.Lock()
	w.roots = append(w.roots, abs)
	w.mu.Unlock()

	slog.Info("watch_folder_added", slog.String("folder", abs))
	return nil
}

// watchTree adds watches for dir and every subdirectory.
func (w *Watcher) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("cannot watch %s: %w", dir, err)
			}
			slog.Warn("watch_subtree_skipped", slog.String("dir", path), slog.String("error", err.Error()))
			return fs.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			slog.Warn("watch_add_failed", slog.String("dir", path), slog.String("error", err.Error()))
			return fs.SkipDir
		}
		return nil
	})
}

// Run processes events until ctx is cancelled. Reindex runs execute on
// this goroutine, one folder at a time; events arriving meanwhile queue in
// the debouncer for the next batch.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch_error", slog.String("error", err.Error()))

		case roots, ok := <-w.debounce.Output():
			if !ok {
				return nil
			}
			for _, root := range roots {
				if _, err := w.reindex.IndexFolder(ctx, root); err != nil {
					slog.Warn("watch_reindex_failed",
						slog.String("folder", root),
						slog.String("error", err.Error()))
				}
			}
		}
	}
}

// handleEvent classifies one raw event. New directories are watched
// immediately so files created inside them are seen; document events mark
// their owning root dirty.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watchTree(event.Name); err != nil {
				slog.Warn("watch_add_failed", slog.String("dir", event.Name), slog.String("error", err.Error()))
			}
			// A moved-in directory may already contain documents.
			if root, ok := w.rootFor(event.Name); ok {
				w.debounce.Add(root)
			}
			return
		}
	}

	if !strings.EqualFold(filepath.Ext(event.Name), ".pdf") {
		return
	}
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return
	}

	root, ok := w.rootFor(event.Name)
	if !ok {
		return
	}

	slog.Debug("watch_event",
		slog.String("path", event.Name),
		slog.String("op", event.Op.String()),
		slog.String("folder", root))
	w.debounce.Add(root)
}

// rootFor returns the registered root containing path. With nested roots
// the deepest match wins so the cheapest reindex runs.
func (w *Watcher) rootFor(path string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	best := ""
	for _, root := range w.roots {
		if path != root && !strings.HasPrefix(path, root+string(filepath.Separator)) {
			continue
		}
		if len(root) > len(best) {
			best = root
		}
	}
	return best, best != ""
}

// Close releases the watcher's resources. Safe to call multiple times.
func (w *Watcher) Close() error {
	w.debounce.Stop()
	return w.fsw.Close()
}
