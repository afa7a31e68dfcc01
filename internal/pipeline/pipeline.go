// Package pipeline walks folder trees, diffs them against the document
// store, extracts changed files in parallel, and commits the results.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	pferrors "github.com/pdffind/pdffind/internal/errors"
	"github.com/pdffind/pdffind/internal/extract"
	"github.com/pdffind/pdffind/internal/store"
)

// pdfExt is the supported document extension, matched case-insensitively.
const pdfExt = ".pdf"

// DocumentStore is the subset of the store the pipeline depends on.
type DocumentStore interface {
	KnownFiles(ctx context.Context, folderPath string) (map[string]store.FileMeta, error)
	BatchInsert(ctx context.Context, docs []*store.Document, folderPath string) error
	RemoveByPath(ctx context.Context, path string) error
	RemovePdfsForFolder(ctx context.Context, folderPath string) error
	RecordFolderIndexed(ctx context.Context, folderPath string) error
}

// FileError records one per-file failure within a run.
type FileError struct {
	Path   string
	Reason string
}

// Result is the outcome of one folder-indexing run.
type Result struct {
	// Processed is the number of documents newly processed this run,
	// not the total documents in the folder.
	Processed int

	// Removed is the number of stale entries deleted from the store.
	Removed int

	// Failures are per-file extraction problems. They never fail the run;
	// each failed file is still committed with empty content.
	Failures []FileError

	Duration time.Duration
}

// Pipeline executes folder-indexing runs. It holds only transient state
// during a run; the store owns everything persistent. Serializing
// concurrent runs over the same folder is the caller's responsibility.
type Pipeline struct {
	store   DocumentStore
	adapter *extract.Adapter
	workers int
}

// New creates a Pipeline. A non-positive worker count defaults to NumCPU.
func New(st DocumentStore, adapter *extract.Adapter, workers int) *Pipeline {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pipeline{store: st, adapter: adapter, workers: workers}
}

// candidate is one discovered file with the metadata used for diffing.
type candidate struct {
	path     string
	size     int64
	modified int64
}

// Run indexes folderPath: Discover, Diff, Extract (parallel), Commit,
// Finalize. Per-file failures are collected, not fatal; only a run-level
// error (unreadable root, unreachable store) fails the run, and then
// nothing is committed.
func (p *Pipeline) Run(ctx context.Context, folderPath string) (*Result, error) {
	return p.run(ctx, folderPath, false)
}

// RunFull drops the folder's documents first so every file on disk is
// reprocessed, bypassing the incremental diff. Recovery path for an index
// that has drifted from disk (clock skew, interrupted runs).
func (p *Pipeline) RunFull(ctx context.Context, folderPath string) (*Result, error) {
	return p.run(ctx, folderPath, true)
}

func (p *Pipeline) run(ctx context.Context, folderPath string, full bool) (*Result, error) {
	start := time.Now()

	absFolder, err := filepath.Abs(folderPath)
	if err != nil {
		return nil, pferrors.New(pferrors.ErrCodeFolderUnreadable,
			fmt.Sprintf("cannot resolve folder %s", folderPath), err)
	}

	slog.Info("index_started", slog.String("folder", absFolder), slog.Bool("full", full))

	if full {
		if err := p.store.RemovePdfsForFolder(ctx, absFolder); err != nil {
			return nil, err
		}
	}

	// Discover
	candidates, err := p.discover(ctx, absFolder)
	if err != nil {
		return nil, err
	}
	slog.Info("index_discover_complete",
		slog.String("folder", absFolder),
		slog.Int("files", len(candidates)))

	// Diff
	known, err := p.store.KnownFiles(ctx, absFolder)
	if err != nil {
		return nil, err
	}
	toProcess, toRemove := diff(candidates, known)
	slog.Info("index_diff_complete",
		slog.Int("changed", len(toProcess)),
		slog.Int("stale", len(toRemove)),
		slog.Int("unchanged", len(candidates)-len(toProcess)))

	// Extract (parallel, full barrier before commit)
	docs, failures := p.extractAll(ctx, toProcess)

	// Commit: one atomic batch for upserts, best-effort per-path removals.
	if err := p.store.BatchInsert(ctx, docs, absFolder); err != nil {
		return nil, err
	}
	removed := 0
	for _, path := range toRemove {
		if err := p.store.RemoveByPath(ctx, path); err != nil {
			slog.Warn("index_remove_failed",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}
		removed++
	}

	// Finalize: the folder is recorded even for zero-change runs.
	if err := p.store.RecordFolderIndexed(ctx, absFolder); err != nil {
		return nil, err
	}

	result := &Result{
		Processed: len(docs),
		Removed:   removed,
		Failures:  failures,
		Duration:  time.Since(start),
	}

	slog.Info("index_complete",
		slog.String("folder", absFolder),
		slog.Int("processed", result.Processed),
		slog.Int("removed", result.Removed),
		slog.Int("failures", len(result.Failures)),
		slog.Int64("duration_ms", result.Duration.Milliseconds()))

	return result, nil
}

// discover walks the folder recursively, following symbolic links, and
// collects every regular file with the supported extension. Unreadable
// subtrees are skipped; only an unreadable root fails discovery.
func (p *Pipeline) discover(ctx context.Context, root string) ([]candidate, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, pferrors.New(pferrors.ErrCodeFolderUnreadable,
			fmt.Sprintf("cannot read folder %s", root), err)
	}
	if !info.IsDir() {
		return nil, pferrors.New(pferrors.ErrCodeFolderUnreadable,
			fmt.Sprintf("%s is not a directory", root), nil)
	}

	var out []candidate
	// visited guards against symlink cycles, keyed by resolved path.
	visited := make(map[string]struct{})

	var walk func(dir string) error
	walk = func(dir string) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		resolved, err := filepath.EvalSymlinks(dir)
		if err != nil {
			slog.Warn("index_subtree_skipped", slog.String("dir", dir), slog.String("error", err.Error()))
			return nil
		}
		if _, ok := visited[resolved]; ok {
			return nil
		}
		visited[resolved] = struct{}{}

		entries, err := os.ReadDir(dir)
		if err != nil {
			slog.Warn("index_subtree_skipped", slog.String("dir", dir), slog.String("error", err.Error()))
			return nil
		}

		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())

			// Stat follows symlinks, so linked files and directories are
			// classified by their targets.
			info, err := os.Stat(path)
			if err != nil {
				slog.Warn("index_entry_skipped", slog.String("path", path), slog.String("error", err.Error()))
				continue
			}

			if info.IsDir() {
				if err := walk(path); err != nil {
					return err
				}
				continue
			}

			if !info.Mode().IsRegular() {
				continue
			}
			if !strings.EqualFold(filepath.Ext(entry.Name()), pdfExt) {
				continue
			}

			out = append(out, candidate{
				path:     path,
				size:     info.Size(),
				modified: info.ModTime().Unix(),
			})
		}
		return nil
	}

	if err := walk(root); err != nil {
		return nil, err
	}
	return out, nil
}

// diff splits discovered files into those needing (re)processing and
// returns the stale store paths scheduled for removal. A file needs
// processing iff it is absent from the snapshot or its size or modified
// time differs.
func diff(candidates []candidate, known map[string]store.FileMeta) (toProcess []candidate, toRemove []string) {
	onDisk := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		onDisk[c.path] = struct{}{}
		meta, ok := known[c.path]
		if !ok || meta.Size != c.size || meta.Modified != c.modified {
			toProcess = append(toProcess, c)
		}
	}
	for path := range known {
		if _, ok := onDisk[path]; !ok {
			toRemove = append(toRemove, path)
		}
	}
	return toProcess, toRemove
}

// extractAll runs the adapter over the changed files with a bounded worker
// pool. Tasks share nothing; results land in mutex-guarded accumulators
// read only after every task has returned. A failed file still yields a
// document with empty content so its metadata is indexed.
func (p *Pipeline) extractAll(ctx context.Context, toProcess []candidate) ([]*store.Document, []FileError) {
	var (
		mu       sync.Mutex
		docs     []*store.Document
		failures []FileError
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for _, c := range toProcess {
		g.Go(func() error {
			res := p.adapter.Extract(ctx, c.path, c.size)

			pages := res.Pages
			doc := &store.Document{
				Path:     c.path,
				Title:    titleFromPath(c.path),
				Content:  res.Text,
				Size:     c.size,
				Modified: c.modified,
				Pages:    &pages,
			}

			slog.Debug("file_extracted",
				slog.String("path", c.path),
				slog.Int("chars", len(res.Text)),
				slog.Int("pages", res.Pages))

			mu.Lock()
			defer mu.Unlock()
			docs = append(docs, doc)
			if res.Warning != nil {
				failures = append(failures, FileError{Path: c.path, Reason: res.Warning.Error()})
			}
			return nil
		})
	}

	// Full barrier: commit never starts before every task has finished.
	_ = g.Wait()

	return docs, failures
}

// titleFromPath derives the document title from the filename stem.
func titleFromPath(path string) string {
	base := filepath.Base(path)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	if title == "" {
		return "Untitled"
	}
	return title
}
