// Package app wires the store, extraction pipeline, and query layer into
// the operations the CLI and watcher call.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pdffind/pdffind/internal/config"
	"github.com/pdffind/pdffind/internal/extract"
	"github.com/pdffind/pdffind/internal/pipeline"
	"github.com/pdffind/pdffind/internal/query"
	"github.com/pdffind/pdffind/internal/store"
)

// searchCacheSize bounds the number of cached result lists. Entries are
// small (paths, snippets); the cache exists to absorb repeated queries
// between index runs.
const searchCacheSize = 128

// App owns the long-lived components and exposes the user-facing
// operations. Safe for concurrent use.
type App struct {
	cfg      *config.Config
	store    *store.Store
	pipeline *pipeline.Pipeline
	cache    *lru.Cache[string, []store.SearchResult]
}

// New opens the index database at cfg.DBPath and assembles the pipeline.
func New(cfg *config.Config) (*App, error) {
	return NewWithExtractor(cfg, extract.NewPDFExtractor())
}

// NewWithExtractor is New with a caller-supplied text extractor.
func NewWithExtractor(cfg *config.Config, ext extract.Extractor) (*App, error) {
	st, err := store.New(cfg.DBPath, store.Options{
		HighlightStart: cfg.Search.HighlightStart,
		HighlightEnd:   cfg.Search.HighlightEnd,
		Ellipsis:       cfg.Search.Ellipsis,
		SnippetTokens:  cfg.Search.SnippetTokens,
		MaxResults:     cfg.Search.MaxResults,
	})
	if err != nil {
		return nil, err
	}

	adapter := extract.NewAdapter(ext, cfg.Index.MinFileSize, cfg.Index.MaxFileSize)

	cache, err := lru.New[string, []store.SearchResult](searchCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create search cache: %w", err)
	}

	return &App{
		cfg:      cfg,
		store:    st,
		pipeline: pipeline.New(st, adapter, cfg.Index.Workers),
		cache:    cache,
	}, nil
}

// IndexFolder runs a full indexing pass over folderPath and registers it
// for future incremental runs. Any write invalidates cached searches.
func (a *App) IndexFolder(ctx context.Context, folderPath string) (*pipeline.Result, error) {
	res, err := a.pipeline.Run(ctx, folderPath)
	if err != nil {
		return nil, err
	}
	a.cache.Purge()
	return res, nil
}

// ForceIndexFolder drops folderPath's documents and reprocesses every file
// on disk, skipping the incremental diff.
func (a *App) ForceIndexFolder(ctx context.Context, folderPath string) (*pipeline.Result, error) {
	res, err := a.pipeline.RunFull(ctx, folderPath)
	if err != nil {
		return nil, err
	}
	a.cache.Purge()
	return res, nil
}

// ReindexAll re-runs the pipeline over every registered folder. Folders
// that fail are skipped so one unplugged drive does not block the rest.
func (a *App) ReindexAll(ctx context.Context) error {
	folders, err := a.store.IndexedFolders(ctx)
	if err != nil {
		return err
	}
	for _, f := range folders {
		if _, err := a.IndexFolder(ctx, f.Path); err != nil {
			slog.Warn("reindex_folder_failed",
				slog.String("folder", f.Path),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// Search normalizes raw and executes it against the index. Results are
// cached per normalized query and filter set until the next write.
func (a *App) Search(ctx context.Context, raw string, filters store.SearchFilters) ([]store.SearchResult, error) {
	normalized := query.Normalize(raw)
	if normalized == "" {
		return nil, nil
	}

	key := cacheKey(normalized, filters)
	if results, ok := a.cache.Get(key); ok {
		slog.Debug("search_cache_hit", slog.String("query", normalized))
		return results, nil
	}

	results, err := a.store.Search(ctx, normalized, filters)
	if err != nil {
		return nil, err
	}
	a.cache.Add(key, results)
	return results, nil
}

// IndexedFolders lists the registered folders, most recently indexed first.
func (a *App) IndexedFolders(ctx context.Context) ([]store.IndexedFolder, error) {
	return a.store.IndexedFolders(ctx)
}

// RemoveFolder unregisters folderPath and deletes its documents.
// Folders are registered under their absolute paths.
func (a *App) RemoveFolder(ctx context.Context, folderPath string) error {
	if abs, err := filepath.Abs(folderPath); err == nil {
		folderPath = abs
	}
	if err := a.store.RemoveFolder(ctx, folderPath); err != nil {
		return err
	}
	a.cache.Purge()
	return nil
}

// ClearIndex removes all indexed data.
func (a *App) ClearIndex(ctx context.Context) error {
	if err := a.store.Clear(ctx); err != nil {
		return err
	}
	a.cache.Purge()
	return nil
}

// Stats summarizes the index for display.
type Stats struct {
	Documents int64
	Folders   int
	DBPath    string
	DBSize    int64 // Bytes on disk; 0 when unavailable
}

// Stats reports index-wide counts and the database footprint.
func (a *App) Stats(ctx context.Context) (*Stats, error) {
	count, err := a.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	folders, err := a.store.IndexedFolders(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Documents: count, Folders: len(folders), DBPath: a.cfg.DBPath}
	if info, err := os.Stat(a.cfg.DBPath); err == nil {
		stats.DBSize = info.Size()
	}
	return stats, nil
}

// Config returns the active configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Close releases the store. Idempotent.
func (a *App) Close() error {
	return a.store.Close()
}

// cacheKey derives a cache key from the normalized query and filters.
func cacheKey(normalized string, f store.SearchFilters) string {
	return fmt.Sprintf("%s|%d|%d|%s|%s", normalized, f.MinSize, f.MaxSize, f.DateFrom, f.DateTo)
}
