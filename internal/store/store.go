package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	pferrors "github.com/pdffind/pdffind/internal/errors"
)

// Store is the document store. It owns a single SQLite connection; all
// operations serialize through an internal mutex, matching the one-writer
// model SQLite performs best with.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	opts   Options
	closed bool
}

// validateIntegrity checks a SQLite index file before opening.
// Returns nil if valid or absent, an error describing corruption if not.
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil // Database doesn't exist, will be created
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// New opens (or creates) the document store at path.
// An empty path creates an in-memory store for testing.
func New(path string, opts Options) (*Store, error) {
	if opts.MaxResults <= 0 {
		opts = DefaultOptions()
	}

	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}

		if validErr := validateIntegrity(path); validErr != nil {
			slog.Warn("store_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))

			// Auto-clear the corrupted index; it can always be rebuilt
			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, pferrors.New(pferrors.ErrCodeStoreCorrupt,
					fmt.Sprintf("index corrupted at %s and cannot remove: %v (original error: %v)",
						path, removeErr, validErr), validErr)
			}
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")

			slog.Info("store_cleared",
				slog.String("path", path),
				slog.String("reason", "corruption detected, please reindex"))
		}

		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, pferrors.StoreError("failed to open database", err)
	}

	// Single connection: SQLite has one writer, and the FTS triggers must
	// observe every mutation on the same connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL must be set via PRAGMA for modernc.org/sqlite; DSN params can be
	// ignored. recursive_triggers is required so that the FTS delete trigger
	// fires for the implicit delete inside INSERT OR REPLACE.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -65536",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA recursive_triggers = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, pferrors.StoreError("failed to set pragma", err)
		}
	}

	s := &Store{
		db:   db,
		path: path,
		opts: opts,
	}

	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, pferrors.StoreError("failed to initialize schema", err)
	}

	return s, nil
}

// initSchema creates the document table, the FTS5 index, the sync triggers,
// and the folder bookkeeping table.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS indexed_folders (
		path TEXT PRIMARY KEY NOT NULL,
		last_indexed INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pdfs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT UNIQUE NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		size INTEGER NOT NULL,
		modified INTEGER NOT NULL,
		pages INTEGER,
		folder_path TEXT DEFAULT ''
	);

	-- External-content FTS5 table: postings only, row data stays in pdfs.
	-- path is stored but not searchable.
	CREATE VIRTUAL TABLE IF NOT EXISTS pdfs_fts USING fts5(
		path UNINDEXED,
		title,
		content,
		content=pdfs,
		content_rowid=id,
		tokenize='porter unicode61 remove_diacritics 1'
	);

	-- Triggers keep the inverted index consistent with every document
	-- mutation inside the same transaction.
	CREATE TRIGGER IF NOT EXISTS pdfs_ai AFTER INSERT ON pdfs BEGIN
		INSERT INTO pdfs_fts(rowid, path, title, content)
		VALUES (new.id, new.path, new.title, new.content);
	END;

	CREATE TRIGGER IF NOT EXISTS pdfs_ad AFTER DELETE ON pdfs BEGIN
		INSERT INTO pdfs_fts(pdfs_fts, rowid, path, title, content)
		VALUES ('delete', old.id, old.path, old.title, old.content);
	END;

	CREATE TRIGGER IF NOT EXISTS pdfs_au AFTER UPDATE ON pdfs BEGIN
		INSERT INTO pdfs_fts(pdfs_fts, rowid, path, title, content)
		VALUES ('delete', old.id, old.path, old.title, old.content);
		INSERT INTO pdfs_fts(rowid, path, title, content)
		VALUES (new.id, new.path, new.title, new.content);
	END;

	CREATE INDEX IF NOT EXISTS idx_pdfs_modified ON pdfs(modified);
	CREATE INDEX IF NOT EXISTS idx_pdfs_size ON pdfs(size);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Databases created before folder bookkeeping lack the column; the
	// duplicate-column error on fresh databases is expected and ignored.
	_, _ = s.db.Exec(`ALTER TABLE pdfs ADD COLUMN folder_path TEXT DEFAULT ''`)
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_pdfs_folder_path ON pdfs(folder_path)`); err != nil {
		return err
	}

	// Best effort: merge FTS segments and refresh planner statistics.
	_, _ = s.db.Exec(`INSERT INTO pdfs_fts(pdfs_fts) VALUES('optimize')`)
	_, _ = s.db.Exec(`ANALYZE`)
	return nil
}

const upsertSQL = `
	INSERT OR REPLACE INTO pdfs (path, title, content, size, modified, pages, folder_path)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

// Insert upserts a single document, keyed by path. The inverted index is
// updated by trigger within the same statement.
func (s *Store) Insert(ctx context.Context, doc *Document, folderPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return pferrors.StoreError("store is closed", nil)
	}

	_, err := s.db.ExecContext(ctx, upsertSQL,
		doc.Path, doc.Title, doc.Content, doc.Size, doc.Modified, doc.Pages, folderPath)
	if err != nil {
		return pferrors.New(pferrors.ErrCodeStoreWrite,
			fmt.Sprintf("failed to upsert %s", doc.Path), err)
	}
	return nil
}

// BatchInsert upserts documents as one atomic transaction. Semantics match
// repeated Insert calls; the transaction amortizes write overhead and
// guarantees all-or-nothing commit.
func (s *Store) BatchInsert(ctx context.Context, docs []*Document, folderPath string) error {
	if len(docs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return pferrors.StoreError("store is closed", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return pferrors.StoreError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return pferrors.StoreError("failed to prepare upsert", err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		if _, err := stmt.ExecContext(ctx,
			doc.Path, doc.Title, doc.Content, doc.Size, doc.Modified, doc.Pages, folderPath); err != nil {
			return pferrors.New(pferrors.ErrCodeStoreWrite,
				fmt.Sprintf("failed to upsert %s", doc.Path), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return pferrors.New(pferrors.ErrCodeStoreWrite, "failed to commit batch", err)
	}
	return nil
}

// KnownFiles returns the store's snapshot of a folder: path -> (modified, size).
func (s *Store) KnownFiles(ctx context.Context, folderPath string) (map[string]FileMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, pferrors.StoreError("store is closed", nil)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT path, modified, size FROM pdfs WHERE folder_path = ?`, folderPath)
	if err != nil {
		return nil, pferrors.StoreError("failed to query known files", err)
	}
	defer rows.Close()

	known := make(map[string]FileMeta)
	for rows.Next() {
		var path string
		var meta FileMeta
		if err := rows.Scan(&path, &meta.Modified, &meta.Size); err != nil {
			// Undecodable row: degrade, don't abort the read.
			slog.Warn("known_files_row_skipped", slog.String("error", err.Error()))
			continue
		}
		known[path] = meta
	}
	return known, rows.Err()
}

// RemoveByPath deletes a single document. The index entry is removed by trigger.
func (s *Store) RemoveByPath(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return pferrors.StoreError("store is closed", nil)
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM pdfs WHERE path = ?`, path)
	if err != nil {
		return pferrors.New(pferrors.ErrCodeStoreWrite,
			fmt.Sprintf("failed to remove %s", path), err)
	}
	return nil
}

// RemovePdfsForFolder deletes all documents belonging to a folder, keeping
// the folder record itself.
func (s *Store) RemovePdfsForFolder(ctx context.Context, folderPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return pferrors.StoreError("store is closed", nil)
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM pdfs WHERE folder_path = ?`, folderPath)
	if err != nil {
		return pferrors.New(pferrors.ErrCodeStoreWrite, "failed to remove folder documents", err)
	}
	return nil
}

// RemoveFolder deletes a tracked folder and cascades to its documents.
func (s *Store) RemoveFolder(ctx context.Context, folderPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return pferrors.StoreError("store is closed", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return pferrors.StoreError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pdfs WHERE folder_path = ?`, folderPath); err != nil {
		return pferrors.New(pferrors.ErrCodeStoreWrite, "failed to remove folder documents", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM indexed_folders WHERE path = ?`, folderPath); err != nil {
		return pferrors.New(pferrors.ErrCodeStoreWrite, "failed to remove folder record", err)
	}
	return tx.Commit()
}

// Clear removes every document. Folder records are kept.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return pferrors.StoreError("store is closed", nil)
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM pdfs`)
	if err != nil {
		return pferrors.New(pferrors.ErrCodeStoreWrite, "failed to clear documents", err)
	}
	return nil
}

// RecordFolderIndexed upserts the folder's last-indexed timestamp.
func (s *Store) RecordFolderIndexed(ctx context.Context, folderPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return pferrors.StoreError("store is closed", nil)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO indexed_folders (path, last_indexed) VALUES (?, ?)`,
		folderPath, time.Now().Unix())
	if err != nil {
		return pferrors.New(pferrors.ErrCodeStoreWrite, "failed to record folder", err)
	}
	return nil
}

// IndexedFolders lists tracked folders, most recently indexed first, each
// annotated with its live document count.
func (s *Store) IndexedFolders(ctx context.Context) ([]IndexedFolder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, pferrors.StoreError("store is closed", nil)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT f.path, f.last_indexed, COUNT(p.id) as pdf_count
		FROM indexed_folders f
		LEFT JOIN pdfs p ON p.folder_path = f.path
		GROUP BY f.path
		ORDER BY f.last_indexed DESC`)
	if err != nil {
		return nil, pferrors.StoreError("failed to list folders", err)
	}
	defer rows.Close()

	var folders []IndexedFolder
	for rows.Next() {
		var f IndexedFolder
		if err := rows.Scan(&f.Path, &f.LastIndexed, &f.PdfCount); err != nil {
			slog.Warn("folder_row_skipped", slog.String("error", err.Error()))
			continue
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// Count returns the number of indexed documents.
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, pferrors.StoreError("store is closed", nil)
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pdfs`).Scan(&count); err != nil {
		return 0, pferrors.StoreError("failed to count documents", err)
	}
	return count, nil
}

// Search runs an FTS5 boolean query against title and content, constrained
// by filters, ranked best match first by bm25(). Each result carries a
// highlighted snippet from the content field.
//
// The query is expected to already be normalized (see internal/query).
func (s *Store) Search(ctx context.Context, query string, filters SearchFilters) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, pferrors.StoreError("store is closed", nil)
	}

	if strings.TrimSpace(query) == "" {
		return []SearchResult{}, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`
		SELECT p.path, p.title, p.size, p.modified, p.pages,
		       snippet(pdfs_fts, 2, ?, ?, ?, %d) as snippet
		FROM pdfs p
		INNER JOIN pdfs_fts ON p.id = pdfs_fts.rowid
		WHERE pdfs_fts MATCH ?`, s.opts.SnippetTokens))

	args := []any{s.opts.HighlightStart, s.opts.HighlightEnd, s.opts.Ellipsis, query}

	if filters.MinSize > 0 {
		sb.WriteString(" AND p.size >= ?")
		args = append(args, filters.MinSize)
	}
	if filters.MaxSize > 0 {
		sb.WriteString(" AND p.size <= ?")
		args = append(args, filters.MaxSize)
	}
	if filters.DateFrom != "" {
		if ts, err := parseDate(filters.DateFrom); err == nil {
			sb.WriteString(" AND p.modified >= ?")
			args = append(args, ts)
		}
	}
	if filters.DateTo != "" {
		if ts, err := parseDate(filters.DateTo); err == nil {
			// Push to end of day so the bound is inclusive.
			sb.WriteString(" AND p.modified <= ?")
			args = append(args, ts+86400)
		}
	}

	sb.WriteString(fmt.Sprintf(" ORDER BY bm25(pdfs_fts) LIMIT %d", s.opts.MaxResults))

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		// FTS5 rejects malformed match expressions; treat as no results
		// rather than surfacing a syntax error for a user-typed query.
		if strings.Contains(err.Error(), "fts5") || strings.Contains(err.Error(), "syntax error") {
			return []SearchResult{}, nil
		}
		return nil, pferrors.StoreError("search failed", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var pages sql.NullInt64
		var snippet sql.NullString
		if err := rows.Scan(&r.Path, &r.Title, &r.Size, &r.Modified, &pages, &snippet); err != nil {
			slog.Warn("search_row_skipped", slog.String("error", err.Error()))
			continue
		}
		if pages.Valid {
			p := int(pages.Int64)
			r.Pages = &p
		}
		r.Snippet = snippet.String
		results = append(results, r)
	}
	return results, rows.Err()
}

// Close closes the store. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	if s.db != nil {
		// Checkpoint before close to ensure durability
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		return s.db.Close()
	}
	return nil
}

// parseDate parses "YYYY-MM-DD" into a UTC midnight unix timestamp.
func parseDate(s string) (int64, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}
