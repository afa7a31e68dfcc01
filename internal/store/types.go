// Package store persists indexed documents in SQLite and maintains an FTS5
// inverted index over title and content in lockstep with document mutations.
// This is the persistence layer for all indexed data.
package store

// Document represents one indexed PDF file.
type Document struct {
	ID       int64  // Assigned by the store; zero until persisted
	Path     string // Absolute path, unique key
	Title    string // Derived from the filename stem
	Content  string // Extracted, whitespace-normalized text
	Size     int64  // File size in bytes
	Modified int64  // Last-modified time, seconds since epoch
	Pages    *int   // Heuristic page estimate; nil when unknown
}

// SearchResult is a ranked match returned to the caller.
type SearchResult struct {
	Path     string `json:"path"`
	Title    string `json:"title"`
	Size     int64  `json:"size"`
	Modified int64  `json:"modified"`
	Pages    *int   `json:"pages"`
	Snippet  string `json:"snippet"` // Highlighted excerpt; empty if unavailable
}

// SearchFilters are transient query constraints. Zero values mean unset.
type SearchFilters struct {
	MinSize  int64  // Minimum size in bytes (0 = unset)
	MaxSize  int64  // Maximum size in bytes (0 = unset)
	DateFrom string // Inclusive lower bound, "YYYY-MM-DD"
	DateTo   string // Inclusive upper bound, extended to end of day
}

// FileMeta is the store's belief about a file, used for incremental diffing.
type FileMeta struct {
	Modified int64
	Size     int64
}

// IndexedFolder is a tracked root directory.
type IndexedFolder struct {
	Path        string
	LastIndexed int64 // Seconds since epoch
	PdfCount    int64 // Live document count, derived by join
}

// Options configures result generation for a Store.
type Options struct {
	// HighlightStart and HighlightEnd wrap match spans in snippets.
	HighlightStart string
	HighlightEnd   string

	// Ellipsis marks snippet truncation.
	Ellipsis string

	// SnippetTokens is the approximate snippet length in tokens.
	SnippetTokens int

	// MaxResults caps the ranked result list.
	MaxResults int
}

// DefaultOptions returns the default result-generation options.
func DefaultOptions() Options {
	return Options{
		HighlightStart: "<mark>",
		HighlightEnd:   "</mark>",
		Ellipsis:       "...",
		SnippetTokens:  64,
		MaxResults:     100,
	}
}
