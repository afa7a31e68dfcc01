package store

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New("", DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testDoc(path string) *Document {
	pages := 5
	return &Document{
		Path:     path,
		Title:    "Test Document",
		Content:  "This is test content for searching",
		Size:     1024,
		Modified: 1000000,
		Pages:    &pages,
	}
}

func TestStore_InsertAndCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, testDoc("/test/doc1.pdf"), "/test"))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStore_BatchInsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	docs := []*Document{
		testDoc("/test/doc1.pdf"),
		testDoc("/test/doc2.pdf"),
		testDoc("/test/doc3.pdf"),
	}
	require.NoError(t, s.BatchInsert(ctx, docs, "/test"))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestStore_UpsertKeepsPathUnique(t *testing.T) {
	// Given: the same path inserted repeatedly with different content
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		doc := testDoc("/test/doc1.pdf")
		doc.Content = fmt.Sprintf("revision %d of the content", i)
		require.NoError(t, s.Insert(ctx, doc, "/test"))
	}

	// Then: exactly one row exists
	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// And: the inverted index reflects only the latest revision
	results, err := s.Search(ctx, "revision", SearchFilters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Snippet, "4")
}

func TestStore_KnownFiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, testDoc("/test/doc1.pdf"), "/test"))
	require.NoError(t, s.Insert(ctx, testDoc("/test/doc2.pdf"), "/test"))
	require.NoError(t, s.Insert(ctx, testDoc("/other/doc3.pdf"), "/other"))

	known, err := s.KnownFiles(ctx, "/test")
	require.NoError(t, err)

	assert.Len(t, known, 2)
	meta, ok := known["/test/doc1.pdf"]
	require.True(t, ok)
	assert.Equal(t, int64(1000000), meta.Modified)
	assert.Equal(t, int64(1024), meta.Size)
}

func TestStore_RemoveByPath(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, testDoc("/test/doc1.pdf"), "/test"))
	require.NoError(t, s.RemoveByPath(ctx, "/test/doc1.pdf"))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// Index entry is gone too: no stale match
	results, err := s.Search(ctx, "test", SearchFilters{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStore_RemoveFolderCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, testDoc("/test/doc1.pdf"), "/test"))
	require.NoError(t, s.Insert(ctx, testDoc("/test/doc2.pdf"), "/test"))
	require.NoError(t, s.Insert(ctx, testDoc("/other/doc3.pdf"), "/other"))
	require.NoError(t, s.RecordFolderIndexed(ctx, "/test"))
	require.NoError(t, s.RecordFolderIndexed(ctx, "/other"))

	require.NoError(t, s.RemoveFolder(ctx, "/test"))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	folders, err := s.IndexedFolders(ctx)
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "/other", folders[0].Path)
}

func TestStore_RemovePdfsForFolderKeepsRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, testDoc("/test/doc1.pdf"), "/test"))
	require.NoError(t, s.Insert(ctx, testDoc("/test/doc2.pdf"), "/test"))
	require.NoError(t, s.Insert(ctx, testDoc("/other/doc3.pdf"), "/other"))
	require.NoError(t, s.RecordFolderIndexed(ctx, "/test"))
	require.NoError(t, s.RecordFolderIndexed(ctx, "/other"))

	// When: dropping only the documents of /test
	require.NoError(t, s.RemovePdfsForFolder(ctx, "/test"))

	// Then: the other folder's document survives
	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// And: both folder records survive, /test now at zero documents
	folders, err := s.IndexedFolders(ctx)
	require.NoError(t, err)
	require.Len(t, folders, 2)
	byPath := map[string]int64{}
	for _, f := range folders {
		byPath[f.Path] = f.PdfCount
	}
	assert.EqualValues(t, 0, byPath["/test"])
	assert.EqualValues(t, 1, byPath["/other"])

	// And: the inverted index holds no stale entries for the dropped docs
	results, err := s.Search(ctx, "test", SearchFilters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/other/doc3.pdf", results[0].Path)
}

func TestStore_IndexedFoldersOrderedAndCounted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, testDoc("/a/doc1.pdf"), "/a"))
	require.NoError(t, s.Insert(ctx, testDoc("/a/doc2.pdf"), "/a"))
	require.NoError(t, s.RecordFolderIndexed(ctx, "/a"))
	require.NoError(t, s.RecordFolderIndexed(ctx, "/b"))

	folders, err := s.IndexedFolders(ctx)
	require.NoError(t, err)
	require.Len(t, folders, 2)

	// Both recorded in the same second is possible; verify counts either way
	byPath := map[string]IndexedFolder{}
	for _, f := range folders {
		byPath[f.Path] = f
	}
	assert.Equal(t, int64(2), byPath["/a"].PdfCount)
	assert.Equal(t, int64(0), byPath["/b"].PdfCount)
}

func TestStore_SearchBasic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	pages := 10
	doc := &Document{
		Path:     "/test/doc1.pdf",
		Title:    "Machine Learning",
		Content:  "This document discusses machine learning algorithms",
		Size:     2048,
		Modified: 1000000,
		Pages:    &pages,
	}
	require.NoError(t, s.Insert(ctx, doc, "/test"))

	results, err := s.Search(ctx, "machine", SearchFilters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Machine Learning", results[0].Title)
	require.NotNil(t, results[0].Pages)
	assert.Equal(t, 10, *results[0].Pages)
}

func TestStore_SearchMatchesTitle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := testDoc("/test/report.pdf")
	doc.Title = "Quarterly Budget"
	doc.Content = "numbers and tables"
	require.NoError(t, s.Insert(ctx, doc, "/test"))

	results, err := s.Search(ctx, "budget", SearchFilters{})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestStore_SearchRankingFavorsTermFrequency(t *testing.T) {
	// Given: one document mentioning the term many times, one mentioning it once
	s := newTestStore(t)
	ctx := context.Background()

	frequent := testDoc("/test/frequent.pdf")
	frequent.Title = "Frequent"
	frequent.Content = strings.Repeat("compiler optimization pass ", 20) + "end of document"
	rare := testDoc("/test/rare.pdf")
	rare.Title = "Rare"
	rare.Content = "one compiler mention in a long text about gardening " +
		strings.Repeat("flowers and soil and watering ", 10)

	require.NoError(t, s.Insert(ctx, frequent, "/test"))
	require.NoError(t, s.Insert(ctx, rare, "/test"))

	// When: searching the shared term
	results, err := s.Search(ctx, "compiler", SearchFilters{})
	require.NoError(t, err)

	// Then: the multi-occurrence document ranks first
	require.Len(t, results, 2)
	assert.Equal(t, "Frequent", results[0].Title)
}

func TestStore_SearchSnippetHighlights(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := testDoc("/test/doc1.pdf")
	doc.Content = "an essay about deterministic builds and reproducibility in software"
	require.NoError(t, s.Insert(ctx, doc, "/test"))

	results, err := s.Search(ctx, "deterministic", SearchFilters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Snippet, "<mark>deterministic</mark>")
}

func TestStore_SearchSizeFilter(t *testing.T) {
	// Given: documents of 1000 and 10000 bytes
	s := newTestStore(t)
	ctx := context.Background()

	small := testDoc("/test/small.pdf")
	small.Title = "Small Document"
	small.Size = 1000
	large := testDoc("/test/large.pdf")
	large.Title = "Large Document"
	large.Size = 10000

	require.NoError(t, s.Insert(ctx, small, "/test"))
	require.NoError(t, s.Insert(ctx, large, "/test"))

	// When: filtering minSize=5000
	results, err := s.Search(ctx, "document", SearchFilters{MinSize: 5000})
	require.NoError(t, err)

	// Then: only the large document matches
	require.Len(t, results, 1)
	assert.Equal(t, "Large Document", results[0].Title)
}

func TestStore_SearchDateFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := testDoc("/test/old.pdf")
	old.Title = "Old"
	old.Modified = 1577836800 // 2020-01-01
	recent := testDoc("/test/recent.pdf")
	recent.Title = "Recent"
	recent.Modified = 1717200000 // 2024-06-01

	require.NoError(t, s.Insert(ctx, old, "/test"))
	require.NoError(t, s.Insert(ctx, recent, "/test"))

	results, err := s.Search(ctx, "test", SearchFilters{DateFrom: "2023-01-01"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Recent", results[0].Title)

	// date-to is inclusive through end of day
	results, err = s.Search(ctx, "test", SearchFilters{DateTo: "2020-01-01"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Old", results[0].Title)
}

func TestStore_SearchInvalidDateFilterIgnored(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, testDoc("/test/doc1.pdf"), "/test"))

	results, err := s.Search(ctx, "test", SearchFilters{DateFrom: "not-a-date"})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestStore_SearchBooleanOperators(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testDoc("/test/a.pdf")
	a.Content = "rust systems programming"
	b := testDoc("/test/b.pdf")
	b.Content = "go systems programming"
	require.NoError(t, s.Insert(ctx, a, "/test"))
	require.NoError(t, s.Insert(ctx, b, "/test"))

	results, err := s.Search(ctx, "systems NOT rust", SearchFilters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/test/b.pdf", results[0].Path)
}

func TestStore_SearchMalformedQueryDegrades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, testDoc("/test/doc1.pdf"), "/test"))

	// Unbalanced quote is an FTS5 syntax error; degrade to empty results
	results, err := s.Search(ctx, `"unbalanced`, SearchFilters{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStore_SearchEmptyQuery(t *testing.T) {
	s := newTestStore(t)

	results, err := s.Search(context.Background(), "   ", SearchFilters{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStore_SearchCapAt100(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var docs []*Document
	for i := 0; i < 120; i++ {
		d := testDoc(fmt.Sprintf("/test/doc%03d.pdf", i))
		docs = append(docs, d)
	}
	require.NoError(t, s.BatchInsert(ctx, docs, "/test"))

	results, err := s.Search(ctx, "content", SearchFilters{})
	require.NoError(t, err)
	assert.Len(t, results, 100)
}

func TestStore_Clear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, testDoc("/test/doc1.pdf"), "/test"))
	require.NoError(t, s.Clear(ctx))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestStore_CloseIsIdempotent(t *testing.T) {
	s, err := New("", DefaultOptions())
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Count(context.Background())
	assert.Error(t, err)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := t.TempDir() + "/index.db"

	s, err := New(path, DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, s.Insert(context.Background(), testDoc("/test/doc1.pdf"), "/test"))
	require.NoError(t, s.Close())

	s2, err := New(path, DefaultOptions())
	require.NoError(t, err)
	defer s2.Close()

	count, err := s2.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestParseDate(t *testing.T) {
	ts, err := parseDate("2020-01-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1577836800), ts)

	_, err = parseDate("01/01/2020")
	assert.Error(t, err)
}
