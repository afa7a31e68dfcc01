package query

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_SingleTermPassesThrough(t *testing.T) {
	assert.Equal(t, "hello", Normalize("hello"))
}

func TestNormalize_EmptyQuery(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("   \t\n"))
}

func TestNormalize_MultiTermGetsImplicitOR(t *testing.T) {
	assert.Equal(t, "hello OR world", Normalize("hello world"))
	assert.Equal(t, "a OR b OR c", Normalize("a b c"))
}

func TestNormalize_OperatorsPreservedVerbatim(t *testing.T) {
	assert.Equal(t, "hello AND world", Normalize("hello AND world"))
	assert.Equal(t, "cats NOT dogs", Normalize("cats NOT dogs"))
	// Any operator disables the implicit-OR join for the whole query
	assert.Equal(t, "a AND b c", Normalize("a AND b c"))
}

func TestNormalize_OperatorsCaseInsensitive(t *testing.T) {
	assert.Equal(t, "hello AND world", Normalize("hello and world"))
	assert.Equal(t, "hello OR world", Normalize("hello oR world"))
	assert.Equal(t, "NOT spam", Normalize("not spam"))
}

func TestNormalize_CollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "hello OR world", Normalize("  hello \t world  "))
}

func TestNormalize_TruncatesLongQueries(t *testing.T) {
	// Given: a 2000-character single-term query
	raw := strings.Repeat("a", 2000)

	// Then: it is truncated to the byte bound before reaching the store
	got := Normalize(raw)
	assert.Len(t, got, MaxLength)
}

func TestNormalize_TruncationPreservesUTF8(t *testing.T) {
	// Given: a multi-byte rune straddling the truncation boundary
	raw := strings.Repeat("a", MaxLength-1) + "é" + strings.Repeat("b", 100)

	got := Normalize(raw)

	// Then: the cut backs off to a rune boundary instead of splitting é
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), MaxLength)
	assert.Equal(t, strings.Repeat("a", MaxLength-1), got)
}

func TestNormalize_TruncatesTokenCount(t *testing.T) {
	terms := make([]string, 80)
	for i := range terms {
		terms[i] = "term"
	}
	got := Normalize(strings.Join(terms, " "))

	// 50 terms joined with OR
	assert.Equal(t, MaxTokens, len(strings.Split(got, " OR ")))
}
