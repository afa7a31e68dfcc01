package extract

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	pferrors "github.com/pdffind/pdffind/internal/errors"
)

// Default size bounds for extraction candidates.
const (
	// DefaultMinFileSize below which a file is treated as likely corrupt.
	DefaultMinFileSize = 100
	// DefaultMaxFileSize above which extraction is skipped to bound
	// latency and memory.
	DefaultMaxFileSize = 100 * 1024 * 1024
)

// Result is the outcome of one adapter extraction.
// A rejected or failed file still yields a usable zero Result (empty text,
// zero pages) so the caller can index the file's metadata regardless.
type Result struct {
	Text  string // Whitespace-normalized text, empty on failure
	Pages int    // Heuristic page estimate, 0 on failure or empty text

	// Warning records why extraction was rejected or failed, nil on success.
	// It is informational: the Result above it is always valid.
	Warning error
}

// Adapter runs an Extractor inside a fault boundary.
type Adapter struct {
	extractor Extractor
	minSize   int64
	maxSize   int64
}

// NewAdapter wraps extractor with the given size bounds.
// Non-positive bounds fall back to the defaults.
func NewAdapter(extractor Extractor, minSize, maxSize int64) *Adapter {
	if minSize <= 0 {
		minSize = DefaultMinFileSize
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Adapter{extractor: extractor, minSize: minSize, maxSize: maxSize}
}

// Extract produces the indexable text and page estimate for the file at
// path, given its size in bytes. It never returns a fatal error: rejected,
// failed, and crashed extractions all produce an empty Result whose Warning
// explains why. Malformed input is expected, not exceptional.
func (a *Adapter) Extract(ctx context.Context, path string, size int64) Result {
	if size < a.minSize {
		warn := pferrors.New(pferrors.ErrCodeFileTooSmall,
			fmt.Sprintf("%s: %d bytes is below the %d byte minimum (likely corrupt)", path, size, a.minSize), nil)
		slog.Warn("extract_rejected", slog.String("path", path), slog.Int64("size", size), slog.String("reason", "too_small"))
		return Result{Warning: warn}
	}
	if size > a.maxSize {
		warn := pferrors.New(pferrors.ErrCodeFileTooLarge,
			fmt.Sprintf("%s: %d bytes exceeds the %d byte maximum", path, size, a.maxSize), nil)
		slog.Warn("extract_rejected", slog.String("path", path), slog.Int64("size", size), slog.String("reason", "too_large"))
		return Result{Warning: warn}
	}

	raw, err := a.extractIsolated(ctx, path)
	if err != nil {
		slog.Warn("extract_failed", slog.String("path", path), slog.String("error", err.Error()))
		return Result{Warning: pferrors.ExtractError(fmt.Sprintf("%s: %s", path, err.Error()), err)}
	}

	// Estimate pages from the raw text: form feeds and newline runs must be
	// observed before whitespace collapsing destroys them.
	return Result{
		Text:  NormalizeWhitespace(raw),
		Pages: EstimatePages(raw),
	}
}

// extractIsolated invokes the extractor, converting a panic in the untrusted
// parser into an ordinary error. The fault never reaches sibling tasks or
// the coordinator.
func (a *Adapter) extractIsolated(ctx context.Context, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("extraction panicked: %v", r)
		}
	}()
	return a.extractor.Extract(ctx, path)
}

// NormalizeWhitespace collapses whitespace runs (including newlines and
// tabs) to single spaces and trims leading/trailing whitespace.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// tripleNewlineThreshold is the minimum number of triple-newline runs before
// they are taken as page separators.
const tripleNewlineThreshold = 5

// EstimatePages heuristically estimates the page count of extracted text.
// Policy, first match wins:
//  1. form feeds present: pages = count + 1
//  2. more than 5 triple-newline runs: pages = round(runs * 0.8) + 1 when > 1
//  3. pages = ceil(len / 3000), minimum 1; empty text estimates 0
func EstimatePages(text string) int {
	if len(text) == 0 {
		return 0
	}

	if ff := strings.Count(text, "\f"); ff > 0 {
		return ff + 1
	}

	if runs := strings.Count(text, "\n\n\n"); runs > tripleNewlineThreshold {
		if est := int(math.Round(float64(runs)*0.8)) + 1; est > 1 {
			return est
		}
	}

	pages := int(math.Ceil(float64(len(text)) / 3000.0))
	if pages < 1 {
		pages = 1
	}
	return pages
}
