// Package extract wraps untrusted PDF text extraction behind a crash-isolating
// adapter with size bounds, whitespace normalization, and page estimation.
package extract

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Extractor turns a document file into plain text. Implementations parse
// untrusted binary input and may fail or panic on malformed structure; the
// Adapter is responsible for containing both.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// PDFExtractor extracts plain text from PDF files.
type PDFExtractor struct{}

// NewPDFExtractor returns the default PDF text extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract reads the full plain text of the PDF at path.
// Never retried; a failure is final for this indexing run.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return buf.String(), nil
}
