// Package ui renders search results, folder listings, and index summaries
// for the terminal. Output degrades to plain text for pipes, CI, and
// NO_COLOR environments.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/pdffind/pdffind/internal/app"
	"github.com/pdffind/pdffind/internal/pipeline"
	"github.com/pdffind/pdffind/internal/store"
)

// Renderer writes human-readable output. Snippet highlight markers coming
// from the store are replaced with terminal styling, or stripped when
// color is off.
type Renderer struct {
	w         io.Writer
	styles    Styles
	markStart string
	markEnd   string
}

// NewRenderer creates a renderer for w. Color is enabled only when w is an
// interactive terminal and NO_COLOR is unset.
func NewRenderer(w io.Writer, markStart, markEnd string) *Renderer {
	noColor := !IsTTY(w) || DetectNoColor()
	return &Renderer{
		w:         w,
		styles:    GetStyles(noColor),
		markStart: markStart,
		markEnd:   markEnd,
	}
}

// SearchResults renders a ranked result list.
func (r *Renderer) SearchResults(results []store.SearchResult, elapsed time.Duration) {
	if len(results) == 0 {
		fmt.Fprintln(r.w, "No results.")
		return
	}

	for i, res := range results {
		fmt.Fprintf(r.w, "%s %s\n", r.styles.Meta.Render(fmt.Sprintf("%2d.", i+1)), r.styles.Title.Render(res.Title))
		fmt.Fprintf(r.w, "    %s\n", r.styles.Path.Render(res.Path))

		meta := fmt.Sprintf("%s, modified %s", humanSize(res.Size), formatEpoch(res.Modified))
		if res.Pages != nil && *res.Pages > 0 {
			meta = fmt.Sprintf("%s, ~%d pages", meta, *res.Pages)
		}
		fmt.Fprintf(r.w, "    %s\n", r.styles.Meta.Render(meta))

		if res.Snippet != "" {
			fmt.Fprintf(r.w, "    %s\n", r.styles.Snippet.Render(r.restyleSnippet(res.Snippet)))
		}
		fmt.Fprintln(r.w)
	}

	fmt.Fprintln(r.w, r.styles.Meta.Render(fmt.Sprintf("%d result(s) in %s", len(results), elapsed.Round(time.Millisecond))))
}

// Folders renders the registered folder list.
func (r *Renderer) Folders(folders []store.IndexedFolder) {
	if len(folders) == 0 {
		fmt.Fprintln(r.w, "No folders indexed. Run 'pdffind index <folder>' first.")
		return
	}

	fmt.Fprintln(r.w, r.styles.Header.Render("Indexed folders:"))
	for _, f := range folders {
		fmt.Fprintf(r.w, "  %s\n", r.styles.Title.Render(f.Path))
		fmt.Fprintf(r.w, "    %s\n", r.styles.Meta.Render(
			fmt.Sprintf("%d document(s), last indexed %s", f.PdfCount, formatEpoch(f.LastIndexed))))
	}
}

// Stats renders index-wide statistics.
func (r *Renderer) Stats(stats *app.Stats) {
	fmt.Fprintln(r.w, r.styles.Header.Render("Index statistics:"))
	fmt.Fprintf(r.w, "  Documents: %d\n", stats.Documents)
	fmt.Fprintf(r.w, "  Folders:   %d\n", stats.Folders)
	fmt.Fprintf(r.w, "  Database:  %s (%s)\n", stats.DBPath, humanSize(stats.DBSize))
}

// IndexSummary renders the outcome of one indexing run, including per-file
// failures.
func (r *Renderer) IndexSummary(folder string, res *pipeline.Result) {
	fmt.Fprintf(r.w, "Indexed %s: %d file(s) processed, %d removed in %s\n",
		r.styles.Title.Render(folder), res.Processed, res.Removed, res.Duration.Round(time.Millisecond))

	if len(res.Failures) > 0 {
		fmt.Fprintln(r.w, r.styles.Warning.Render(fmt.Sprintf("%d file(s) could not be extracted:", len(res.Failures))))
		for _, f := range res.Failures {
			fmt.Fprintf(r.w, "  %s: %s\n", f.Path, r.styles.Meta.Render(f.Reason))
		}
	}
}

// Errorf renders an error line.
func (r *Renderer) Errorf(format string, args ...any) {
	fmt.Fprintln(r.w, r.styles.Error.Render(fmt.Sprintf(format, args...)))
}

// restyleSnippet replaces highlight marker pairs with terminal styling.
// Unbalanced markers pass the remainder through unstyled.
func (r *Renderer) restyleSnippet(s string) string {
	var b strings.Builder
	for {
		i := strings.Index(s, r.markStart)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		s = s[i+len(r.markStart):]

		j := strings.Index(s, r.markEnd)
		if j < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(r.styles.Highlight.Render(s[:j]))
		s = s[j+len(r.markEnd):]
	}
}

// IsTTY checks if w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor checks if the NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// humanSize formats bytes for display.
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}

// formatEpoch formats a unix timestamp for display.
func formatEpoch(sec int64) string {
	if sec <= 0 {
		return "never"
	}
	return time.Unix(sec, 0).Format("2006-01-02 15:04")
}
