package cmd

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdffind/pdffind/internal/store"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	minSize  int64
	maxSize  int64
	dateFrom string
	dateTo   string
	jsonOut  bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed PDF files",
		Long: `Search indexed PDF files by content and title.

Multiple words match documents containing any of them. Use AND, OR, and
NOT to control matching explicitly.

Examples:
  pdffind search invoice
  pdffind search "tax AND 2024"
  pdffind search "contract NOT draft" --from 2024-01-01
  pdffind search report --min-size 100000 --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().Int64Var(&opts.minSize, "min-size", 0, "Minimum file size in bytes")
	cmd.Flags().Int64Var(&opts.maxSize, "max-size", 0, "Maximum file size in bytes")
	cmd.Flags().StringVar(&opts.dateFrom, "from", "", "Modified on or after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.dateTo, "to", "", "Modified on or before (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Output results as JSON")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, opts searchOptions) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	filters := store.SearchFilters{
		MinSize:  opts.minSize,
		MaxSize:  opts.maxSize,
		DateFrom: opts.dateFrom,
		DateTo:   opts.dateTo,
	}

	start := time.Now()
	results, err := a.Search(cmd.Context(), query, filters)
	if err != nil {
		return err
	}

	if opts.jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(searchResponse{Query: query, Count: len(results), Results: results})
	}

	newRenderer(cmd).SearchResults(results, time.Since(start))
	return nil
}

// searchResponse is the JSON output shape.
type searchResponse struct {
	Query   string               `json:"query"`
	Count   int                  `json:"count"`
	Results []store.SearchResult `json:"results"`
}
