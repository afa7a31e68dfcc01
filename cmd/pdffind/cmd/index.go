package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
)

func newIndexCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "index <folder>...",
		Short: "Index the PDF files under one or more folders",
		Long: `Index the PDF files under one or more folders.

Each folder is registered and scanned recursively. Re-running the command
only processes files that changed since the last run; --force discards the
folder's index entries and reprocesses everything.

Examples:
  pdffind index ~/Documents/papers
  pdffind index ~/books ~/receipts
  pdffind index --force ~/Documents/papers`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir := filepath.Dir(cfg.DBPath)
			if err := os.MkdirAll(dataDir, 0o755); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}

			// One indexing process at a time; concurrent runs would contend
			// for the SQLite writer and race on folder state.
			lock := flock.New(filepath.Join(dataDir, "index.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("failed to acquire index lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another pdffind indexing run is in progress")
			}
			defer func() { _ = lock.Unlock() }()

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			r := newRenderer(cmd)
			for _, folder := range args {
				run := a.IndexFolder
				if force {
					run = a.ForceIndexFolder
				}
				res, err := run(cmd.Context(), folder)
				if err != nil {
					return fmt.Errorf("failed to index %s: %w", folder, err)
				}
				r.IndexSummary(folder, res)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Reprocess every file, ignoring the incremental diff")

	return cmd
}
