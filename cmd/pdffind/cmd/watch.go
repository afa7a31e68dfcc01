package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdffind/pdffind/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the index fresh by watching indexed folders",
		Long: `Watch every indexed folder for changes and reindex automatically.

Runs until interrupted. Events are debounced so bulk file operations
trigger a single incremental run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			folders, err := a.IndexedFolders(ctx)
			if err != nil {
				return err
			}
			if len(folders) == 0 {
				return fmt.Errorf("no folders indexed; run 'pdffind index <folder>' first")
			}

			w, err := watcher.New(a, cfg.DebounceDuration())
			if err != nil {
				return err
			}

			for _, f := range folders {
				if err := w.AddFolder(f.Path); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: cannot watch %s: %v\n", f.Path, err)
				}
			}

			// Catch up on changes made while not watching.
			if err := a.ReindexAll(ctx); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %d folder(s). Press Ctrl-C to stop.\n", len(folders))

			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
