package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "remove [folder]",
		Short: "Remove a folder (or everything) from the index",
		Long: `Remove a folder and its documents from the index.

The files on disk are untouched; only the index entries are deleted.

Examples:
  pdffind remove ~/Documents/papers
  pdffind remove --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return fmt.Errorf("specify either a folder or --all")
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if all {
				if err := a.ClearIndex(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Index cleared.")
				return nil
			}

			if err := a.RemoveFolder(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from the index.\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove all indexed data")

	return cmd
}
