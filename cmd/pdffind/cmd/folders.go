package cmd

import (
	"github.com/spf13/cobra"
)

func newFoldersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "folders",
		Short: "List indexed folders",
		Long:  `List the folders registered with the index, most recently indexed first.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			folders, err := a.IndexedFolders(cmd.Context())
			if err != nil {
				return err
			}

			newRenderer(cmd).Folders(folders)
			return nil
		},
	}
}
