// Package cmd provides the CLI commands for pdffind.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdffind/pdffind/internal/app"
	"github.com/pdffind/pdffind/internal/config"
	"github.com/pdffind/pdffind/internal/logging"
	"github.com/pdffind/pdffind/internal/ui"
	"github.com/pdffind/pdffind/pkg/version"
)

var (
	cfgPath   string
	debugMode bool

	cfg            *config.Config
	loggingCleanup func()
)

// NewRootCmd creates the root command for the pdffind CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pdffind",
		Short: "Full-text search over your local PDF library",
		Long: `pdffind indexes the text of PDF files in folders you choose and
answers ranked full-text queries over them.

Indexing is incremental: re-running it only processes files that were
added, changed, or removed since the last run. All data stays local.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("pdffind version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file (default: "+config.DefaultConfigPath()+")")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.PersistentPreRunE = setup
	cmd.PersistentPostRun = teardown

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newFoldersCmd())
	cmd.AddCommand(newRemoveCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setup loads configuration and initializes file logging.
func setup(_ *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(cfgPath)
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.WriteToStderr = false
	if debugMode {
		logCfg.Level = "debug"
	}
	if cleanup, err := logging.Install(logCfg); err == nil {
		loggingCleanup = cleanup
	}
	return nil
}

func teardown(_ *cobra.Command, _ []string) {
	if loggingCleanup != nil {
		loggingCleanup()
	}
}

// openApp opens the index database with the loaded configuration.
func openApp() (*app.App, error) {
	a, err := app.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return a, nil
}

// newRenderer creates a renderer for the command's stdout.
func newRenderer(cmd *cobra.Command) *ui.Renderer {
	return ui.NewRenderer(cmd.OutOrStdout(), cfg.Search.HighlightStart, cfg.Search.HighlightEnd)
}

// Execute runs the root command.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}
