// Package cmd provides the CLI commands for lorestore.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lorekit/lorestore/internal/config"
	"github.com/lorekit/lorestore/internal/logging"
	"github.com/lorekit/lorestore/pkg/version"
)

// rootOptions are persistent flags shared by all subcommands.
type rootOptions struct {
	configPath string
	dataDir    string
	logLevel   string
	noColor    bool
}

var (
	rootOpts       rootOptions
	loggingCleanup func()
)

// NewRootCmd creates the root command for the lorestore CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lorestore",
		Short: "Local full-text store for agent lore and memory",
		Long: `lorestore maintains a local SQLite full-text index over a corpus of
markdown documents, plus an append-only memory log with keyword recall.

Run 'lorestore index' to build or refresh the index, then
'lorestore search' to retrieve passages.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("lorestore version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&rootOpts.configPath, "config", "c", config.DefaultFileName, "Config file path")
	cmd.PersistentFlags().StringVar(&rootOpts.dataDir, "data-dir", "", "Override the data directory")
	cmd.PersistentFlags().StringVar(&rootOpts.logLevel, "log-level", "", "Override the log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&rootOpts.noColor, "no-color", false, "Disable colored output")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = teardownLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newRememberCmd())
	cmd.AddCommand(newRecallCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig resolves the effective configuration for a command run:
// config file, environment, then persistent flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootOpts.configPath)
	if err != nil {
		return nil, err
	}
	if rootOpts.dataDir != "" {
		cfg.Paths.DataDir = rootOpts.dataDir
	}
	if rootOpts.logLevel != "" {
		cfg.Log.Level = rootOpts.logLevel
	}
	return cfg, cfg.Validate()
}

func setupLogging(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cleanup, err := logging.Setup(logging.Config{Level: cfg.Log.Level})
	if err != nil {
		return err
	}
	loggingCleanup = cleanup
	return nil
}

func teardownLogging(_ *cobra.Command, _ []string) {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
}
