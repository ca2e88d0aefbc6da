/*
Package commands implements the dbwalk command line. The root command loads
configuration once for every subcommand and applies the global flags on top
of it.
*/
package commands

import (
	"fmt"

	"github.com/sonemaro/dbwalk/internal/config"
	"github.com/spf13/cobra"
)

// Options holds command-line options that apply to all commands
type Options struct {
	Config     *config.Config
	ConfigPath string
	Verbose    int
	NoProgress bool
	NoColor    bool
}

// NewRootCommand creates the root command for the application
func NewRootCommand() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "dbwalk [command] [flags]",
		Short: "Discover database files across system, local and user roots",
		Long: `dbwalk walks the configured database directories in order, follows
symbolic links under a bounded budget and lists every file a parser would
load. Missing or unreadable optional roots are reported as warnings; a
problem in a required root fails the whole load.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeCommand(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "",
		"config file (yaml, toml or json)")
	rootCmd.PersistentFlags().CountVarP(&opts.Verbose, "verbose", "v",
		"verbose output (can be used multiple times)")
	rootCmd.PersistentFlags().BoolVar(&opts.NoProgress, "no-progress", false,
		"disable progress reporting")
	rootCmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false,
		"disable colored output")

	rootCmd.AddCommand(
		newScanCommand(opts),
		newRootsCommand(opts),
		newVersionCommand(opts),
	)

	return rootCmd
}

// initializeCommand loads configuration and applies the global flags
func initializeCommand(cmd *cobra.Command, opts *Options) error {
	if cmd.Name() == "version" {
		return nil
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Verbose = opts.Verbose
	}
	if flags.Changed("no-progress") {
		cfg.NoProgress = opts.NoProgress
	}
	if flags.Changed("no-color") {
		cfg.NoColor = opts.NoColor
	}

	opts.Config = &cfg
	return nil
}
