package commands

import (
	"fmt"
	"strings"

	"github.com/sonemaro/dbwalk/cmd/dbwalk/app"
	"github.com/sonemaro/dbwalk/pkg/output"
	"github.com/sonemaro/dbwalk/pkg/walker"
	"github.com/spf13/cobra"
)

// optionalSuffix marks a --root value whose absence is only a warning
const optionalSuffix = ":optional"

type scanOptions struct {
	*Options
	roots        []string
	outputFormat string
	outputFile   string
	maxDepth     int
	workers      int
	ignore       []string
	extensions   []string
	stats        bool
}

func newScanCommand(opts *Options) *cobra.Command {
	so := &scanOptions{Options: opts}

	cmd := &cobra.Command{
		Use:   "scan [flags]",
		Short: "List the database files of every root",
		Long: `Walk the system, local and user database directories (or the roots given
with --root) and print every discovered file in load order.`,
		Example: `  dbwalk scan
  dbwalk scan -o tree --stats
  dbwalk scan --root /usr/share/dbwalk/db --root ~/db:optional -o json -f files.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, so)
		},
	}

	cmd.Flags().StringArrayVarP(&so.roots, "root", "r", nil,
		"root directory, suffix with "+optionalSuffix+" to tolerate it missing (repeatable)")
	cmd.Flags().StringVarP(&so.outputFormat, "output", "o", "",
		"output format: list|tree|json|yaml|toml")
	cmd.Flags().StringVarP(&so.outputFile, "file", "f", "",
		"write output to file instead of stdout")
	cmd.Flags().IntVarP(&so.maxDepth, "max-depth", "d", -1,
		"maximum directory depth to walk")
	cmd.Flags().IntVarP(&so.workers, "workers", "w", 0,
		"number of roots walked concurrently")
	cmd.Flags().StringSliceVarP(&so.ignore, "ignore", "i", nil,
		"patterns to ignore (can be specified multiple times)")
	cmd.Flags().StringSliceVarP(&so.extensions, "ext", "e", nil,
		"file extensions to load (default from config: .xml)")
	cmd.Flags().BoolVar(&so.stats, "stats", false,
		"include walk statistics")

	return cmd
}

func runScan(cmd *cobra.Command, so *scanOptions) error {
	cfg := *so.Config
	flags := cmd.Flags()

	if flags.Changed("output") {
		cfg.Output = so.outputFormat
	}
	if flags.Changed("file") {
		cfg.OutputFile = so.outputFile
	}
	if flags.Changed("max-depth") {
		cfg.MaxDepth = so.maxDepth
	}
	if flags.Changed("workers") {
		cfg.Workers = so.workers
	}
	if flags.Changed("ignore") {
		cfg.IgnorePatterns = so.ignore
	}
	if flags.Changed("ext") {
		cfg.Extensions = so.extensions
	}

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return err
	}
	cfg.Output = string(format)
	if err := cfg.Validate(); err != nil {
		return err
	}

	roots := cfg.Roots()
	if len(so.roots) > 0 {
		roots = make([]walker.RootSpec, 0, len(so.roots))
		for _, value := range so.roots {
			root, err := parseRoot(value)
			if err != nil {
				return err
			}
			roots = append(roots, root)
		}
	}

	application := app.New(&cfg,
		app.WithStdout(cmd.OutOrStdout()),
		app.WithStderr(cmd.ErrOrStderr()),
	)
	defer application.Shutdown()

	return application.Scan(roots, &app.ScanOptions{
		Format:     format,
		OutputPath: cfg.OutputFile,
		WithStats:  so.stats,
	})
}

// parseRoot reads PATH or PATH:optional
func parseRoot(value string) (walker.RootSpec, error) {
	root := walker.RootSpec{Path: value, Label: "cli"}
	if strings.HasSuffix(value, optionalSuffix) {
		root.Path = strings.TrimSuffix(value, optionalSuffix)
		root.TolerateMissing = true
	}
	if strings.TrimSpace(root.Path) == "" {
		return walker.RootSpec{}, fmt.Errorf("invalid root %q: empty path", value)
	}
	return root, nil
}
