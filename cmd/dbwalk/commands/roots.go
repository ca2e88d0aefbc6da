package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/sonemaro/dbwalk/pkg/classify"
	"github.com/sonemaro/dbwalk/pkg/walker"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newRootsCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "roots",
		Short: "Show the configured roots and what is at each path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			classifier := classify.New(afero.NewOsFs())
			fmt.Fprintln(cmd.OutOrStdout(), renderRoots(opts.Config.Roots(), classifier))
			return nil
		},
	}
}

// renderRoots draws one row per root with its policy and current type
func renderRoots(roots []walker.RootSpec, classifier classify.Classifier) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Label", "Path", "Policy", "Status"})

	for i, root := range roots {
		policy := "required"
		if root.TolerateMissing {
			policy = "optional"
		}
		tw.AppendRow(table.Row{i + 1, root.Label, root.Path, policy, rootStatus(root.Path, classifier)})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}

func rootStatus(path string, classifier classify.Classifier) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "error: " + err.Error()
	}

	kind, err := classifier.Classify(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "missing"
	case errors.Is(err, fs.ErrPermission):
		return "not accessible"
	case err != nil:
		return "error: " + err.Error()
	case kind == classify.Unknown:
		return "unknown type"
	default:
		return kind.String()
	}
}
