/*
Package output renders the result of a load pass as a flat list, a per-root
tree, or a JSON, YAML or TOML document. Warnings collected during the pass and
walk statistics can be included.

Basic usage:

	formatter := output.NewFormatter(output.Config{
		Format:     output.FormatTree,
		WithStats:  true,
		WithColors: true,
	}, log)

	text, err := formatter.Format(&output.Result{Roots: roots, Files: files})
*/
package output

import (
	"fmt"
	"strings"

	"github.com/sonemaro/dbwalk/pkg/diag"
	"github.com/sonemaro/dbwalk/pkg/logger"
	"github.com/sonemaro/dbwalk/pkg/walker"
)

// Format represents the output format type
type Format string

const (
	FormatList Format = "list"
	FormatTree Format = "tree"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Formats lists every supported format.
var Formats = []Format{FormatList, FormatTree, FormatJSON, FormatYAML, FormatTOML}

// ParseFormat converts a case-insensitive name into a Format.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format: %s", name)
}

// Config holds formatter configuration
type Config struct {
	Format     Format
	WithStats  bool
	WithColors bool
}

// Result is everything a load pass produced.
type Result struct {
	// RunID identifies the pass
	RunID string

	// Roots lists the configured roots in load order. When empty, roots are
	// derived from Files.
	Roots []walker.RootSpec

	// Files are the discovered files in load order
	Files []walker.DiscoveredFile

	// Warnings are the non-fatal diagnostics of the pass
	Warnings []diag.Warning

	// Stats are the walk counters, shown when WithStats is set
	Stats *walker.StatsSnapshot
}

// Formatter defines the interface for output formatting
type Formatter interface {
	Format(*Result) (string, error)
}

// formatter implements the Formatter interface
type formatter struct {
	config Config
	log    logger.Logger
}

// NewFormatter creates a new formatter instance
func NewFormatter(config Config, log logger.Logger) Formatter {
	if log == nil {
		log = logger.NewNop()
	}
	return &formatter{
		config: config,
		log:    log,
	}
}

// Format renders result according to the configured format
func (f *formatter) Format(result *Result) (string, error) {
	if result == nil {
		msg := "nil result provided for formatting"
		f.log.Error(msg)
		return "", fmt.Errorf("%s", msg)
	}

	f.log.WithFields(logger.Fields{
		"format":     f.config.Format,
		"withStats":  f.config.WithStats,
		"withColors": f.config.WithColors,
		"files":      len(result.Files),
	}).Debug("Starting format operation")

	switch f.config.Format {
	case FormatList, "":
		return f.formatList(result), nil
	case FormatTree:
		return f.formatTree(result), nil
	case FormatJSON:
		return f.formatJSON(result)
	case FormatYAML:
		return f.formatYAML(result)
	case FormatTOML:
		return f.formatTOML(result)
	default:
		msg := fmt.Sprintf("unsupported format: %s", f.config.Format)
		f.log.Error(msg)
		return "", fmt.Errorf("%s", msg)
	}
}

// rootGroup pairs a root with the files it contributed.
type rootGroup struct {
	root  walker.RootSpec
	files []walker.DiscoveredFile
}

// groupByRoot keeps the order of result.Roots, then appends roots that only
// appear in Files. Roots sharing a path but not a policy or label stay
// separate groups.
func groupByRoot(result *Result) []*rootGroup {
	var groups []*rootGroup
	index := make(map[walker.RootSpec]*rootGroup)

	add := func(root walker.RootSpec) *rootGroup {
		if g, ok := index[root]; ok {
			return g
		}
		g := &rootGroup{root: root}
		index[root] = g
		groups = append(groups, g)
		return g
	}

	for _, root := range result.Roots {
		add(root)
	}
	for _, file := range result.Files {
		g := add(file.Root)
		g.files = append(g.files, file)
	}

	return groups
}
