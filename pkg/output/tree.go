package output

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/sonemaro/dbwalk/pkg/logger"
)

// treeNode is one path component below a root.
type treeNode struct {
	name     string
	children map[string]*treeNode
	file     bool
}

func (n *treeNode) child(name string) *treeNode {
	if n.children == nil {
		n.children = make(map[string]*treeNode)
	}
	c, ok := n.children[name]
	if !ok {
		c = &treeNode{name: name}
		n.children[name] = c
	}
	return c
}

func (n *treeNode) sortedChildren() []*treeNode {
	out := make([]*treeNode, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// formatTree prints each root followed by the tree of files it contributed
func (f *formatter) formatTree(result *Result) string {
	f.log.Debug("Formatting tree output")

	var builder strings.Builder
	for i, group := range groupByRoot(result) {
		if i > 0 {
			builder.WriteString("\n")
		}

		rootName := group.root.Path
		if f.config.WithColors {
			rootName = color.New(color.FgBlue, color.Bold).Sprint(rootName)
		}
		builder.WriteString(rootName)
		if group.root.Label != "" {
			builder.WriteString(fmt.Sprintf(" (%s)", group.root.Label))
		}
		builder.WriteString("\n")

		if len(group.files) == 0 {
			builder.WriteString("└── (no files)\n")
			continue
		}

		top := &treeNode{}
		for _, file := range group.files {
			node := top
			rel := filepath.ToSlash(file.Rel())
			if rel == "." {
				rel = filepath.Base(file.Path)
			}
			for _, part := range strings.Split(rel, "/") {
				node = node.child(part)
			}
			node.file = true
		}

		children := top.sortedChildren()
		for j, c := range children {
			f.formatTreeNode(&builder, c, "", j == len(children)-1)
		}
	}

	if len(result.Warnings) > 0 {
		builder.WriteString("\nWarnings:\n")
		for _, w := range result.Warnings {
			msg := w.Message
			if f.config.WithColors {
				msg = color.New(color.FgYellow).Sprint(msg)
			}
			builder.WriteString("  " + msg + "\n")
		}
	}

	if f.config.WithStats && result.Stats != nil {
		f.log.Debug("Adding statistics to output")
		s := result.Stats
		builder.WriteString("\nStatistics:\n")
		builder.WriteString(fmt.Sprintf("  Files: %d\n", s.FilesMatched))
		builder.WriteString(fmt.Sprintf("  Directories: %d\n", s.DirsVisited))
		builder.WriteString(fmt.Sprintf("  Skipped: %d\n", s.EntriesSkipped))
		builder.WriteString(fmt.Sprintf("  Warnings: %d\n", s.Warnings))
	}

	return builder.String()
}

func (f *formatter) formatTreeNode(builder *strings.Builder, node *treeNode, prefix string, isLast bool) {
	f.log.WithFields(logger.Fields{
		"node":   node.name,
		"prefix": prefix,
		"isLast": isLast,
	}).Trace("Formatting tree node")

	if isLast {
		builder.WriteString(prefix + "└── ")
	} else {
		builder.WriteString(prefix + "├── ")
	}

	name := node.name
	isDir := len(node.children) > 0
	if isDir && f.config.WithColors {
		name = color.New(color.FgBlue, color.Bold).Sprint(name)
	}
	builder.WriteString(name)
	if isDir {
		builder.WriteString("/")
	}
	builder.WriteString("\n")

	newPrefix := prefix
	if isLast {
		newPrefix += "    "
	} else {
		newPrefix += "│   "
	}

	children := node.sortedChildren()
	for i, c := range children {
		f.formatTreeNode(builder, c, newPrefix, i == len(children)-1)
	}
}
