package walker

import (
	"path/filepath"
	"strings"
	"sync/atomic"
)

// DefaultMaxLinkDepth bounds how many symbolic links a single descent may
// traverse before the entry is reported as an unexpected type.
const DefaultMaxLinkDepth = 8

// RootSpec is one configured search location.
type RootSpec struct {
	// Path is the directory (or file) to walk
	Path string `json:"path" yaml:"path" toml:"path"`

	// TolerateMissing downgrades an absent or unreadable root to a warning
	TolerateMissing bool `json:"tolerateMissing" yaml:"tolerateMissing" toml:"tolerate_missing"`

	// Label names the root for diagnostics ("system", "local", "user", ...)
	Label string `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
}

// DiscoveredFile is a regular file accepted by the match predicate.
type DiscoveredFile struct {
	Path string   `json:"path" yaml:"path" toml:"path"`
	Root RootSpec `json:"root" yaml:"root" toml:"root"`
}

// Rel returns the file path relative to its root.
func (f DiscoveredFile) Rel() string {
	rel, err := filepath.Rel(f.Root.Path, f.Path)
	if err != nil {
		return f.Path
	}
	return rel
}

// MatchFunc decides whether a regular file is handed to the parser.
type MatchFunc func(path string) bool

// MatchExtensions accepts files whose extension is one of exts, ignoring case.
// Extensions may be given with or without the leading dot.
func MatchExtensions(exts ...string) MatchFunc {
	want := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		want[ext] = struct{}{}
	}

	return func(path string) bool {
		_, ok := want[strings.ToLower(filepath.Ext(path))]
		return ok
	}
}

// Config contains walker configuration options
type Config struct {
	// Match selects regular files; nil accepts all of them
	Match MatchFunc

	// MaxLinkDepth bounds symbolic link traversal (0 means DefaultMaxLinkDepth)
	MaxLinkDepth int

	// MaxDepth limits directory descent below the root (0 or -1 for unlimited)
	MaxDepth int

	// IgnorePatterns lists entries to skip
	IgnorePatterns []string
}

// Stats holds the atomic counters for walk statistics
type Stats struct {
	dirsVisited    atomic.Int64
	filesMatched   atomic.Int64
	entriesSkipped atomic.Int64
	warnings       atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	DirsVisited    int64 `json:"dirsVisited" yaml:"dirsVisited" toml:"dirs_visited"`
	FilesMatched   int64 `json:"filesMatched" yaml:"filesMatched" toml:"files_matched"`
	EntriesSkipped int64 `json:"entriesSkipped" yaml:"entriesSkipped" toml:"entries_skipped"`
	Warnings       int64 `json:"warnings" yaml:"warnings" toml:"warnings"`
}

// Snapshot copies the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		DirsVisited:    s.dirsVisited.Load(),
		FilesMatched:   s.filesMatched.Load(),
		EntriesSkipped: s.entriesSkipped.Load(),
		Warnings:       s.warnings.Load(),
	}
}

// Add returns the field-wise sum of s and o.
func (s StatsSnapshot) Add(o StatsSnapshot) StatsSnapshot {
	return StatsSnapshot{
		DirsVisited:    s.DirsVisited + o.DirsVisited,
		FilesMatched:   s.FilesMatched + o.FilesMatched,
		EntriesSkipped: s.EntriesSkipped + o.EntriesSkipped,
		Warnings:       s.Warnings + o.Warnings,
	}
}
