/*
Package walker recursively visits a root path and collects the regular files a
downstream parser should load.

Every entry is classified without following it. Directories are descended in
lexical order so the output is reproducible; symbolic links are resolved one
level at a time under a bounded link budget. Anomalies are routed through the
root's tolerate-missing policy: a tolerant root turns an unreadable or
ambiguously typed entry into a warning and an empty contribution, an intolerant
root fails the whole walk on the first one.

Basic usage:

	w := walker.New(walker.Config{
		Match:    walker.MatchExtensions(".xml"),
		MaxDepth: -1,
	}, afero.NewOsFs(), reporter, log)

	files, err := w.Walk(walker.RootSpec{Path: "/usr/share/dbwalk/db"})
*/
package walker

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/sonemaro/dbwalk/pkg/classify"
	"github.com/sonemaro/dbwalk/pkg/diag"
	"github.com/sonemaro/dbwalk/pkg/logger"
	"github.com/spf13/afero"
)

// Walker defines the interface for walking a single root
type Walker interface {
	// Walk returns the matching files below root in deterministic order, or
	// the first fatal *diag.LoadError. A failed walk never returns files.
	Walk(root RootSpec) ([]DiscoveredFile, error)

	// Stats returns counters accumulated over all walks
	Stats() StatsSnapshot
}

type walker struct {
	config     Config
	fs         afero.Fs
	classifier classify.Classifier
	reporter   *diag.Reporter
	log        logger.Logger
	stats      *Stats
}

// New creates a Walker reading from fs and reporting through reporter.
func New(config Config, fs afero.Fs, reporter *diag.Reporter, log logger.Logger) Walker {
	if config.MaxLinkDepth <= 0 {
		config.MaxLinkDepth = DefaultMaxLinkDepth
	}
	if config.MaxDepth == 0 {
		config.MaxDepth = -1
	}
	if log == nil {
		log = logger.NewNop()
	}
	if reporter == nil {
		reporter = diag.NewReporter(log)
	}

	return &walker{
		config:     config,
		fs:         fs,
		classifier: classify.New(fs),
		reporter:   reporter,
		log:        log,
		stats:      &Stats{},
	}
}

func (w *walker) Stats() StatsSnapshot {
	return w.stats.Snapshot()
}

func (w *walker) Walk(root RootSpec) ([]DiscoveredFile, error) {
	if root.Path == "" {
		return nil, w.anomaly(root, w.reporter.Fail(diag.NotAccessible, root.Path, errors.New("empty path")), true)
	}

	abs, err := filepath.Abs(root.Path)
	if err != nil {
		return nil, w.reporter.Fail(diag.Underlying, root.Path, err)
	}
	root.Path = abs

	w.log.WithFields(logger.Fields{
		"path":     root.Path,
		"label":    root.Label,
		"tolerant": root.TolerateMissing,
	}).Debug("Walking root")

	files, err := w.visit(root, root.Path, 0, 0)
	if err != nil {
		w.log.WithFields(logger.Fields{
			"path":  root.Path,
			"error": err,
		}).Debug("Walk failed")
		return nil, err
	}

	w.log.WithFields(logger.Fields{
		"path":  root.Path,
		"files": len(files),
	}).Debug("Walk completed")

	return files, nil
}

// visit classifies path and dispatches on its type. A nil slice with a nil
// error means the entry contributed nothing, either by policy or because it
// did not match.
func (w *walker) visit(root RootSpec, path string, depth, links int) ([]DiscoveredFile, error) {
	kind, err := w.classifier.Classify(path)
	if err != nil {
		return nil, w.accessFailure(root, path, err)
	}

	w.log.WithFields(logger.Fields{
		"path":  path,
		"type":  kind.String(),
		"depth": depth,
	}).Trace("Classified entry")

	switch kind {
	case classify.Directory:
		return w.visitDir(root, path, depth, links)
	case classify.Regular:
		return w.collect(root, path), nil
	case classify.SymbolicLink:
		return w.visitLink(root, path, depth, links)
	default:
		return nil, w.anomaly(root, w.reporter.Fail(diag.UnexpectedType, path, nil), true)
	}
}

// visitDir lists path and visits each child in sorted order. The first fatal
// child error discards everything collected for this root.
func (w *walker) visitDir(root RootSpec, path string, depth, links int) ([]DiscoveredFile, error) {
	if w.config.MaxDepth >= 0 && depth > w.config.MaxDepth {
		w.log.WithFields(logger.Fields{
			"path":  path,
			"depth": depth,
		}).Debug("Max depth reached")
		return nil, nil
	}

	w.stats.dirsVisited.Add(1)

	names, err := w.readDirNames(path)
	if err != nil {
		return nil, w.accessFailure(root, path, err)
	}
	sort.Strings(names)

	var files []DiscoveredFile
	for _, name := range names {
		child := filepath.Join(path, name)

		if w.shouldIgnore(root, child) {
			w.stats.entriesSkipped.Add(1)
			w.log.WithFields(logger.Fields{
				"path": child,
			}).Debug("Ignoring path")
			continue
		}

		found, err := w.visit(root, child, depth+1, links)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	return files, nil
}

// visitLink follows the link at path until it reaches something that is not
// a link. The entry keeps the link's own path so it stays inside the root.
func (w *walker) visitLink(root RootSpec, path string, depth, links int) ([]DiscoveredFile, error) {
	current := path
	for {
		if links >= w.config.MaxLinkDepth {
			cause := fmt.Errorf("more than %d levels of symbolic links", w.config.MaxLinkDepth)
			return nil, w.anomaly(root, w.reporter.Fail(diag.UnexpectedType, path, cause), false)
		}
		links++

		target, err := classify.Readlink(w.fs, current)
		if err != nil {
			return nil, w.anomaly(root, w.reporter.Fail(diag.Underlying, path, err), false)
		}

		kind, err := w.classifier.Classify(target)
		if err != nil {
			return nil, w.accessFailure(root, path, err)
		}

		w.log.WithFields(logger.Fields{
			"path":   path,
			"target": target,
			"type":   kind.String(),
			"links":  links,
		}).Trace("Resolved symlink")

		switch kind {
		case classify.Directory:
			return w.visitDir(root, path, depth, links)
		case classify.Regular:
			return w.collect(root, path), nil
		case classify.SymbolicLink:
			current = target
		default:
			cause := fmt.Errorf("link target %s", target)
			return nil, w.anomaly(root, w.reporter.Fail(diag.UnexpectedType, path, cause), true)
		}
	}
}

func (w *walker) collect(root RootSpec, path string) []DiscoveredFile {
	if w.config.Match != nil && !w.config.Match(path) {
		w.log.WithFields(logger.Fields{
			"path": path,
		}).Trace("File does not match")
		return nil
	}

	w.stats.filesMatched.Add(1)
	return []DiscoveredFile{{Path: path, Root: root}}
}

// anomaly applies the root's policy. Tolerable anomalies under a tolerant
// root become a warning and a nil error.
func (w *walker) anomaly(root RootSpec, err *diag.LoadError, tolerable bool) error {
	if tolerable && root.TolerateMissing {
		w.stats.warnings.Add(1)
		w.reporter.Warn(err.Path, err)
		return nil
	}
	return err
}

// accessFailure classifies a failed filesystem call on path. Only permission
// denial and absence are NotAccessible; anything else (EIO, ELOOP,
// ENAMETOOLONG) is Underlying and fatal under every root.
func (w *walker) accessFailure(root RootSpec, path string, err error) error {
	if isAccessError(err) {
		return w.anomaly(root, w.reporter.Fail(diag.NotAccessible, path, err), true)
	}
	return w.anomaly(root, w.reporter.Fail(diag.Underlying, path, err), false)
}

// isAccessError reports whether err means the path is denied or absent. A
// path component that is not a directory counts as absent.
func isAccessError(err error) bool {
	return errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, syscall.ENOTDIR)
}

func (w *walker) readDirNames(path string) ([]string, error) {
	f, err := w.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.Readdirnames(-1)
}

// shouldIgnore checks if a path should be ignored based on ignore patterns
func (w *walker) shouldIgnore(root RootSpec, path string) bool {
	if len(w.config.IgnorePatterns) == 0 {
		return false
	}

	base := filepath.Base(path)
	rel, err := filepath.Rel(root.Path, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range w.config.IgnorePatterns {
		pattern = filepath.ToSlash(pattern)

		// Direct base name match
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}

		// Directory patterns (ending with /) match the entry and everything below it
		if strings.HasSuffix(pattern, "/") {
			dirPattern := strings.TrimSuffix(pattern, "/")
			if strings.Contains("/"+rel+"/", "/"+dirPattern+"/") {
				return true
			}
			continue
		}

		if strings.Contains(pattern, "/") {
			if matched, _ := filepath.Match(pattern, rel); matched {
				return true
			}
			if strings.HasPrefix(pattern, "**/") {
				suffix := strings.TrimPrefix(pattern, "**/")
				if matched, _ := filepath.Match(suffix, base); matched {
					return true
				}
			}
		}
	}

	return false
}
