/*
Package loader runs the discovery walk over an ordered list of roots and
concatenates what each root contributes.

A pass is all-or-nothing: the first fatal error from any root aborts the load
and no files are returned. Tolerant roots that are missing or unreadable add a
warning and nothing else. With more than one worker the roots are walked
concurrently, but files, warnings and the reported error are merged back in
root order so the result is the same as a sequential pass.

	l := loader.New(loader.Config{
		Walker: walker.Config{Match: walker.MatchExtensions(".xml"), MaxDepth: -1},
	}, afero.NewOsFs(), reporter, log)

	files, err := l.LoadAll(roots)
*/
package loader

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sonemaro/dbwalk/pkg/diag"
	"github.com/sonemaro/dbwalk/pkg/logger"
	"github.com/sonemaro/dbwalk/pkg/progress"
	"github.com/sonemaro/dbwalk/pkg/walker"
	"github.com/sonemaro/dbwalk/pkg/worker"
	"github.com/spf13/afero"
)

// Config holds the loader configuration
type Config struct {
	// Workers is the number of roots walked at once (<= 1 walks sequentially)
	Workers int

	// RateLimit caps root walk starts per second when Workers > 1 (0 for unlimited)
	RateLimit int

	// Walker configures each root walk
	Walker walker.Config
}

// Loader walks a set of roots for one load pass at a time.
type Loader struct {
	config   Config
	fs       afero.Fs
	reporter *diag.Reporter
	log      logger.Logger
	progress progress.Progress

	mu    sync.Mutex
	stats walker.StatsSnapshot
	runID string
}

// New creates a Loader reading from fs.
func New(config Config, fs afero.Fs, reporter *diag.Reporter, log logger.Logger) *Loader {
	if log == nil {
		log = logger.NewNop()
	}
	if reporter == nil {
		reporter = diag.NewReporter(log)
	}

	return &Loader{
		config:   config,
		fs:       fs,
		reporter: reporter,
		log:      log,
		progress: progress.Nop(),
	}
}

// WithProgress sets the progress display updated after each root.
func (l *Loader) WithProgress(p progress.Progress) *Loader {
	if p == nil {
		p = progress.Nop()
	}
	l.progress = p
	return l
}

// Stats returns the walk counters of the most recent pass.
func (l *Loader) Stats() walker.StatsSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// RunID returns the identifier of the most recent pass.
func (l *Loader) RunID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.runID
}

// LoadAll walks roots in order and returns every discovered file, or nil and
// the first fatal error in root order.
func (l *Loader) LoadAll(roots []walker.RootSpec) ([]walker.DiscoveredFile, error) {
	runID := uuid.NewString()
	log := l.log.WithFields(logger.Fields{"run": runID})

	l.mu.Lock()
	l.runID = runID
	l.stats = walker.StatsSnapshot{}
	l.mu.Unlock()

	log.WithFields(logger.Fields{
		"roots":   len(roots),
		"workers": l.config.Workers,
	}).Info("Loading roots")

	var (
		files []walker.DiscoveredFile
		stats walker.StatsSnapshot
		err   error
	)
	if l.config.Workers > 1 && len(roots) > 1 {
		files, stats, err = l.loadConcurrent(roots, log)
	} else {
		files, stats, err = l.loadSequential(roots, log)
	}

	l.mu.Lock()
	l.stats = stats
	l.mu.Unlock()

	if err != nil {
		log.WithFields(logger.Fields{"error": err}).Error("Load failed")
		return nil, err
	}

	log.WithFields(logger.Fields{
		"files":    len(files),
		"warnings": stats.Warnings,
	}).Info("Load completed")

	return files, nil
}

func (l *Loader) loadSequential(roots []walker.RootSpec, log logger.Logger) ([]walker.DiscoveredFile, walker.StatsSnapshot, error) {
	w := walker.New(l.config.Walker, l.fs, l.reporter, log)

	var files []walker.DiscoveredFile
	for i, root := range roots {
		l.progress.Update(progress.Status{
			Current:     i,
			Total:       len(roots),
			CurrentItem: root.Path,
			Files:       len(files),
		})

		found, err := w.Walk(root)
		if err != nil {
			return nil, w.Stats(), err
		}
		files = append(files, found...)
	}

	l.progress.Update(progress.Status{Current: len(roots), Total: len(roots), Files: len(files)})
	return files, w.Stats(), nil
}

// rootOutcome is what one concurrent root walk hands back to the merge step.
type rootOutcome struct {
	files    []walker.DiscoveredFile
	warnings []diag.Warning
	stats    walker.StatsSnapshot
	err      error
}

func (l *Loader) loadConcurrent(roots []walker.RootSpec, log logger.Logger) ([]walker.DiscoveredFile, walker.StatsSnapshot, error) {
	workers := l.config.Workers
	if workers > len(roots) {
		workers = len(roots)
	}

	pool, err := worker.NewPool(worker.Config{
		Workers:   workers,
		RateLimit: l.config.RateLimit,
	})
	if err != nil {
		return nil, walker.StatsSnapshot{}, fmt.Errorf("failed to create worker pool: %w", err)
	}
	if err := pool.Start(context.Background()); err != nil {
		return nil, walker.StatsSnapshot{}, fmt.Errorf("failed to start worker pool: %w", err)
	}
	defer pool.Stop()

	var done, found atomic.Int64
	for i, root := range roots {
		i, root := i, root
		task := worker.Task{
			ID: i,
			Execute: func(ctx context.Context) (worker.Result, error) {
				// warnings are buffered and replayed in root order by the merge step
				reporter := diag.NewReporter(nil)
				w := walker.New(l.config.Walker, l.fs, reporter, log.WithFields(logger.Fields{"root": i}))

				files, err := w.Walk(root)

				l.progress.Update(progress.Status{
					Current:     int(done.Add(1)),
					Total:       len(roots),
					CurrentItem: root.Path,
					Files:       int(found.Add(int64(len(files)))),
				})

				return worker.Result{ID: i, Data: rootOutcome{
					files:    files,
					warnings: reporter.Warnings(),
					stats:    w.Stats(),
					err:      err,
				}}, nil
			},
		}
		if err := pool.Submit(task); err != nil {
			return nil, walker.StatsSnapshot{}, fmt.Errorf("failed to submit root %s: %w", root.Path, err)
		}
	}

	results, err := pool.Wait()
	if err != nil {
		return nil, walker.StatsSnapshot{}, err
	}

	var (
		files []walker.DiscoveredFile
		stats walker.StatsSnapshot
	)
	for _, result := range results {
		outcome := result.Data.(rootOutcome)
		for _, warning := range outcome.warnings {
			l.reporter.Warn(warning.Path, warning.Cause)
		}
		stats = stats.Add(outcome.stats)
		if outcome.err != nil {
			return nil, stats, outcome.err
		}
		files = append(files, outcome.files...)
	}

	return files, stats, nil
}
