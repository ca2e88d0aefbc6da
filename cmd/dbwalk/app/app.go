/*
Package app provides the application container for dbwalk. It owns the logger,
diagnostic reporter, loader, formatter and progress display, runs load passes
and writes their output.

Usage:

	application := app.New(&cfg)
	defer application.Shutdown()

	if err := application.Scan(cfg.Roots(), &app.ScanOptions{Format: output.FormatList}); err != nil {
	    log.Fatal(err)
	}
*/
package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sonemaro/dbwalk/internal/config"
	"github.com/sonemaro/dbwalk/pkg/diag"
	"github.com/sonemaro/dbwalk/pkg/loader"
	"github.com/sonemaro/dbwalk/pkg/logger"
	"github.com/sonemaro/dbwalk/pkg/output"
	"github.com/sonemaro/dbwalk/pkg/progress"
	"github.com/sonemaro/dbwalk/pkg/walker"
	"github.com/spf13/afero"
)

// ScanOptions defines the options for a scan operation
type ScanOptions struct {
	// Format selects the output format
	Format output.Format

	// OutputPath is the output file (empty for stdout)
	OutputPath string

	// WithStats appends walk statistics to the output
	WithStats bool
}

// Option customizes an App
type Option func(*App)

// WithFs replaces the filesystem the loader reads from.
func WithFs(fs afero.Fs) Option {
	return func(a *App) { a.fs = fs }
}

// WithStdout replaces the writer used when no output file is set.
func WithStdout(w io.Writer) Option {
	return func(a *App) { a.stdout = w }
}

// WithStderr replaces the writer for logs and progress.
func WithStderr(w io.Writer) Option {
	return func(a *App) { a.stderr = w }
}

// App represents the main application container
type App struct {
	config *config.Config
	log    logger.Logger

	fs       afero.Fs
	stdout   io.Writer
	stderr   io.Writer
	reporter *diag.Reporter
	loader   *loader.Loader
	progress progress.Progress

	signals chan os.Signal
	done    chan struct{}
	exit    func(int)
	mu      sync.RWMutex
	closed  bool
}

// New creates a new application instance
func New(cfg *config.Config, opts ...Option) *App {
	a := &App{
		config:  cfg,
		fs:      afero.NewOsFs(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		signals: make(chan os.Signal, 1),
		done:    make(chan struct{}),
		exit:    os.Exit,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.initLogger()
	a.initComponents()
	a.setupSignalHandling()

	a.log.WithFields(logger.Fields{
		"workers": cfg.Workers,
		"verbose": cfg.Verbose,
		"config":  cfg.ConfigFile,
	}).Debug("Application initialized")

	return a
}

// Scan runs one load pass over roots and writes the formatted result
func (a *App) Scan(roots []walker.RootSpec, opts *ScanOptions) (err error) {
	defer func() {
		if r := recover(); r != nil {
			a.log.WithFields(logger.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("Recovered from panic")
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if opts == nil {
		opts = &ScanOptions{}
	}

	a.mu.RLock()
	ld, prog, cfg := a.loader, a.progress, a.config
	a.mu.RUnlock()

	roots, err = absRoots(roots)
	if err != nil {
		return err
	}

	a.log.WithFields(logger.Fields{
		"roots":  len(roots),
		"format": opts.Format,
		"file":   opts.OutputPath,
	}).Info("Starting scan operation")

	a.reporter.Reset()
	prog.Start("Loading")

	files, err := ld.LoadAll(roots)
	if err != nil {
		prog.Error(fmt.Sprintf("Load failed: %v", err))
		return fmt.Errorf("load failed: %w", err)
	}

	stats := ld.Stats()
	result := &output.Result{
		RunID:    ld.RunID(),
		Roots:    roots,
		Files:    files,
		Warnings: a.reporter.Warnings(),
		Stats:    &stats,
	}

	formatter := output.NewFormatter(output.Config{
		Format:     opts.Format,
		WithStats:  opts.WithStats,
		WithColors: a.useColor(cfg, opts.OutputPath),
	}, a.log)

	formatted, err := formatter.Format(result)
	if err != nil {
		prog.Error(fmt.Sprintf("Formatting failed: %v", err))
		return fmt.Errorf("output formatting failed: %w", err)
	}

	prog.Complete(fmt.Sprintf("Loaded %d files", len(files)))

	if err := a.writeOutput(formatted, opts.OutputPath); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	a.log.WithFields(logger.Fields{
		"run":      result.RunID,
		"files":    len(files),
		"warnings": len(result.Warnings),
		"outputTo": opts.OutputPath,
	}).Info("Scan operation completed")

	return nil
}

// Config returns the active configuration
func (a *App) Config() config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return *a.config
}

// Logger returns the application logger
func (a *App) Logger() logger.Logger {
	return a.log
}

// Shutdown releases signal handlers and clears the progress display
func (a *App) Shutdown() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	a.log.Debug("Shutting down")

	a.stopSignalHandling()
	a.progress.Stop()
	close(a.done)

	return nil
}

// initLogger initializes the application logger
func (a *App) initLogger() {
	a.log = logger.NewLogger(logger.Config{
		Verbosity: a.config.Verbose,
		Output:    a.stderr,
		Name:      diag.Domain,
		Format:    a.config.LogFormat,
	})

	a.log.WithFields(logger.Fields{
		"verbosity": a.config.Verbose,
	}).Debug("Logger initialized")
}

// initComponents builds the components that depend on configuration. It is
// called again after a configuration reload.
func (a *App) initComponents() {
	a.log.Debug("Initializing application components")

	if a.reporter == nil {
		a.reporter = diag.NewReporter(a.log)
	}

	a.progress = progress.Nop()
	if !a.config.NoProgress {
		p := progress.New(progress.Config{
			Style:   progress.StyleBar,
			NoColor: a.config.NoColor,
			Writer:  a.stderr,
		}, a.log)
		if p.IsSupportedTerminal() {
			a.progress = p
		}
	}

	a.loader = loader.New(a.config.LoaderConfig(), a.fs, a.reporter, a.log).WithProgress(a.progress)

	a.log.Debug("Components initialized successfully")
}

// useColor enables colors only for a terminal stdout
func (a *App) useColor(cfg *config.Config, outputPath string) bool {
	if cfg.NoColor || outputPath != "" {
		return false
	}
	f, ok := a.stdout.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// writeOutput writes the formatted output to the specified destination
func (a *App) writeOutput(content string, outputPath string) error {
	if outputPath == "" {
		if _, err := io.WriteString(a.stdout, content); err != nil {
			a.log.WithFields(logger.Fields{
				"error": err,
			}).Error("Failed to write to stdout")
			return err
		}
		return nil
	}

	if err := output.WriteFile(outputPath, []byte(content)); err != nil {
		a.log.WithFields(logger.Fields{
			"error": err,
			"path":  outputPath,
		}).Error("Failed to write output file")
		return err
	}

	a.log.WithFields(logger.Fields{
		"path": outputPath,
	}).Info("Output written successfully")
	return nil
}

func absRoots(roots []walker.RootSpec) ([]walker.RootSpec, error) {
	out := make([]walker.RootSpec, len(roots))
	for i, root := range roots {
		out[i] = root
		if root.Path == "" {
			continue
		}
		abs, err := filepath.Abs(root.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root %s: %w", root.Path, err)
		}
		out[i].Path = abs
	}
	return out, nil
}
