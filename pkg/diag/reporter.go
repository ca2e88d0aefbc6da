/*
Package diag formats path-bearing diagnostics for the discovery walk. Non-fatal
conditions become warnings written to the log under a fixed domain; fatal ones
become *LoadError values that the caller propagates.

	r := diag.NewReporter(log)
	r.Warn("/home/u/.config/dbwalk/db", err)           // logged, recorded
	return r.Fail(diag.NotAccessible, path, err)        // returned
*/
package diag

import (
	"fmt"
	"sync"

	"github.com/sonemaro/dbwalk/pkg/logger"
)

// Domain is the category attached to every diagnostic log entry.
const Domain = "dbwalk.loader"

// Warning is a recorded non-fatal diagnostic.
type Warning struct {
	Path    string `json:"path" yaml:"path" toml:"path"`
	Message string `json:"message" yaml:"message" toml:"message"`
	Cause   error  `json:"-" yaml:"-" toml:"-"`
}

// Reporter routes diagnostics to the log or into error values.
type Reporter struct {
	log      logger.Logger
	mu       sync.Mutex
	warnings []Warning
}

// NewReporter creates a Reporter writing warnings to log.
func NewReporter(log logger.Logger) *Reporter {
	if log == nil {
		log = logger.NewNop()
	}
	return &Reporter{log: log}
}

// Warn records and logs a non-fatal diagnostic for path. It never fails.
func (r *Reporter) Warn(path string, cause error) {
	w := Warning{
		Path:    path,
		Message: WarningMessage(path, cause),
		Cause:   cause,
	}

	r.mu.Lock()
	r.warnings = append(r.warnings, w)
	r.mu.Unlock()

	fields := logger.Fields{
		"domain": Domain,
		"path":   path,
	}
	if cause != nil {
		fields["error"] = cause
	}
	r.log.WithFields(fields).Warn(w.Message)
}

// Fail constructs the LoadError for kind. It performs no I/O.
func (r *Reporter) Fail(kind Kind, path string, cause error) *LoadError {
	return NewLoadError(kind, path, cause)
}

// Warnings returns the warnings recorded so far, oldest first.
func (r *Reporter) Warnings() []Warning {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Warning, len(r.warnings))
	copy(out, r.warnings)
	return out
}

// Reset discards recorded warnings.
func (r *Reporter) Reset() {
	r.mu.Lock()
	r.warnings = nil
	r.mu.Unlock()
}

// WarningMessage is the stable text used for a skipped path.
func WarningMessage(path string, cause error) string {
	if cause == nil {
		return fmt.Sprintf("Skipping path %s", path)
	}
	return fmt.Sprintf("Skipping path %s: %v", path, cause)
}
