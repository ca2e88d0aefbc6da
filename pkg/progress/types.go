package progress

import "io"

// Style represents the type of progress visualization
type Style string

const (
	// StyleBar shows a progress bar with percentage
	StyleBar Style = "bar"

	// StyleSimple shows one text line per update
	StyleSimple Style = "simple"
)

// Config holds the configuration for progress visualization
type Config struct {
	// Style defines how progress should be displayed
	Style Style

	// Width is the maximum width for the progress bar (0 = auto-detect)
	Width int

	// NoColor disables colored output
	NoColor bool

	// Writer receives the rendered output. Defaults to os.Stderr.
	Writer io.Writer
}

// Status describes how far a load pass has got
type Status struct {
	// Current is the number of roots finished so far
	Current int

	// Total is the number of roots in the pass
	Total int

	// CurrentItem is the root being walked
	CurrentItem string

	// Files is the number of files discovered so far
	Files int
}

// Progress defines the interface for progress visualization
type Progress interface {
	// Start begins progress visualization with initial message
	Start(message string)

	// Update updates the progress status
	Update(status Status)

	// Complete marks the operation as successfully completed
	Complete(message string)

	// Error marks the operation as failed
	Error(message string)

	// Stop clears any partial line left on a terminal
	Stop()

	// IsSupportedTerminal checks if the writer is a terminal
	IsSupportedTerminal() bool
}

// Nop returns a Progress that renders nothing.
func Nop() Progress { return nopProgress{} }

type nopProgress struct{}

func (nopProgress) Start(string)              {}
func (nopProgress) Update(Status)             {}
func (nopProgress) Complete(string)           {}
func (nopProgress) Error(string)              {}
func (nopProgress) Stop()                     {}
func (nopProgress) IsSupportedTerminal() bool { return false }
