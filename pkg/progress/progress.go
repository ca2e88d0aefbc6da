package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/sonemaro/dbwalk/pkg/logger"
	"golang.org/x/term"
)

type progress struct {
	config Config
	log    logger.Logger
	writer io.Writer

	status    Status
	startTime time.Time
	message   string
	active    bool

	renderer renderer
	colors   palette
	width    int

	mu sync.Mutex
}

// New creates a new progress visualization instance
func New(config Config, log logger.Logger) Progress {
	if log == nil {
		log = logger.NewNop()
	}

	p := &progress{
		config: config,
		log:    log,
		writer: config.Writer,
	}
	if p.writer == nil {
		p.writer = os.Stderr
	}

	if p.config.Width == 0 {
		p.width = p.terminalWidth()
	} else {
		p.width = p.config.Width
	}

	p.colors = newPalette(p.config.NoColor)
	p.renderer = p.createRenderer()

	p.log.WithFields(logger.Fields{
		"style":   p.config.Style,
		"width":   p.width,
		"noColor": p.config.NoColor,
	}).Debug("Created new progress instance")

	return p
}

func (p *progress) Start(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.log.WithFields(logger.Fields{"message": message}).Debug("Starting progress")

	p.message = message
	p.status = Status{}
	p.startTime = time.Now()
	p.active = true
	p.render()
}

func (p *progress) Update(status Status) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.log.WithFields(logger.Fields{
		"current": status.Current,
		"total":   status.Total,
		"item":    status.CurrentItem,
	}).Trace("Updating progress")

	p.status = status
	if p.active {
		p.render()
	}
}

func (p *progress) Complete(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.log.WithFields(logger.Fields{"message": message}).Debug("Completing progress")

	p.status.Current = p.status.Total
	p.status.CurrentItem = ""
	p.finish(fmt.Sprintf("%s (%s)", message, formatDuration(time.Since(p.startTime))), p.colors.done)
}

func (p *progress) Error(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.log.WithFields(logger.Fields{"message": message}).Debug("Error in progress")

	p.finish(message, p.colors.failed)
}

func (p *progress) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active {
		p.clearLine()
		fmt.Fprintln(p.writer)
		p.active = false
	}
}

func (p *progress) IsSupportedTerminal() bool {
	if f, ok := p.writer.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

func (p *progress) finish(message string, c *color.Color) {
	if !p.active {
		return
	}
	p.clearLine()
	fmt.Fprintln(p.writer, c.Sprint(message))
	p.active = false
}

func (p *progress) render() {
	line := p.renderer.render(p.status, p.message)
	if p.config.Style == StyleSimple {
		fmt.Fprintln(p.writer, line)
		return
	}
	p.clearLine()
	fmt.Fprint(p.writer, line)
}

func (p *progress) clearLine() {
	if p.config.Style == StyleSimple {
		return
	}
	if p.IsSupportedTerminal() {
		fmt.Fprint(p.writer, "\r\033[K")
	} else {
		fmt.Fprint(p.writer, "\r")
	}
}

func (p *progress) terminalWidth() int {
	if f, ok := p.writer.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil {
			return w
		}
	}
	return 80
}

func (p *progress) createRenderer() renderer {
	switch p.config.Style {
	case StyleSimple:
		return &simpleRenderer{colors: p.colors}
	default:
		return &barRenderer{width: p.width, colors: p.colors}
	}
}
