package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
)

// palette holds the colors used by the renderers and the final line.
// Each color is forced on or off so the result does not depend on
// whether stdout happens to be a terminal.
type palette struct {
	bar    *color.Color
	item   *color.Color
	done   *color.Color
	failed *color.Color
}

func newPalette(noColor bool) palette {
	p := palette{
		bar:    color.New(color.FgGreen),
		item:   color.New(color.FgCyan),
		done:   color.New(color.FgGreen),
		failed: color.New(color.FgRed),
	}
	for _, c := range []*color.Color{p.bar, p.item, p.done, p.failed} {
		if noColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
	}
	return p
}

type renderer interface {
	render(Status, string) string
}

type barRenderer struct {
	width  int
	colors palette
}

func (r *barRenderer) render(status Status, message string) string {
	var output strings.Builder

	if message != "" {
		output.WriteString(message)
		output.WriteString(" ")
	}

	// reserve room for the message, counters and percentage
	barWidth := r.width - len(message) - 24
	if barWidth < 10 {
		barWidth = 10
	}

	fraction := ratio(status)
	filled := int(float64(barWidth) * fraction)
	if filled > barWidth {
		filled = barWidth
	}

	bar := strings.Repeat("=", filled)
	if filled < barWidth {
		bar += ">" + strings.Repeat(" ", barWidth-filled-1)
	}

	output.WriteString("[")
	output.WriteString(r.colors.bar.Sprint(bar))
	output.WriteString("]")
	output.WriteString(fmt.Sprintf(" %3.0f%% %d/%d", fraction*100, status.Current, status.Total))

	if status.CurrentItem != "" {
		output.WriteString(" ")
		output.WriteString(status.CurrentItem)
	}

	return output.String()
}

type simpleRenderer struct {
	colors palette
}

func (r *simpleRenderer) render(status Status, message string) string {
	if status.Total == 0 {
		return message
	}

	line := fmt.Sprintf("%s [%d/%d] %d files", message, status.Current, status.Total, status.Files)
	if status.CurrentItem != "" {
		line += " " + r.colors.item.Sprint(status.CurrentItem)
	}
	return line
}

func ratio(status Status) float64 {
	if status.Total <= 0 {
		return 0
	}
	r := float64(status.Current) / float64(status.Total)
	if r > 1 {
		r = 1
	}
	return r
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm%ds", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}
