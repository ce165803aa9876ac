package progress

import (
	"fmt"
	"io"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
)

const maxTitleWidth = 60

// Console renders progress events as a progress bar with one line per
// message.
type Console struct {
	out   io.Writer
	bar   *progressbar.ProgressBar
	stage Stage
}

// NewConsole creates a console renderer writing to out. A nil out means an
// ANSI aware stdout.
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = ansi.NewAnsiStdout()
	}
	return &Console{out: out}
}

// Listener returns the listener to register on a ProgressTracker.
func (c *Console) Listener() Listener {
	return c.handle
}

func (c *Console) handle(event Event) {
	if event.Stage != c.stage {
		c.finish()
		c.stage = event.Stage
	}

	switch {
	case event.Error != "":
		c.println("Error: " + event.Error)
	case event.TrackDetails != nil:
		c.track(event.Stage, event.TrackDetails)
	case event.Message != "":
		c.println(event.Message)
	}
}

func (c *Console) track(stage Stage, details *TrackDetails) {
	if c.bar == nil {
		c.bar = progressbar.NewOptions(
			details.TotalTracks,
			progressbar.OptionSetWriter(c.out),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetTheme(progressbar.ThemeASCII),
			progressbar.OptionFullWidth(),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	c.bar.Describe(fmt.Sprintf("[cyan]%s[reset] %s", stage, truncate(details.CurrentTrack, maxTitleWidth)))
	c.bar.Set(details.TrackNumber - 1)
}

func (c *Console) println(message string) {
	if c.bar != nil {
		c.bar.Clear()
	}
	fmt.Fprintln(c.out, message)
}

func (c *Console) finish() {
	if c.bar == nil {
		return
	}
	c.bar.Finish()
	c.bar = nil
}

// truncate shortens s to at most width runes, marking the cut with an
// ellipsis.
func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}
