package display

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// ConsoleWidth is the character width the console renderer pads to.
const ConsoleWidth = 16

// Console renders the display on a terminal line. On a TTY the line is
// redrawn in place; otherwise a line is written at most once per
// interval so logs are not flooded at the refresh rate.
type Console struct {
	w        io.Writer
	tty      bool
	interval time.Duration
	now      func() time.Time

	align     Alignment
	intensity int
	text      string
	lastLine  time.Time
}

// NewConsole creates a console display on stdout.
func NewConsole() *Console {
	return NewConsoleWriter(os.Stdout, term.IsTerminal(int(os.Stdout.Fd())), time.Second, time.Now)
}

// NewConsoleWriter creates a console display on w. tty selects in-place
// redraw; interval throttles non-TTY output.
func NewConsoleWriter(w io.Writer, tty bool, interval time.Duration, now func() time.Time) *Console {
	return &Console{w: w, tty: tty, interval: interval, now: now}
}

// Clear blanks the line.
func (c *Console) Clear() error {
	c.text = ""
	if c.tty {
		_, err := fmt.Fprint(c.w, "\r"+strings.Repeat(" ", ConsoleWidth)+"\r")
		return err
	}
	return nil
}

// SetAlignment applies to subsequent Print calls.
func (c *Console) SetAlignment(a Alignment) error {
	c.align = a
	return nil
}

// SetIntensity maps brightness onto bold/faint text.
func (c *Console) SetIntensity(level int) error {
	if err := checkIntensity(level); err != nil {
		return err
	}
	c.intensity = level
	return nil
}

// Print shows text.
func (c *Console) Print(text string) error {
	if text == c.text {
		return nil
	}
	prev := c.text
	c.text = text

	if !c.tty {
		now := c.now()
		// Status strings always get a line; clock readings are throttled.
		if prev != "" && isReading(prev) && isReading(text) && now.Sub(c.lastLine) < c.interval {
			return nil
		}
		c.lastLine = now
		_, err := fmt.Fprintln(c.w, text)
		return err
	}

	_, err := c.style().Fprint(c.w, "\r"+c.pad(text))
	return err
}

// Close ends the in-place line.
func (c *Console) Close() error {
	if c.tty {
		_, err := fmt.Fprintln(c.w)
		return err
	}
	return nil
}

func (c *Console) style() *color.Color {
	if c.intensity >= 8 {
		return color.New(color.FgHiGreen, color.Bold)
	}
	return color.New(color.FgGreen)
}

func (c *Console) pad(text string) string {
	if len(text) >= ConsoleWidth {
		return text[:ConsoleWidth]
	}
	left := 0
	if c.align == AlignCenter {
		left = (ConsoleWidth - len(text)) / 2
	}
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", ConsoleWidth-len(text)-left)
}

// isReading reports whether text looks like an HH:MM:SS:mmm reading.
func isReading(text string) bool {
	return len(text) == 12 && text[2] == ':' && text[5] == ':' && text[8] == ':'
}
