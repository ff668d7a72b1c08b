// Package display drives the text output of the clock.
// The real implementation is a chain of MAX7219 8x8 LED modules on SPI;
// a console renderer and a recording fake allow running and testing
// without hardware.
package display

import "fmt"

// Alignment controls where text sits inside the display width.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
)

func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	default:
		return fmt.Sprintf("Alignment(%d)", int(a))
	}
}

// MaxIntensity is the brightest level a MAX7219 supports.
const MaxIntensity = 15

// Display shows one line of text.
type Display interface {
	// Clear blanks the display.
	Clear() error

	// SetAlignment changes how subsequent Print calls are placed.
	SetAlignment(a Alignment) error

	// SetIntensity sets brightness, 0 (dimmest) to MaxIntensity.
	SetIntensity(level int) error

	// Print replaces the displayed text.
	Print(text string) error

	// Close releases the device.
	Close() error
}

func checkIntensity(level int) error {
	if level < 0 || level > MaxIntensity {
		return fmt.Errorf("intensity %d out of range 0-%d", level, MaxIntensity)
	}
	return nil
}
