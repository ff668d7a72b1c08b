//go:build linux

package gpio

import (
	"fmt"
	"sync/atomic"

	"github.com/warthog618/go-gpiocdev"
)

// RealWatcher watches the PPS line on actual hardware using the Linux
// GPIO character device.
type RealWatcher struct {
	chip  *gpiocdev.Chip
	line  *gpiocdev.Line
	edges atomic.Uint64
}

// NewRealWatcher requests pin on chip as an edge-detecting input and
// calls onEdge from the event goroutine for every rising edge. onEdge
// must not block.
func NewRealWatcher(chipName string, pin int, onEdge func()) (*RealWatcher, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("gps-clock"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	w := &RealWatcher{chip: chip}
	handler := func(gpiocdev.LineEvent) {
		w.edges.Add(1)
		onEdge()
	}

	// Pull-down keeps the line quiet while the receiver is unpowered.
	line, err := chip.RequestLine(pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithEventHandler(handler),
	)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request PPS pin %d: %w", pin, err)
	}
	w.line = line
	return w, nil
}

// Read returns the raw PPS level.
func (w *RealWatcher) Read() (bool, error) {
	v, err := w.line.Value()
	if err != nil {
		return false, fmt.Errorf("read PPS pin: %w", err)
	}
	return v == 1, nil
}

// Edges returns the number of rising edges seen.
func (w *RealWatcher) Edges() uint64 {
	return w.edges.Load()
}

// Close releases GPIO resources.
// The line is left as an input with pull-down, matching Pi boot defaults.
func (w *RealWatcher) Close() error {
	var errs []error

	if w.line != nil {
		if err := w.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure PPS pin: %w", err))
		}
		if err := w.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close PPS pin: %w", err))
		}
	}
	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
