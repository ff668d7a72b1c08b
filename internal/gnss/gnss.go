// Package gnss reads time fixes from a satellite receiver.
// The receiver speaks NMEA 0183 over a serial port; only time, date and
// satellite count are extracted. The fake implementation allows testing
// without hardware.
package gnss

import (
	"context"
	"errors"
)

// DefaultBaud is the receiver's factory line rate.
const DefaultBaud = 9600

// ErrClosed is returned by Next after Close.
var ErrClosed = errors.New("gnss: feed closed")

// Frame is one decoded sentence's view of the receiver state.
// Satellites carries over from the last sentence that reported it.
type Frame struct {
	Sentence   string // NMEA data type, e.g. "GGA"
	TimeValid  bool
	Hour       int
	Minute     int
	Second     int
	DateValid  bool
	Day        int
	Month      int
	Year       int
	Satellites int
}

// Feed produces decoded frames from a receiver.
type Feed interface {
	// Next blocks until the next sentence carrying time or satellite
	// information has been decoded, ctx is done or the feed fails.
	Next(ctx context.Context) (Frame, error)

	// Close releases the underlying port.
	Close() error
}
