package gnss

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

const (
	// readTimeout bounds each port read so Next notices ctx cancellation.
	readTimeout = 250 * time.Millisecond
	// maxLine is longer than any legal sentence (82 bytes); longer runs
	// without a newline are line noise and get discarded.
	maxLine = 512
)

// Port is the byte stream a Receiver reads from. go.bug.st/serial ports
// satisfy it; a read timeout surfaces as (0, nil).
type Port interface {
	Read(p []byte) (int, error)
	Close() error
}

// Receiver is a Feed backed by an NMEA byte stream.
type Receiver struct {
	port    Port
	dec     *Decoder
	pending []byte
	chunk   []byte
	closed  bool
}

// Open opens the receiver's serial port.
func Open(device string, baud int) (*Receiver, error) {
	if baud == 0 {
		baud = DefaultBaud
	}
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", device, err)
	}
	// Drop whatever queued up while nobody was listening.
	if err := port.ResetInputBuffer(); err != nil {
		log.WithField("component", "gnss").Debugf("reset input buffer on %s: %v", device, err)
	}
	return NewReceiver(port), nil
}

// NewReceiver wraps an already open port.
func NewReceiver(port Port) *Receiver {
	return &Receiver{
		port:  port,
		dec:   NewDecoder(),
		chunk: make([]byte, 256),
	}
}

// Next returns the next decoded frame. Sentences that fail to parse
// (bad checksum, truncated) are skipped.
func (r *Receiver) Next(ctx context.Context) (Frame, error) {
	for {
		if r.closed {
			return Frame{}, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}

		if line, ok := r.nextLine(); ok {
			if len(line) == 0 || line[0] != '$' {
				continue
			}
			frame, ok, err := r.dec.Decode(line)
			if err != nil {
				log.WithField("component", "gnss").Debugf("skipping %q: %v", line, err)
				continue
			}
			if ok {
				return frame, nil
			}
			continue
		}

		n, err := r.port.Read(r.chunk)
		if n > 0 {
			r.pending = append(r.pending, r.chunk[:n]...)
			if len(r.pending) > maxLine && bytes.IndexByte(r.pending, '\n') < 0 {
				r.pending = r.pending[:0]
			}
		}
		if err != nil {
			if err == io.EOF {
				return Frame{}, io.EOF
			}
			return Frame{}, fmt.Errorf("read receiver: %w", err)
		}
	}
}

// nextLine pops one complete line from the pending buffer.
func (r *Receiver) nextLine() (string, bool) {
	i := bytes.IndexByte(r.pending, '\n')
	if i < 0 {
		return "", false
	}
	line := string(bytes.TrimSpace(r.pending[:i]))
	r.pending = r.pending[i+1:]
	return line, true
}

// Close releases the port. Further Next calls return ErrClosed.
func (r *Receiver) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.port.Close()
}
