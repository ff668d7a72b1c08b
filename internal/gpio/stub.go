//go:build !linux

package gpio

import "errors"

// RealWatcher is not available on non-Linux platforms.
type RealWatcher struct{}

// NewRealWatcher returns an error on non-Linux platforms.
func NewRealWatcher(chipName string, pin int, onEdge func()) (*RealWatcher, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Read is not implemented on non-Linux platforms.
func (w *RealWatcher) Read() (bool, error) {
	return false, errors.New("gpio: not supported")
}

// Edges always returns 0 on non-Linux platforms.
func (w *RealWatcher) Edges() uint64 {
	return 0
}

// Close is not implemented on non-Linux platforms.
func (w *RealWatcher) Close() error {
	return nil
}
