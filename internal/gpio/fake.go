package gpio

import (
	"sync"
	"sync/atomic"
)

// FakeWatcher is a test double whose edges are fired by the test.
type FakeWatcher struct {
	onEdge func()
	edges  atomic.Uint64

	mu sync.Mutex
	// Level is returned by Read.
	Level bool
	// ReadError, if set, will be returned by Read().
	ReadError error
	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeWatcher creates a FakeWatcher that calls onEdge on Fire.
func NewFakeWatcher(onEdge func()) *FakeWatcher {
	return &FakeWatcher{onEdge: onEdge}
}

// Fire simulates one rising edge. Edges after Close are dropped, as
// with a released line.
func (f *FakeWatcher) Fire() {
	f.mu.Lock()
	closed := f.Closed
	f.mu.Unlock()
	if closed {
		return
	}
	f.edges.Add(1)
	if f.onEdge != nil {
		f.onEdge()
	}
}

// Read returns the scripted level.
func (f *FakeWatcher) Read() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadError != nil {
		return false, f.ReadError
	}
	return f.Level, nil
}

// Edges returns the number of fired edges.
func (f *FakeWatcher) Edges() uint64 {
	return f.edges.Load()
}

// Close marks the watcher as closed.
func (f *FakeWatcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
