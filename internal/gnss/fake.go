package gnss

import "context"

// FakeFeed is a test double that returns scripted frames.
type FakeFeed struct {
	// Frames are returned in order by Next.
	Frames []Frame

	// Err, if set, is returned once Frames are exhausted. Otherwise Next
	// blocks until ctx is done, like a receiver that went quiet.
	Err error

	// Calls counts Next invocations.
	Calls int

	// Closed tracks if Close was called.
	Closed bool

	index int
}

// NewFakeFeed creates a FakeFeed with the given frames.
func NewFakeFeed(frames ...Frame) *FakeFeed {
	return &FakeFeed{Frames: frames}
}

// Next returns the next scripted frame.
func (f *FakeFeed) Next(ctx context.Context) (Frame, error) {
	f.Calls++
	if f.Closed {
		return Frame{}, ErrClosed
	}
	if f.index < len(f.Frames) {
		fr := f.Frames[f.index]
		f.index++
		return fr, nil
	}
	if f.Err != nil {
		return Frame{}, f.Err
	}
	<-ctx.Done()
	return Frame{}, ctx.Err()
}

// Close marks the feed as closed.
func (f *FakeFeed) Close() error {
	f.Closed = true
	return nil
}
