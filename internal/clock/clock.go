package clock

import (
	"sync/atomic"
	"time"
)

// Policy configures how the clock behaves when the pulse source goes quiet.
type Policy struct {
	// HoldoverGrace is how far past 999 ms the millisecond counter may run
	// before the clock carries a second on its own. Must exceed the pulse
	// jitter, otherwise a late pulse counts the same second twice.
	HoldoverGrace time.Duration

	// ResyncEnabled returns the clock to UNSET once no pulse has been seen
	// for ResyncAfter, forcing a fresh acquisition.
	ResyncEnabled bool
	ResyncAfter   time.Duration
}

// DefaultPolicy returns holdover with a 50 ms grace and resync disabled.
func DefaultPolicy() Policy {
	return Policy{
		HoldoverGrace: 50 * time.Millisecond,
		ResyncAfter:   5 * time.Second,
	}
}

// Clock is the single owned clock state.
//
// Cross-goroutine fields are atomics with one designated writer each:
// the tick input increments millis and sincePulse, the pulse input sets
// pulse. Step is the only reader that acts on pulse and the only place
// the counters are reset. Everything else belongs to the main loop.
type Clock struct {
	millis     atomic.Int64
	sincePulse atomic.Int64
	pulse      atomic.Bool
	set        atomic.Bool

	hours    int
	minutes  int
	seconds  int
	holdover bool
	policy   Policy
	counters Counters
}

// New creates an unset clock.
func New(policy Policy) *Clock {
	return &Clock{policy: policy}
}

// TickInput is the write handle given to the 1 kHz tick source.
type TickInput struct {
	c *Clock
}

// TickInput returns the handle for the millisecond tick source.
func (c *Clock) TickInput() TickInput {
	return TickInput{c: c}
}

// Tick advances the millisecond counter by one. No-op while unset.
func (t TickInput) Tick() {
	t.Advance(1)
}

// Advance credits n ticks at once. No-op while unset or for n <= 0.
func (t TickInput) Advance(n int64) {
	if n <= 0 || !t.c.set.Load() {
		return
	}
	t.c.millis.Add(n)
	t.c.sincePulse.Add(n)
}

// PulseInput is the write handle given to the exact-second edge source.
type PulseInput struct {
	c *Clock
}

// PulseInput returns the handle for the pulse edge source.
func (c *Clock) PulseInput() PulseInput {
	return PulseInput{c: c}
}

// Pulse latches a second boundary. Safe to call from any goroutine and
// never blocks.
func (p PulseInput) Pulse() {
	p.c.pulse.Store(true)
}

// Phase reports whether the clock has been seeded.
func (c *Clock) Phase() Phase {
	if c.set.Load() {
		return PhaseRunning
	}
	return PhaseUnset
}

// Seed performs the UNSET -> RUNNING transition from an acquired fix.
// The millisecond and since-pulse counters restart at zero and a pulse
// latched during acquisition is discarded, since the fix already
// accounts for the second it marked.
func (c *Clock) Seed(f Fix) {
	c.hours = f.Hour
	c.minutes = f.Minute
	c.seconds = f.Second
	c.holdover = false
	c.millis.Store(0)
	c.sincePulse.Store(0)
	c.pulse.Store(false)
	c.set.Store(true)
}

// Step runs one main-loop iteration: consume a latched pulse (or fall
// back to holdover, or give up and resync), propagate carries and return
// the normalized time to display.
func (c *Clock) Step() (Time, Transition) {
	if !c.set.Load() {
		return Time{}, TransitionNone
	}

	tr := TransitionNone
	switch {
	case c.pulse.Swap(false):
		c.sincePulse.Store(0)
		c.millis.Store(0)
		c.seconds++
		c.counters.Pulses++
		tr = TransitionPulse
		if c.holdover {
			c.holdover = false
			tr = TransitionPulseRestored
		}

	case c.policy.ResyncEnabled && c.sincePulse.Load() >= c.policy.ResyncAfter.Milliseconds():
		c.set.Store(false)
		c.holdover = false
		c.counters.Resyncs++
		return Time{}, TransitionResync

	case c.millis.Load() >= 1000+c.policy.HoldoverGrace.Milliseconds():
		c.millis.Add(-1000)
		c.seconds++
		c.counters.HoldoverSeconds++
		if !c.holdover {
			c.holdover = true
			tr = TransitionPulseLost
		}
	}

	ms := int(c.millis.Load())
	t := Propagate(Time{Hours: c.hours, Minutes: c.minutes, Seconds: c.seconds, Millis: ms})
	if t.Millis != ms {
		c.millis.Store(0)
	}
	c.hours, c.minutes, c.seconds = t.Hours, t.Minutes, t.Seconds

	// Inside the holdover grace window the counter sits just past 999.
	if t.Millis > 999 {
		t.Millis = 999
	}
	return t, tr
}

// Holdover reports whether the clock is free-running without pulses.
func (c *Clock) Holdover() bool {
	return c.holdover
}

// Counters returns the totals accumulated by Step.
func (c *Clock) Counters() Counters {
	return c.counters
}

// Millis returns the raw millisecond counter.
func (c *Clock) Millis() int64 {
	return c.millis.Load()
}
