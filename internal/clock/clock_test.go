package clock

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T, policy Policy, h, m, s int) *Clock {
	t.Helper()
	c := New(policy)
	c.Seed(Fix{Hour: h, Minute: m, Second: s, Satellites: 4})
	require.Equal(t, PhaseRunning, c.Phase())
	return c
}

func TestNewClockIsUnset(t *testing.T) {
	c := New(DefaultPolicy())
	require.Equal(t, PhaseUnset, c.Phase())

	got, tr := c.Step()
	require.Equal(t, Time{}, got)
	require.Equal(t, TransitionNone, tr)
}

func TestTickIgnoredBeforeSeed(t *testing.T) {
	c := New(DefaultPolicy())
	in := c.TickInput()
	for i := 0; i < 250; i++ {
		in.Tick()
	}
	in.Advance(100)
	require.Zero(t, c.Millis())

	c.Seed(Fix{Hour: 1})
	in.Tick()
	require.Equal(t, int64(1), c.Millis())
}

func TestAdvanceIgnoresNonPositive(t *testing.T) {
	c := seeded(t, DefaultPolicy(), 0, 0, 0)
	c.TickInput().Advance(0)
	c.TickInput().Advance(-5)
	require.Zero(t, c.Millis())
}

func TestStepShowsTicksBetweenPulses(t *testing.T) {
	c := seeded(t, DefaultPolicy(), 12, 34, 56)
	c.TickInput().Advance(789)

	got, tr := c.Step()
	require.Equal(t, TransitionNone, tr)
	require.Equal(t, "12:34:56:789", got.String())
}

func TestPulseIncrementsSecondAndZeroesMillis(t *testing.T) {
	c := seeded(t, DefaultPolicy(), 8, 0, 0)
	in := c.TickInput()
	latch := c.PulseInput()

	for i, ms := range []int64{0, 1, 437, 998, 1003, 1049} {
		in.Advance(ms)
		latch.Pulse()
		got, tr := c.Step()
		require.Equal(t, TransitionPulse, tr, "pulse %d", i)
		require.Equal(t, Time{Hours: 8, Minutes: 0, Seconds: i + 1, Millis: 0}, got, "pulse %d", i)
		require.Zero(t, c.Millis())
	}
	require.Equal(t, 6, c.Counters().Pulses)
}

func TestPulseConsumedOnce(t *testing.T) {
	c := seeded(t, DefaultPolicy(), 0, 0, 0)
	c.PulseInput().Pulse()
	c.PulseInput().Pulse()

	got, tr := c.Step()
	require.Equal(t, TransitionPulse, tr)
	require.Equal(t, 1, got.Seconds)

	got, tr = c.Step()
	require.Equal(t, TransitionNone, tr)
	require.Equal(t, 1, got.Seconds)
}

func TestFullDayWraparoundOnPulse(t *testing.T) {
	c := seeded(t, DefaultPolicy(), 23, 59, 59)
	c.TickInput().Advance(999)
	c.PulseInput().Pulse()

	got, _ := c.Step()
	require.Equal(t, Time{}, got)
	require.Equal(t, "00:00:00:000", got.String())
}

func TestMinuteCarryOnPulse(t *testing.T) {
	c := seeded(t, DefaultPolicy(), 6, 14, 59)
	c.PulseInput().Pulse()

	got, _ := c.Step()
	require.Equal(t, Time{Hours: 6, Minutes: 15}, got)
}

func TestSeedDiscardsPulseLatchedDuringAcquisition(t *testing.T) {
	c := New(DefaultPolicy())
	c.PulseInput().Pulse()
	c.Seed(Fix{Hour: 3, Minute: 4, Second: 5})

	got, tr := c.Step()
	require.Equal(t, TransitionNone, tr)
	require.Equal(t, 5, got.Seconds)
}

func TestHoldoverCarriesSecondAfterGrace(t *testing.T) {
	c := seeded(t, DefaultPolicy(), 10, 0, 10)
	in := c.TickInput()

	in.Advance(1049)
	got, tr := c.Step()
	require.Equal(t, TransitionNone, tr)
	require.Equal(t, Time{Hours: 10, Seconds: 10, Millis: 999}, got)
	require.False(t, c.Holdover())

	in.Advance(1)
	got, tr = c.Step()
	require.Equal(t, TransitionPulseLost, tr)
	require.Equal(t, Time{Hours: 10, Seconds: 11, Millis: 50}, got)
	require.True(t, c.Holdover())

	in.Advance(1000)
	got, tr = c.Step()
	require.Equal(t, TransitionNone, tr)
	require.Equal(t, Time{Hours: 10, Seconds: 12, Millis: 50}, got)

	c.PulseInput().Pulse()
	got, tr = c.Step()
	require.Equal(t, TransitionPulseRestored, tr)
	require.Equal(t, Time{Hours: 10, Seconds: 13}, got)
	require.False(t, c.Holdover())

	counters := c.Counters()
	require.Equal(t, 1, counters.Pulses)
	require.Equal(t, 2, counters.HoldoverSeconds)
}

func TestResyncDisabledKeepsRunning(t *testing.T) {
	c := seeded(t, DefaultPolicy(), 0, 0, 0)
	for i := 0; i < 20; i++ {
		c.TickInput().Advance(1000)
		_, tr := c.Step()
		require.NotEqual(t, TransitionResync, tr)
	}
	require.Equal(t, PhaseRunning, c.Phase())
	require.Zero(t, c.Counters().Resyncs)
}

func TestResyncEnabledReturnsToUnset(t *testing.T) {
	policy := DefaultPolicy()
	policy.ResyncEnabled = true
	c := seeded(t, policy, 0, 0, 0)

	c.TickInput().Advance(4999)
	_, tr := c.Step()
	require.NotEqual(t, TransitionResync, tr)

	c.TickInput().Advance(1)
	_, tr = c.Step()
	require.Equal(t, TransitionResync, tr)
	require.Equal(t, PhaseUnset, c.Phase())
	require.Equal(t, 1, c.Counters().Resyncs)

	// Unset again: ticks no longer count.
	before := c.Millis()
	c.TickInput().Advance(10)
	require.Equal(t, before, c.Millis())

	c.Seed(Fix{Hour: 1, Minute: 2, Second: 3})
	got, _ := c.Step()
	require.Equal(t, "01:02:03:000", got.String())
}

func TestPulseResetsResyncTimer(t *testing.T) {
	policy := DefaultPolicy()
	policy.ResyncEnabled = true
	policy.ResyncAfter = 2 * time.Second
	c := seeded(t, policy, 0, 0, 0)

	for i := 0; i < 10; i++ {
		c.TickInput().Advance(1500)
		c.PulseInput().Pulse()
		_, tr := c.Step()
		require.NotEqual(t, TransitionResync, tr)
	}
	require.Equal(t, PhaseRunning, c.Phase())
}

func TestRangesHoldUnderInterleavedTicksAndPulses(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	c := seeded(t, DefaultPolicy(), 23, 58, 30)
	in := c.TickInput()
	latch := c.PulseInput()

	for i := 0; i < 200000; i++ {
		in.Advance(rng.Int63n(40))
		if rng.Intn(30) == 0 {
			latch.Pulse()
		}
		got, _ := c.Step()
		if !got.Valid() {
			t.Fatalf("iteration %d: out of range %+v", i, got)
		}
	}
}

func TestEventFor(t *testing.T) {
	tests := []struct {
		tr   Transition
		want EventType
		ok   bool
	}{
		{TransitionNone, "", false},
		{TransitionPulse, "", false},
		{TransitionPulseLost, EventPulseLost, true},
		{TransitionPulseRestored, EventPulseRestored, true},
		{TransitionResync, EventResync, true},
	}
	for _, tt := range tests {
		got, ok := EventFor(tt.tr)
		require.Equal(t, tt.want, got)
		require.Equal(t, tt.ok, ok)
	}
}

func TestRunTickerFollowsFakeClock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fc := clockwork.NewFakeClock()
	c := seeded(t, DefaultPolicy(), 0, 0, 0)

	done := make(chan error, 1)
	go func() {
		done <- RunTicker(ctx, fc, TickPeriod, c.TickInput())
	}()
	fc.BlockUntil(1)

	for i := 1; i <= 10; i++ {
		fc.Advance(TickPeriod)
		want := int64(i)
		require.Eventually(t, func() bool { return c.Millis() == want }, time.Second, time.Millisecond)
	}

	// A burst the goroutine sees as one wakeup is credited on the next tick.
	fc.Advance(5 * TickPeriod)
	require.Eventually(t, func() bool { return c.Millis() > 10 }, time.Second, time.Millisecond)
	fc.Advance(TickPeriod)
	require.Eventually(t, func() bool { return c.Millis() == 16 }, time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
