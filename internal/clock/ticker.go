package clock

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// TickPeriod is the nominal millisecond tick cadence (1 kHz).
const TickPeriod = time.Millisecond

// RunTicker drives in at the given period until ctx is done.
// Ticks the runtime failed to deliver are credited from elapsed time,
// so the counter follows the nominal cadence rather than the number of
// wakeups.
func RunTicker(ctx context.Context, clk clockwork.Clock, period time.Duration, in TickInput) error {
	start := clk.Now()
	ticker := clk.NewTicker(period)
	defer ticker.Stop()

	var delivered int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.Chan():
			due := int64(now.Sub(start) / period)
			if n := due - delivered; n > 0 {
				in.Advance(n)
				delivered = due
			}
		}
	}
}
