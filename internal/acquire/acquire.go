// Package acquire obtains the initial absolute time from the satellite
// feed. Acquisition blocks until the receiver reports more satellites
// than the configured minimum, then yields a local-time fix to seed the
// clock with.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/gps-clock/internal/clock"
	"github.com/sweeney/gps-clock/internal/display"
	"github.com/sweeney/gps-clock/internal/gnss"
)

// SearchingText is shown centered while waiting for satellites.
const SearchingText = "Finding Sats."

// DefaultOffset is the fixed UTC offset applied to receiver time (UTC-4).
const DefaultOffset = -14400 * time.Second

// DefaultMinSatellites is the fix-quality threshold. Acquisition
// completes once the satellite count is strictly greater.
const DefaultMinSatellites = 1

// ErrTimeout is returned when the configured timeout elapses before a
// satisfactory fix.
var ErrTimeout = errors.New("acquire: timed out waiting for satellites")

// Opener opens the satellite feed for one acquisition.
type Opener func() (gnss.Feed, error)

// Progress is reported after every decoded frame.
type Progress struct {
	Satellites int
	Time       string // "TIME: HH:MM:SS"
	Date       string // "DATE: DD-MM-YYYY"
}

// Options configures an Acquirer.
type Options struct {
	// Offset is added to receiver UTC to obtain local time.
	Offset time.Duration

	// MinSatellites must be exceeded for the fix to be accepted.
	MinSatellites int

	// Timeout bounds each acquisition. Zero waits forever.
	Timeout time.Duration

	// OnProgress, if set, is called for every decoded frame.
	OnProgress func(Progress)
}

// DefaultOptions returns the stock offset and threshold with no timeout.
func DefaultOptions() Options {
	return Options{
		Offset:        DefaultOffset,
		MinSatellites: DefaultMinSatellites,
	}
}

// Acquirer runs time acquisition against a feed and a display.
type Acquirer struct {
	open Opener
	disp display.Display
	opts Options
	log  *log.Entry
}

// New creates an Acquirer.
func New(open Opener, disp display.Display, opts Options) *Acquirer {
	return &Acquirer{
		open: open,
		disp: disp,
		opts: opts,
		log:  log.WithField("component", "acquire"),
	}
}

// Acquire blocks until the feed reports enough satellites, ctx is done
// or the timeout elapses. The feed is opened for the duration of the
// call and closed before returning.
func (a *Acquirer) Acquire(ctx context.Context) (clock.Fix, error) {
	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}

	feed, err := a.open()
	if err != nil {
		return clock.Fix{}, fmt.Errorf("open satellite feed: %w", err)
	}
	defer func() {
		if err := feed.Close(); err != nil {
			a.log.WithError(err).Warn("close satellite feed")
		}
	}()

	a.show()
	a.log.Info("Time is being set...")

	var (
		h, m, s int
		date    = clock.PlaceholderDate
	)
	for {
		fr, err := feed.Next(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && a.opts.Timeout > 0 {
				return clock.Fix{}, ErrTimeout
			}
			return clock.Fix{}, err
		}

		if fr.TimeValid {
			h, m, s = fr.Hour, fr.Minute, fr.Second
		}
		if fr.DateValid {
			date = clock.Date{Year: fr.Year, Month: fr.Month, Day: fr.Day}
		}
		fix := a.local(h, m, s, date)
		fix.Satellites = fr.Satellites

		p := Progress{
			Satellites: fr.Satellites,
			Time:       fmt.Sprintf("TIME: %02d:%02d:%02d", fix.Hour, fix.Minute, fix.Second),
			Date:       "DATE: " + fix.Date.String(),
		}
		a.log.Debugf("Sats=%d %s %s", p.Satellites, p.Time, p.Date)
		if a.opts.OnProgress != nil {
			a.opts.OnProgress(p)
		}

		if fr.Satellites > a.opts.MinSatellites {
			if err := a.disp.Clear(); err != nil {
				a.log.WithError(err).Warn("clear display")
			}
			a.log.WithField("satellites", fix.Satellites).Infof("done! %s %s", p.Time, p.Date)
			return fix, nil
		}
	}
}

// show puts the searching message on the display. Display faults are
// logged only; acquisition does not depend on them.
func (a *Acquirer) show() {
	if err := a.disp.Clear(); err != nil {
		a.log.WithError(err).Warn("clear display")
	}
	if err := a.disp.SetAlignment(display.AlignCenter); err != nil {
		a.log.WithError(err).Warn("set alignment")
	}
	if err := a.disp.Print(SearchingText); err != nil {
		a.log.WithError(err).Warn("print searching text")
	}
}

// local converts receiver UTC to local time using the fixed offset.
func (a *Acquirer) local(h, m, s int, d clock.Date) clock.Fix {
	t := time.Date(d.Year, time.Month(d.Month), d.Day, h, m, s, 0, time.UTC).Add(a.opts.Offset)
	return clock.Fix{
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
		Date:   clock.Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()},
	}
}
