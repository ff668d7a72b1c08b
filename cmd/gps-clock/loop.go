package main

import (
	"context"
	"errors"
	"os"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/gps-clock/internal/acquire"
	"github.com/sweeney/gps-clock/internal/clock"
	"github.com/sweeney/gps-clock/internal/display"
	"github.com/sweeney/gps-clock/internal/mqtt"
	"github.com/sweeney/gps-clock/internal/status"
)

// acquirer obtains a fix; *acquire.Acquirer in production.
type acquirer interface {
	Acquire(ctx context.Context) (clock.Fix, error)
}

// loop is the clock's main loop and its collaborators. publisher and
// mqttStatus may be nil when MQTT is disabled.
type loop struct {
	clk        *clock.Clock
	acq        acquirer
	disp       display.Display
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	now        func() time.Time
	retry      time.Duration

	nextAttempt time.Time
}

type acquireResult struct {
	fix clock.Fix
	err error
}

// run publishes STARTUP, then services refresh ticks until a signal
// arrives (SHUTDOWN is published, nil returned) or ctx is done.
func (l *loop) run(ctx context.Context, refresh <-chan time.Time, heartbeat <-chan time.Time, sig <-chan os.Signal) error {
	l.publishStatus("STARTUP", "", true)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case s := <-sig:
			l.shutdown(s)
			return nil

		case <-heartbeat:
			l.syncMQTT()
			snap := l.tracker.Snapshot()
			log.Infof("heartbeat: phase=%s display=%s pulses=%d holdover_s=%d resyncs=%d",
				snap.Phase, snap.Display, snap.Counters.Pulses, snap.Counters.HoldoverSeconds, snap.Counters.Resyncs)
			l.publishStatus("HEARTBEAT", "", false)

		case <-refresh:
			if l.clk.Phase() == clock.PhaseUnset {
				if s, ok := l.acquire(ctx, sig); ok {
					l.shutdown(s)
					return nil
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
			}
			l.step()
		}
	}
}

// acquire runs one acquisition. It returns (signal, true) if a signal
// interrupted it.
func (l *loop) acquire(ctx context.Context, sig <-chan os.Signal) (os.Signal, bool) {
	if l.now().Before(l.nextAttempt) {
		return nil, false
	}

	actx, stop := context.WithCancel(ctx)
	defer stop()
	done := make(chan acquireResult, 1)
	go func() {
		fix, err := l.acq.Acquire(actx)
		done <- acquireResult{fix: fix, err: err}
	}()

	var r acquireResult
	select {
	case s := <-sig:
		stop()
		<-done
		return s, true
	case r = <-done:
	}

	switch {
	case r.err == nil:
	case errors.Is(r.err, acquire.ErrTimeout):
		log.Warn("acquisition timed out, retrying")
		return nil, false
	case ctx.Err() != nil:
		return nil, false
	default:
		log.WithError(r.err).Errorf("acquisition failed, retrying in %v", l.retry)
		l.nextAttempt = l.now().Add(l.retry)
		return nil, false
	}

	l.clk.Seed(r.fix)
	if err := l.disp.SetAlignment(display.AlignLeft); err != nil {
		log.WithError(err).Warn("set alignment")
	}
	l.tracker.SetFix(r.fix, l.now())

	t := clock.Time{Hours: r.fix.Hour, Minutes: r.fix.Minute, Seconds: r.fix.Second}
	log.WithField("satellites", r.fix.Satellites).Infof("acquired %s (date %s)", t, r.fix.Date)
	l.publish(clock.Event{
		Timestamp:  l.now(),
		Type:       clock.EventAcquired,
		Display:    t.String(),
		Satellites: r.fix.Satellites,
	})
	return nil, false
}

// step advances the clock once, renders it and reports transitions.
func (l *loop) step() {
	t, tr := l.clk.Step()

	if ev, ok := clock.EventFor(tr); ok {
		text := t.String()
		if tr == clock.TransitionResync {
			text = ""
		}
		log.Warnf("clock: %s at %s", ev, t)
		l.publish(clock.Event{Timestamp: l.now(), Type: ev, Display: text})
	}

	shown := ""
	if l.clk.Phase() == clock.PhaseRunning {
		shown = t.String()
		if err := l.disp.Print(shown); err != nil {
			log.WithError(err).Debug("display print")
		}
	}

	l.tracker.Update(l.clk.Phase(), shown, l.clk.Holdover(), l.clk.Counters())
	l.syncMQTT()
}

func (l *loop) shutdown(s os.Signal) {
	log.Infof("received %v, shutting down", s)
	signalName := "UNKNOWN"
	if s == syscall.SIGINT {
		signalName = "SIGINT"
	} else if s == syscall.SIGTERM {
		signalName = "SIGTERM"
	}
	l.syncMQTT()
	l.publishStatus("SHUTDOWN", signalName, true)
}

func (l *loop) publish(ev clock.Event) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.Publish(ev); err != nil {
		// Don't crash on publish failure
		log.WithError(err).Warnf("publish %s", ev.Type)
	}
}

func (l *loop) publishStatus(event, reason string, retained bool) {
	if l.publisher == nil {
		return
	}
	snap := l.tracker.Snapshot()
	se := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      event,
		Reason:     reason,
		Retained:   retained,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := l.publisher.PublishSystem(se); err != nil {
		log.WithError(err).Warnf("failed to publish %s event", event)
		return
	}
	log.Debugf("published %s event", event)
}

func (l *loop) syncMQTT() {
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}
