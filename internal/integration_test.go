package internal

import (
	"context"
	"encoding/json"
	"io"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sweeney/gps-clock/internal/acquire"
	"github.com/sweeney/gps-clock/internal/clock"
	"github.com/sweeney/gps-clock/internal/display"
	"github.com/sweeney/gps-clock/internal/gnss"
	"github.com/sweeney/gps-clock/internal/gpio"
	"github.com/sweeney/gps-clock/internal/mqtt"
	"github.com/sweeney/gps-clock/internal/status"
)

const (
	rmcValid     = "$GPRMC,220516.00,A,5133.82,N,00042.24,W,173.8,231.8,171026,004.2,W*54"
	ggaOneSat    = "$GPGGA,123519.00,4807.038,N,01131.000,E,1,01,0.9,545.4,M,46.9,M,,*60"
	ggaThreeSats = "$GPGGA,123520.00,4807.038,N,01131.000,E,1,03,0.9,545.4,M,46.9,M,,*68"
)

// streamPort serves a fixed NMEA stream, then EOF.
type streamPort struct {
	r      io.Reader
	closed bool
}

func (p *streamPort) Read(b []byte) (int, error) { return p.r.Read(b) }

func (p *streamPort) Close() error {
	p.closed = true
	return nil
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		runtime.Gosched()
	}
}

// TestIntegrationFullFlow runs NMEA bytes through acquisition, seeds the
// clock, then drives it with a fake tick source and fake PPS edges.
func TestIntegrationFullFlow(t *testing.T) {
	port := &streamPort{r: strings.NewReader(strings.Join([]string{rmcValid, ggaOneSat, ggaThreeSats}, "\r\n") + "\r\n")}
	disp := display.NewFakeDisplay()
	publisher := mqtt.NewFakePublisher()
	tracker := status.NewTracker(time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC), status.Config{OffsetSeconds: -14400})

	opts := acquire.DefaultOptions()
	opts.OnProgress = func(p acquire.Progress) {
		tracker.SetProgress(status.Acquisition{Satellites: p.Satellites, Time: p.Time, Date: p.Date})
	}
	acq := acquire.New(func() (gnss.Feed, error) { return gnss.NewReceiver(port), nil }, disp, opts)

	clk := clock.New(clock.DefaultPolicy())
	watcher := gpio.NewFakeWatcher(clk.PulseInput().Pulse)
	defer watcher.Close()

	// Edges before the fix are discarded by Seed.
	watcher.Fire()

	fix, err := acq.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !port.closed {
		t.Error("serial port should be closed after acquisition")
	}
	if fix.Hour != 8 || fix.Minute != 35 || fix.Second != 20 || fix.Satellites != 3 {
		t.Fatalf("unexpected fix: %+v", fix)
	}
	if fix.Date.String() != "17-10-2026" {
		t.Errorf("fix date: got %s, want 17-10-2026", fix.Date)
	}
	if disp.Printed[0] != acquire.SearchingText {
		t.Errorf("expected searching text first, got %q", disp.Printed[0])
	}

	clk.Seed(fix)
	tracker.SetFix(fix, time.Date(2026, 10, 17, 12, 35, 20, 0, time.UTC))
	disp.SetAlignment(display.AlignLeft)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fc := clockwork.NewFakeClock()
	done := make(chan error, 1)
	go func() { done <- clock.RunTicker(ctx, fc, clock.TickPeriod, clk.TickInput()) }()
	fc.BlockUntil(1)

	// advance delivers n ticks one at a time so none is dropped.
	advance := func(n int) {
		for i := 0; i < n; i++ {
			want := clk.Millis() + 1
			fc.Advance(clock.TickPeriod)
			waitFor(t, "tick", func() bool { return clk.Millis() == want })
		}
	}

	step := func() clock.Transition {
		tm, tr := clk.Step()
		if ev, ok := clock.EventFor(tr); ok {
			if err := publisher.Publish(clock.Event{Timestamp: fc.Now(), Type: ev, Display: tm.String()}); err != nil {
				t.Fatalf("publish: %v", err)
			}
		}
		disp.Print(tm.String())
		tracker.Update(clk.Phase(), tm.String(), clk.Holdover(), clk.Counters())
		return tr
	}

	if tr := step(); tr != clock.TransitionNone {
		t.Errorf("stale edge should not count after seed, got %v", tr)
	}
	if disp.Last() != "08:35:20:000" {
		t.Errorf("after seed: got %q", disp.Last())
	}

	advance(400)
	step()
	if disp.Last() != "08:35:20:400" {
		t.Errorf("mid-second: got %q", disp.Last())
	}

	watcher.Fire()
	if tr := step(); tr != clock.TransitionPulse {
		t.Errorf("expected pulse transition, got %v", tr)
	}
	if disp.Last() != "08:35:21:000" {
		t.Errorf("after pulse: got %q", disp.Last())
	}

	// Lose the pulse for just over a second.
	advance(1050)
	if tr := step(); tr != clock.TransitionPulseLost {
		t.Errorf("expected pulse lost, got %v", tr)
	}
	if disp.Last() != "08:35:22:050" {
		t.Errorf("holdover: got %q", disp.Last())
	}

	watcher.Fire()
	if tr := step(); tr != clock.TransitionPulseRestored {
		t.Errorf("expected pulse restored, got %v", tr)
	}
	if disp.Last() != "08:35:23:000" {
		t.Errorf("restored: got %q", disp.Last())
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("ticker: expected context.Canceled, got %v", err)
	}

	types := publisher.EventTypes()
	if len(types) != 2 || types[0] != clock.EventPulseLost || types[1] != clock.EventPulseRestored {
		t.Fatalf("expected [PULSE_LOST PULSE_RESTORED], got %v", types)
	}
	if watcher.Edges() != 3 {
		t.Errorf("expected 3 edges, got %d", watcher.Edges())
	}

	var out struct {
		Status struct {
			Phase    string `json:"phase"`
			Display  string `json:"display"`
			Holdover bool   `json:"holdover"`
			Counters struct {
				Pulses          int `json:"pulses"`
				HoldoverSeconds int `json:"holdover_seconds"`
				Acquisitions    int `json:"acquisitions"`
			} `json:"counters"`
			Fix *struct {
				Time       string `json:"time"`
				Satellites int    `json:"satellites"`
			} `json:"fix"`
			Acquiring json.RawMessage `json:"acquiring"`
		} `json:"status"`
	}
	if err := json.Unmarshal(status.FormatJSON(tracker.Snapshot()), &out); err != nil {
		t.Fatalf("status json: %v", err)
	}
	s := out.Status
	if s.Phase != "RUNNING" || s.Display != "08:35:23:000" || s.Holdover {
		t.Errorf("unexpected status: %+v", s)
	}
	if s.Counters.Pulses != 2 || s.Counters.HoldoverSeconds != 1 || s.Counters.Acquisitions != 1 {
		t.Errorf("unexpected counters: %+v", s.Counters)
	}
	if s.Fix == nil || s.Fix.Time != "08:35:20" || s.Fix.Satellites != 3 {
		t.Errorf("unexpected fix: %+v", s.Fix)
	}
	if s.Acquiring != nil {
		t.Errorf("acquisition progress should clear once the fix is set, got %s", s.Acquiring)
	}
}
