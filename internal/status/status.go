// Package status provides a thread-safe status tracker for the gps-clock daemon.
// It is written by the main loop and read by HTTP handlers and MQTT heartbeats.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/gps-clock/internal/clock"
)

// Config contains daemon configuration for display.
type Config struct {
	OffsetSeconds int
	MinSatellites int
	ResyncEnabled bool
	ResyncAfterMs int64
	HeartbeatMs   int64
	SerialDevice  string
	PPSPin        int
	Broker        string
	HTTPPort      string
}

// Acquisition is the latest progress reported while waiting for satellites.
type Acquisition struct {
	Satellites int
	Time       string
	Date       string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Phase         clock.Phase
	Display       string
	Holdover      bool
	Counters      clock.Counters
	Acquisitions  int
	Fix           *clock.Fix
	AcquiredAt    time.Time
	Progress      *Acquisition
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Phase:     clock.PhaseUnset,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the clock phase, displayed text, holdover flag and counters.
// Called from runLoop on every refresh.
func (t *Tracker) Update(phase clock.Phase, display string, holdover bool, counters clock.Counters) {
	t.mu.Lock()
	t.snap.Phase = phase
	t.snap.Display = display
	t.snap.Holdover = holdover
	t.snap.Counters = counters
	t.mu.Unlock()
}

// SetProgress records acquisition progress.
func (t *Tracker) SetProgress(p Acquisition) {
	t.mu.Lock()
	t.snap.Progress = &p
	t.mu.Unlock()
}

// SetFix records a completed acquisition and clears its progress.
func (t *Tracker) SetFix(fix clock.Fix, at time.Time) {
	t.mu.Lock()
	t.snap.Fix = &fix
	t.snap.AcquiredAt = at
	t.snap.Progress = nil
	t.snap.Acquisitions++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	if s.Fix != nil {
		fix := *s.Fix
		s.Fix = &fix
	}
	if s.Progress != nil {
		p := *s.Progress
		s.Progress = &p
	}
	s.Now = time.Now()
	return s
}
