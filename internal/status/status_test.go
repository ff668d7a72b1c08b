package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/gps-clock/internal/clock"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{OffsetSeconds: -14400, MinSatellites: 1, Broker: "tcp://localhost:1883", HTTPPort: ":80"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Phase != clock.PhaseUnset {
		t.Errorf("Phase: got %q, want UNSET", snap.Phase)
	}
	if snap.Config.OffsetSeconds != -14400 {
		t.Errorf("Config.OffsetSeconds: got %d, want -14400", snap.Config.OffsetSeconds)
	}
	if snap.Fix != nil || snap.Progress != nil {
		t.Error("expected no fix or progress initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Update(clock.PhaseRunning, "12:34:56:789", true, clock.Counters{Pulses: 3, HoldoverSeconds: 2})

	snap := tr.Snapshot()
	if snap.Phase != clock.PhaseRunning {
		t.Errorf("Phase: got %q, want RUNNING", snap.Phase)
	}
	if snap.Display != "12:34:56:789" {
		t.Errorf("Display: got %q", snap.Display)
	}
	if !snap.Holdover {
		t.Error("expected Holdover=true")
	}
	if snap.Counters.Pulses != 3 || snap.Counters.HoldoverSeconds != 2 {
		t.Errorf("Counters: got %+v", snap.Counters)
	}
}

func TestSetFixClearsProgress(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.SetProgress(Acquisition{Satellites: 1, Time: "TIME: 08:35:19", Date: "DATE: 01-01-2000"})

	if p := tr.Snapshot().Progress; p == nil || p.Satellites != 1 {
		t.Fatalf("expected progress, got %+v", p)
	}

	at := time.Date(2026, 10, 17, 12, 35, 20, 0, time.UTC)
	tr.SetFix(clock.Fix{Hour: 8, Minute: 35, Second: 20, Satellites: 3, Date: clock.PlaceholderDate}, at)

	snap := tr.Snapshot()
	if snap.Progress != nil {
		t.Error("progress should be cleared after fix")
	}
	if snap.Fix == nil || snap.Fix.Satellites != 3 {
		t.Fatalf("unexpected fix: %+v", snap.Fix)
	}
	if !snap.AcquiredAt.Equal(at) {
		t.Errorf("AcquiredAt: got %v", snap.AcquiredAt)
	}
	if snap.Acquisitions != 1 {
		t.Errorf("Acquisitions: got %d, want 1", snap.Acquisitions)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Update(clock.PhaseRunning, "00:00:01:000", false, clock.Counters{Pulses: 1})
	tr.SetFix(clock.Fix{Hour: 1}, time.Now())

	snap1 := tr.Snapshot()
	snap1.Fix.Hour = 9

	tr.Update(clock.PhaseUnset, "", true, clock.Counters{Pulses: 1, Resyncs: 1})

	if snap1.Phase != clock.PhaseRunning || snap1.Display != "00:00:01:000" {
		t.Error("snapshot should be a copy; state was modified")
	}
	if tr.Snapshot().Fix.Hour != 1 {
		t.Error("mutating a snapshot's fix must not affect the tracker")
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Phase:         clock.PhaseRunning,
		Display:       "08:50:20:123",
		Counters:      clock.Counters{Pulses: 900, HoldoverSeconds: 3, Resyncs: 1},
		Acquisitions:  2,
		Fix:           &clock.Fix{Hour: 8, Minute: 35, Second: 20, Satellites: 7, Date: clock.Date{Year: 2026, Month: 10, Day: 17}},
		AcquiredAt:    start.Add(time.Minute),
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{OffsetSeconds: -14400, HeartbeatMs: 900000, Broker: "tcp://localhost:1883", HTTPPort: ":80"},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Phase != "RUNNING" {
		t.Errorf("Phase: got %q, want RUNNING", parsed.Status.Phase)
	}
	if parsed.Status.Display != "08:50:20:123" {
		t.Errorf("Display: got %q", parsed.Status.Display)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
	if !parsed.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if parsed.Status.Counters.Pulses != 900 || parsed.Status.Counters.Acquisitions != 2 {
		t.Errorf("Counters: got %+v", parsed.Status.Counters)
	}
	if parsed.Status.Fix == nil {
		t.Fatal("expected fix")
	}
	if parsed.Status.Fix.Time != "08:35:20" || parsed.Status.Fix.Date != "17-10-2026" {
		t.Errorf("Fix: got %+v", parsed.Status.Fix)
	}
	if parsed.Status.Fix.AcquiredAt != "2026-01-01T00:01:00Z" {
		t.Errorf("Fix.AcquiredAt: got %q", parsed.Status.Fix.AcquiredAt)
	}
	if parsed.Status.Acquiring != nil {
		t.Error("expected no acquiring block")
	}
	if parsed.Status.Event != "" || parsed.Status.Reason != "" {
		t.Error("expected empty Event/Reason for web format")
	}
}

func TestFormatJSONWhileAcquiring(t *testing.T) {
	snap := Snapshot{
		Phase:     clock.PhaseUnset,
		Progress:  &Acquisition{Satellites: 1, Time: "TIME: 08:35:19", Date: "DATE: 01-01-2000"},
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	var parsed map[string]map[string]interface{}
	if err := json.Unmarshal(FormatJSON(snap), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	inner := parsed["status"]
	if _, exists := inner["fix"]; exists {
		t.Error("fix should be omitted before acquisition")
	}
	acq, ok := inner["acquiring"].(map[string]interface{})
	if !ok {
		t.Fatal("expected acquiring block")
	}
	if acq["time"] != "TIME: 08:35:19" {
		t.Errorf("acquiring.time: got %v", acq["time"])
	}
}

func TestFormatJSONUnknownPhase(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if parsed.Status.Phase != "UNKNOWN" {
		t.Errorf("Phase: got %q, want UNKNOWN", parsed.Status.Phase)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Phase:     clock.PhaseRunning,
		StartTime: start,
		Now:       start.Add(time.Hour),
	}

	data := FormatStatusEvent(snap, "HEARTBEAT", "")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "HEARTBEAT" {
		t.Errorf("Event: got %q, want HEARTBEAT", parsed.Status.Event)
	}
	if parsed.Status.UptimeSeconds != 3600 {
		t.Errorf("UptimeSeconds: got %d, want 3600", parsed.Status.UptimeSeconds)
	}

	data = FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")
	json.Unmarshal(data, &parsed)
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", parsed.Status.Reason)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func(n int) {
			defer wg.Done()
			tr.Update(clock.PhaseRunning, "00:00:00:000", n%2 == 0, clock.Counters{Pulses: n})
		}(i)
		go func() {
			defer wg.Done()
			tr.SetMQTTConnected(true)
			tr.SetProgress(Acquisition{Satellites: 2})
		}()
		go func() {
			defer wg.Done()
			_ = FormatJSON(tr.Snapshot())
		}()
	}
	wg.Wait()
}
