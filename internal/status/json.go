package status

import (
	"encoding/json"
	"fmt"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Phase         string         `json:"phase"`
	Display       string         `json:"display"`
	Holdover      bool           `json:"holdover"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Counters      CountersJSON   `json:"counters"`
	Fix           *FixJSON       `json:"fix,omitempty"`
	Acquiring     *AcquiringJSON `json:"acquiring,omitempty"`
	Config        ConfigJSON     `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountersJSON is the JSON representation of clock counters.
type CountersJSON struct {
	Pulses          int `json:"pulses"`
	HoldoverSeconds int `json:"holdover_seconds"`
	Resyncs         int `json:"resyncs"`
	Acquisitions    int `json:"acquisitions"`
}

// FixJSON is the JSON representation of the acquired fix.
type FixJSON struct {
	Time       string `json:"time"`
	Date       string `json:"date"`
	Satellites int    `json:"satellites"`
	AcquiredAt string `json:"acquired_at"`
}

// AcquiringJSON is the JSON representation of acquisition progress.
type AcquiringJSON struct {
	Satellites int    `json:"satellites"`
	Time       string `json:"time"`
	Date       string `json:"date"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	OffsetSeconds int    `json:"offset_s"`
	MinSatellites int    `json:"min_satellites"`
	ResyncEnabled bool   `json:"resync_enabled"`
	ResyncAfterMs int64  `json:"resync_after_ms"`
	HeartbeatMs   int64  `json:"heartbeat_ms"`
	SerialDevice  string `json:"serial_device"`
	PPSPin        int    `json:"pps_pin"`
	Broker        string `json:"broker"`
	HTTPPort      string `json:"http_port"`
}

func buildInner(snap Snapshot) StatusInner {
	phase := string(snap.Phase)
	if phase == "" {
		phase = "UNKNOWN"
	}

	inner := StatusInner{
		Phase:         phase,
		Display:       snap.Display,
		Holdover:      snap.Holdover,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counters: CountersJSON{
			Pulses:          snap.Counters.Pulses,
			HoldoverSeconds: snap.Counters.HoldoverSeconds,
			Resyncs:         snap.Counters.Resyncs,
			Acquisitions:    snap.Acquisitions,
		},
		Config: ConfigJSON{
			OffsetSeconds: snap.Config.OffsetSeconds,
			MinSatellites: snap.Config.MinSatellites,
			ResyncEnabled: snap.Config.ResyncEnabled,
			ResyncAfterMs: snap.Config.ResyncAfterMs,
			HeartbeatMs:   snap.Config.HeartbeatMs,
			SerialDevice:  snap.Config.SerialDevice,
			PPSPin:        snap.Config.PPSPin,
			Broker:        snap.Config.Broker,
			HTTPPort:      snap.Config.HTTPPort,
		},
	}
	if snap.Fix != nil {
		inner.Fix = &FixJSON{
			Time:       fmt.Sprintf("%02d:%02d:%02d", snap.Fix.Hour, snap.Fix.Minute, snap.Fix.Second),
			Date:       snap.Fix.Date.String(),
			Satellites: snap.Fix.Satellites,
			AcquiredAt: snap.AcquiredAt.UTC().Format(time.RFC3339),
		}
	}
	if snap.Progress != nil {
		inner.Acquiring = &AcquiringJSON{
			Satellites: snap.Progress.Satellites,
			Time:       snap.Progress.Time,
			Date:       snap.Progress.Date,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
