// Package mqtt publishes clock lifecycle events with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/gps-clock/internal/clock"
)

// Topic is the MQTT topic for clock events.
const Topic = "clock/gps/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "clock/gps/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a clock event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event clock.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string        // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string        // e.g., "SIGTERM", "SIGINT" (shutdown only)
	Config     *SystemConfig // startup only
	RawPayload []byte        // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool          // Whether the message should be retained by the broker
}

// SystemConfig is the effective configuration announced at startup.
type SystemConfig struct {
	OffsetSeconds int    `json:"offset_s"`
	MinSatellites int    `json:"min_satellites"`
	ResyncEnabled bool   `json:"resync_enabled"`
	ResyncAfterMs int64  `json:"resync_after_ms"`
	HeartbeatMs   int64  `json:"heartbeat_ms"`
	Broker        string `json:"broker"`
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Clock ClockPayload `json:"clock"`
}

// ClockPayload contains the clock event details.
type ClockPayload struct {
	Timestamp  string `json:"timestamp"`
	Event      string `json:"event"`
	Display    string `json:"display"`
	Satellites int    `json:"satellites,omitempty"`
}

// FormatPayload creates the JSON payload for a clock event.
func FormatPayload(event clock.Event) ([]byte, error) {
	payload := Payload{
		Clock: ClockPayload{
			Timestamp:  event.Timestamp.UTC().Format(time.RFC3339),
			Event:      string(event.Type),
			Display:    event.Display,
			Satellites: event.Satellites,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string        `json:"timestamp"`
	Event     string        `json:"event"`
	Reason    string        `json:"reason,omitempty"`
	Config    *SystemConfig `json:"config,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
			Config:    event.Config,
		},
	}
	return json.Marshal(payload)
}
