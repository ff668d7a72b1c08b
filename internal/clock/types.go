// Package clock contains the pure time-keeping core of the GPS clock.
// This package has NO external I/O (no serial, GPIO, SPI or MQTT).
// The 1 kHz tick and the pulse edge arrive through narrow input handles;
// the main loop advances the state with Step.
package clock

import (
	"fmt"
	"time"
)

// Phase is the lifecycle state of the clock.
type Phase string

const (
	PhaseUnset   Phase = "UNSET"
	PhaseRunning Phase = "RUNNING"
)

// Time is a displayable time of day with millisecond resolution.
type Time struct {
	Hours   int
	Minutes int
	Seconds int
	Millis  int
}

// String returns the HH:MM:SS:mmm display form.
func (t Time) String() string {
	return Format(t.Hours, t.Minutes, t.Seconds, t.Millis)
}

// Transition reports what a single Step did besides refreshing the time.
type Transition string

const (
	TransitionNone          Transition = ""
	TransitionPulse         Transition = "PULSE"
	TransitionPulseLost     Transition = "PULSE_LOST"
	TransitionPulseRestored Transition = "PULSE_RESTORED"
	TransitionResync        Transition = "RESYNC"
)

// EventType is a clock lifecycle event worth publishing.
type EventType string

const (
	EventAcquired      EventType = "ACQUIRED"
	EventPulseLost     EventType = "PULSE_LOST"
	EventPulseRestored EventType = "PULSE_RESTORED"
	EventResync        EventType = "RESYNC"
)

// Event is a clock lifecycle event to be published.
type Event struct {
	Timestamp  time.Time
	Type       EventType
	Display    string
	Satellites int
}

// EventFor maps a Step transition to a publishable event type.
// Plain pulses and no-ops have no event.
func EventFor(tr Transition) (EventType, bool) {
	switch tr {
	case TransitionPulseLost:
		return EventPulseLost, true
	case TransitionPulseRestored:
		return EventPulseRestored, true
	case TransitionResync:
		return EventResync, true
	}
	return "", false
}

// Date is the calendar date captured at acquisition. It never advances.
type Date struct {
	Year  int
	Month int
	Day   int
}

// PlaceholderDate is used when the receiver reported no date.
var PlaceholderDate = Date{Year: 2000, Month: 1, Day: 1}

// String returns DD-MM-YYYY.
func (d Date) String() string {
	return fmt.Sprintf("%02d-%02d-%04d", d.Day, d.Month, d.Year)
}

// Fix is the acquired absolute time: local time of day plus the
// satellite count that satisfied the quality threshold.
type Fix struct {
	Hour       int
	Minute     int
	Second     int
	Satellites int
	Date       Date
}

// Counters are totals kept by the main loop for status reporting.
type Counters struct {
	Pulses          int
	HoldoverSeconds int
	Resyncs         int
}
