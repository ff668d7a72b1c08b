// Package config loads the gps-clock YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/gps-clock/internal/acquire"
	"github.com/sweeney/gps-clock/internal/clock"
	"github.com/sweeney/gps-clock/internal/display"
	"github.com/sweeney/gps-clock/internal/gnss"
	"github.com/sweeney/gps-clock/internal/gpio"
)

// DefaultPath is read when -config is not given.
const DefaultPath = "gps-clock.yml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Display drivers.
const (
	DriverMatrix  = "matrix"
	DriverConsole = "console"
)

// Config is the daemon configuration.
type Config struct {
	Clock   ClockConfig   `yaml:"clock"`
	Acquire AcquireConfig `yaml:"acquire"`
	Resync  ResyncConfig  `yaml:"resync"`
	Serial  SerialConfig  `yaml:"serial"`
	PPS     PPSConfig     `yaml:"pps"`
	Display DisplayConfig `yaml:"display"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	HTTP    HTTPConfig    `yaml:"http"`
}

// ClockConfig holds the time-keeping constants.
type ClockConfig struct {
	// OffsetSeconds is added to receiver UTC (signed, e.g. -14400 for UTC-4).
	OffsetSeconds int           `yaml:"offset_s"`
	HoldoverGrace time.Duration `yaml:"holdover_grace"`
}

// AcquireConfig controls time acquisition.
type AcquireConfig struct {
	// MinSatellites must be exceeded before the fix is trusted.
	MinSatellites int `yaml:"min_satellites"`
	// Timeout of 0 waits forever.
	Timeout time.Duration `yaml:"timeout"`
}

// ResyncConfig is the resync-on-stall policy.
type ResyncConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Threshold time.Duration `yaml:"threshold"`
}

// SerialConfig is the receiver's serial port.
type SerialConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

// PPSConfig is the pulse-per-second GPIO line.
type PPSConfig struct {
	Chip string `yaml:"chip"`
	Pin  int    `yaml:"pin"`
}

// DisplayConfig selects and configures the output.
type DisplayConfig struct {
	Driver    string `yaml:"driver"`
	SPIPort   string `yaml:"spi_port"`
	Devices   int    `yaml:"devices"`
	Intensity int    `yaml:"intensity"`
	// Refresh is the main loop period; each iteration redraws the time.
	Refresh time.Duration `yaml:"refresh"`
}

// MQTTConfig is the event publisher. An empty broker disables it.
type MQTTConfig struct {
	Broker    string        `yaml:"broker"`
	ClientID  string        `yaml:"client_id"`
	Heartbeat time.Duration `yaml:"heartbeat"`
}

// HTTPConfig is the status server. An empty address disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the stock configuration.
func Default() *Config {
	policy := clock.DefaultPolicy()
	return &Config{
		Clock: ClockConfig{
			OffsetSeconds: int(acquire.DefaultOffset / time.Second),
			HoldoverGrace: policy.HoldoverGrace,
		},
		Acquire: AcquireConfig{
			MinSatellites: acquire.DefaultMinSatellites,
		},
		Resync: ResyncConfig{
			Enabled:   policy.ResyncEnabled,
			Threshold: policy.ResyncAfter,
		},
		Serial: SerialConfig{
			Device: "/dev/serial0",
			Baud:   gnss.DefaultBaud,
		},
		PPS: PPSConfig{
			Chip: gpio.DefaultChip,
			Pin:  gpio.DefaultPinPPS,
		},
		Display: DisplayConfig{
			Driver:  DriverMatrix,
			Devices: display.DefaultDevices,
			Refresh: 10 * time.Millisecond,
		},
		MQTT: MQTTConfig{
			Broker:    "tcp://localhost:1883",
			ClientID:  "gps-clock",
			Heartbeat: 15 * time.Minute,
		},
		HTTP: HTTPConfig{
			Addr: ":80",
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing file
// yields the defaults; unknown keys are an error.
func Load(path string) (*Config, error) {
	c := Default()

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyDefaults(c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// applyDefaults restores fields a file blanked out explicitly.
func applyDefaults(c *Config) {
	d := Default()
	if c.Serial.Device == "" {
		c.Serial.Device = d.Serial.Device
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = d.Serial.Baud
	}
	if c.PPS.Chip == "" {
		c.PPS.Chip = d.PPS.Chip
	}
	if c.Display.Driver == "" {
		c.Display.Driver = d.Display.Driver
	}
	if c.Display.Devices == 0 {
		c.Display.Devices = d.Display.Devices
	}
	if c.Display.Refresh == 0 {
		c.Display.Refresh = d.Display.Refresh
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = d.MQTT.ClientID
	}
}

// Validate checks ranges. Errors wrap ErrInvalid.
func (c *Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
	}

	if c.Clock.OffsetSeconds <= -86400 || c.Clock.OffsetSeconds >= 86400 {
		return invalid("clock.offset_s %d must be within a day", c.Clock.OffsetSeconds)
	}
	if c.Clock.HoldoverGrace < 0 || c.Clock.HoldoverGrace >= time.Second {
		return invalid("clock.holdover_grace %v must be in [0, 1s)", c.Clock.HoldoverGrace)
	}
	if c.Acquire.MinSatellites < 0 {
		return invalid("acquire.min_satellites %d is negative", c.Acquire.MinSatellites)
	}
	if c.Acquire.Timeout < 0 {
		return invalid("acquire.timeout %v is negative", c.Acquire.Timeout)
	}
	if c.Resync.Enabled && c.Resync.Threshold <= time.Second {
		return invalid("resync.threshold %v must exceed one pulse interval", c.Resync.Threshold)
	}
	if c.Serial.Baud <= 0 {
		return invalid("serial.baud %d must be positive", c.Serial.Baud)
	}
	if c.PPS.Pin < 0 {
		return invalid("pps.pin %d is negative", c.PPS.Pin)
	}
	switch c.Display.Driver {
	case DriverMatrix, DriverConsole:
	default:
		return invalid("display.driver %q must be %q or %q", c.Display.Driver, DriverMatrix, DriverConsole)
	}
	if c.Display.Devices < 1 {
		return invalid("display.devices %d must be at least 1", c.Display.Devices)
	}
	if c.Display.Intensity < 0 || c.Display.Intensity > display.MaxIntensity {
		return invalid("display.intensity %d out of range 0-%d", c.Display.Intensity, display.MaxIntensity)
	}
	if c.Display.Refresh < clock.TickPeriod {
		return invalid("display.refresh %v must be at least %v", c.Display.Refresh, clock.TickPeriod)
	}
	if c.MQTT.Heartbeat < 0 {
		return invalid("mqtt.heartbeat %v is negative", c.MQTT.Heartbeat)
	}
	return nil
}

// Offset returns the UTC offset as a duration.
func (c *Config) Offset() time.Duration {
	return time.Duration(c.Clock.OffsetSeconds) * time.Second
}

// Policy returns the clock's holdover and resync policy.
func (c *Config) Policy() clock.Policy {
	return clock.Policy{
		HoldoverGrace: c.Clock.HoldoverGrace,
		ResyncEnabled: c.Resync.Enabled,
		ResyncAfter:   c.Resync.Threshold,
	}
}

// AcquireOptions returns the acquisition settings.
func (c *Config) AcquireOptions() acquire.Options {
	return acquire.Options{
		Offset:        c.Offset(),
		MinSatellites: c.Acquire.MinSatellites,
		Timeout:       c.Acquire.Timeout,
	}
}
