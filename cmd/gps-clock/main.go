// Command gps-clock acquires time from a GPS receiver, disciplines a
// millisecond clock with the receiver's PPS output and shows it on an
// LED matrix.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/gps-clock/internal/acquire"
	"github.com/sweeney/gps-clock/internal/clock"
	"github.com/sweeney/gps-clock/internal/config"
	"github.com/sweeney/gps-clock/internal/display"
	"github.com/sweeney/gps-clock/internal/gnss"
	"github.com/sweeney/gps-clock/internal/gpio"
	"github.com/sweeney/gps-clock/internal/metrics"
	"github.com/sweeney/gps-clock/internal/mqtt"
	"github.com/sweeney/gps-clock/internal/status"
	"github.com/sweeney/gps-clock/internal/web"
)

// acquireRetry is the pause after an acquisition that failed outright
// (port missing, feed error) before the next attempt.
const acquireRetry = 5 * time.Second

func main() {
	configPath := flag.String("config", config.DefaultPath, "YAML config file (absent = defaults)")
	offset := flag.Int("offset", 0, "UTC offset in seconds (overrides clock.offset_s)")
	serialDev := flag.String("serial", "", "Receiver serial device (overrides serial.device)")
	baud := flag.Int("baud", 0, "Receiver baud rate (overrides serial.baud)")
	ppsPin := flag.Int("pin-pps", 0, "BCM pin number for PPS (overrides pps.pin)")
	driver := flag.String("display", "", `Display driver "matrix" or "console" (overrides display.driver)`)
	intensity := flag.Int("intensity", 0, "Display brightness 0-15 (overrides display.intensity)")
	minSats := flag.Int("min-sats", 0, "Satellites to exceed before trusting a fix (overrides acquire.min_satellites)")
	acqTimeout := flag.Duration("acquire-timeout", 0, "Acquisition timeout, 0 waits forever (overrides acquire.timeout)")
	resync := flag.Bool("resync", false, "Reacquire when the PPS stalls (overrides resync.enabled)")
	resyncAfter := flag.Duration("resync-after", 0, "PPS stall before resync (overrides resync.threshold)")
	broker := flag.String("broker", "", `MQTT broker address (overrides mqtt.broker, "off" disables)`)
	heartbeat := flag.Duration("heartbeat", 0, "Heartbeat interval, 0 disables (overrides mqtt.heartbeat)")
	httpAddr := flag.String("http", "", `HTTP status address (overrides http.addr, "off" disables)`)
	printState := flag.Bool("print-state", false, "Print the PPS line level and exit")
	verbose := flag.Bool("verbose", false, "Debug logging")

	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	// Only flags given on the command line override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "offset":
			cfg.Clock.OffsetSeconds = *offset
		case "serial":
			cfg.Serial.Device = *serialDev
		case "baud":
			cfg.Serial.Baud = *baud
		case "pin-pps":
			cfg.PPS.Pin = *ppsPin
		case "display":
			cfg.Display.Driver = *driver
		case "intensity":
			cfg.Display.Intensity = *intensity
		case "min-sats":
			cfg.Acquire.MinSatellites = *minSats
		case "acquire-timeout":
			cfg.Acquire.Timeout = *acqTimeout
		case "resync":
			cfg.Resync.Enabled = *resync
		case "resync-after":
			cfg.Resync.Threshold = *resyncAfter
		case "broker":
			cfg.MQTT.Broker = offToEmpty(*broker)
		case "heartbeat":
			cfg.MQTT.Heartbeat = *heartbeat
		case "http":
			cfg.HTTP.Addr = offToEmpty(*httpAddr)
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Config, printState bool) error {
	clk := clock.New(cfg.Policy())

	// Initialize PPS watcher; edges latch straight into the clock.
	watcher, err := gpio.NewRealWatcher(cfg.PPS.Chip, cfg.PPS.Pin, clk.PulseInput().Pulse)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer watcher.Close()

	// Print state mode
	if printState {
		high, err := watcher.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Printf("PPS (pin %d): %s\n", cfg.PPS.Pin, levelString(high))
		return nil
	}

	disp, err := openDisplay(cfg.Display)
	if err != nil {
		return fmt.Errorf("init display: %w", err)
	}
	defer disp.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		OffsetSeconds: cfg.Clock.OffsetSeconds,
		MinSatellites: cfg.Acquire.MinSatellites,
		ResyncEnabled: cfg.Resync.Enabled,
		ResyncAfterMs: cfg.Resync.Threshold.Milliseconds(),
		HeartbeatMs:   cfg.MQTT.Heartbeat.Milliseconds(),
		SerialDevice:  cfg.Serial.Device,
		PPSPin:        cfg.PPS.Pin,
		Broker:        cfg.MQTT.Broker,
		HTTPPort:      cfg.HTTP.Addr,
	})

	var (
		publisher  mqtt.Publisher
		mqttStatus mqtt.ConnectionStatus
	)
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		publisher, mqttStatus = p, p
	}

	open := func() (gnss.Feed, error) {
		r, err := gnss.Open(cfg.Serial.Device, cfg.Serial.Baud)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	opts := cfg.AcquireOptions()
	opts.OnProgress = func(p acquire.Progress) {
		tracker.SetProgress(status.Acquisition{Satellites: p.Satellites, Time: p.Time, Date: p.Date})
	}
	acq := acquire.New(open, disp, opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return clock.RunTicker(ctx, clockwork.NewRealClock(), clock.TickPeriod, clk.TickInput())
	})

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		exporter := metrics.New(tracker)
		srv := web.New(cfg.HTTP.Addr, tracker, exporter.Handler())
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return srv.Shutdown(context.Background())
		})
		log.Infof("http status server listening on %s", cfg.HTTP.Addr)
	}

	log.Infof("started: offset=%ds serial=%s@%d pps=%s/%d display=%s broker=%s resync=%v",
		cfg.Clock.OffsetSeconds, cfg.Serial.Device, cfg.Serial.Baud, cfg.PPS.Chip, cfg.PPS.Pin,
		cfg.Display.Driver, cfg.MQTT.Broker, cfg.Resync.Enabled)

	refresh := time.NewTicker(cfg.Display.Refresh)
	defer refresh.Stop()

	var hb <-chan time.Time
	if cfg.MQTT.Heartbeat > 0 {
		t := time.NewTicker(cfg.MQTT.Heartbeat)
		defer t.Stop()
		hb = t.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	l := &loop{
		clk:        clk,
		acq:        acq,
		disp:       disp,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
		now:        time.Now,
		retry:      acquireRetry,
	}
	g.Go(func() error {
		defer cancel()
		return l.run(ctx, refresh.C, hb, sigCh)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func openDisplay(cfg config.DisplayConfig) (display.Display, error) {
	var d display.Display
	switch cfg.Driver {
	case config.DriverConsole:
		d = display.NewConsole()
	default:
		m, err := display.OpenMatrix(cfg.SPIPort, cfg.Devices)
		if err != nil {
			return nil, err
		}
		d = m
	}
	if err := d.SetIntensity(cfg.Intensity); err != nil {
		d.Close()
		return nil, err
	}
	if err := d.Clear(); err != nil {
		d.Close()
		return nil, err
	}
	if err := d.SetAlignment(display.AlignLeft); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func levelString(high bool) string {
	if high {
		return "HIGH"
	}
	return "LOW"
}

func offToEmpty(s string) string {
	if s == "off" {
		return ""
	}
	return s
}
