// Package metrics exports clock state to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/gps-clock/internal/clock"
	"github.com/sweeney/gps-clock/internal/status"
)

const namespace = "gpsclock"

// Source provides the state exported on every scrape.
type Source interface {
	Snapshot() status.Snapshot
}

// Exporter holds the registry the collectors live in.
type Exporter struct {
	registry *prometheus.Registry
}

// New registers collectors that read src on every scrape.
func New(src Source) *Exporter {
	reg := prometheus.NewRegistry()

	counter := func(name, help string, get func(status.Snapshot) int) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(get(src.Snapshot())) })
	}
	gauge := func(name, help string, get func(status.Snapshot) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, func() float64 { return get(src.Snapshot()) })
	}

	reg.MustRegister(
		counter("pulses_total", "PPS pulses consumed by the clock.",
			func(s status.Snapshot) int { return s.Counters.Pulses }),
		counter("holdover_seconds_total", "Seconds carried without a pulse.",
			func(s status.Snapshot) int { return s.Counters.HoldoverSeconds }),
		counter("resyncs_total", "Returns to UNSET after the pulse stalled.",
			func(s status.Snapshot) int { return s.Counters.Resyncs }),
		counter("acquisitions_total", "Completed time acquisitions.",
			func(s status.Snapshot) int { return s.Acquisitions }),
		gauge("satellites", "Satellites in the current fix, or in view while acquiring.", satellites),
		gauge("running", "1 once the clock has been seeded.", func(s status.Snapshot) float64 {
			return boolFloat(s.Phase == clock.PhaseRunning)
		}),
		gauge("holdover", "1 while free-running without pulses.", func(s status.Snapshot) float64 {
			return boolFloat(s.Holdover)
		}),
		gauge("mqtt_connected", "1 while the broker connection is up.", func(s status.Snapshot) float64 {
			return boolFloat(s.MQTTConnected)
		}),
		gauge("uptime_seconds", "Seconds since the daemon started.", func(s status.Snapshot) float64 {
			return s.Uptime().Seconds()
		}),
	)

	return &Exporter{registry: reg}
}

// Registry returns the underlying registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func satellites(s status.Snapshot) float64 {
	if s.Progress != nil {
		return float64(s.Progress.Satellites)
	}
	if s.Fix != nil {
		return float64(s.Fix.Satellites)
	}
	return 0
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
