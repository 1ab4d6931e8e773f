// Package metrics provides Prometheus metrics for the stream lifecycle.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	streamState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "deskstream",
		Subsystem: "stream",
		Name:      "state",
		Help:      "Current lifecycle state (1 for the active state, 0 otherwise)",
	}, []string{"state"})

	streamStarts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "deskstream",
		Subsystem: "stream",
		Name:      "starts_total",
		Help:      "Number of times the pipeline entered the running state",
	})

	streamStops = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "deskstream",
		Subsystem: "stream",
		Name:      "stops_total",
		Help:      "Number of times the pipeline left the running state",
	})

	streamLastStart = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "deskstream",
		Subsystem: "stream",
		Name:      "last_start_timestamp_seconds",
		Help:      "Unix time of the most recent transition to running",
	})

	settingsReloads = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "deskstream",
		Subsystem: "settings",
		Name:      "reloads_total",
		Help:      "Number of settings file reloads",
	})
)

// knownStates are the lifecycle states exported on the state gauge.
var knownStates = []string{"idle", "starting", "running", "stopping"}

// SetStreamState marks one state active and clears the others.
func SetStreamState(state string) {
	for _, s := range knownStates {
		v := 0.0
		if s == state {
			v = 1.0
		}
		streamState.WithLabelValues(s).Set(v)
	}
}

// RecordTransition updates counters for a state transition.
func RecordTransition(old, next string) {
	SetStreamState(next)
	if next == "running" {
		streamStarts.Inc()
		streamLastStart.SetToCurrentTime()
	}
	if old == "running" {
		streamStops.Inc()
	}
}

// RecordSettingsReload counts one settings file reload.
func RecordSettingsReload() {
	settingsReloads.Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
// This collects all promauto-registered metrics automatically.
func Handler() http.Handler {
	return promhttp.Handler()
}
