// Package metrics exposes Prometheus instrumentation for body computations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Crossing outcomes.
const (
	OutcomeFound     = "found"
	OutcomeNoneFound = "none"
	OutcomeError     = "error"
)

var (
	snapshotsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "celestial_snapshots_total",
			Help: "Total number of body snapshots computed.",
		},
		[]string{"body"},
	)

	computationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "celestial_computation_errors_total",
			Help: "Snapshot fields dropped because an ephemeris computation failed.",
		},
		[]string{"body", "field"},
	)

	crossingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "celestial_crossing_searches_total",
			Help: "Rise/set searches by outcome.",
		},
		[]string{"body", "event", "outcome"},
	)

	solverIterations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "celestial_solver_iterations",
			Help:    "Bisection steps taken per located crossing.",
			Buckets: prometheus.LinearBuckets(0, 2, 10),
		},
	)

	snapshotDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "celestial_snapshot_duration_seconds",
			Help:    "Time spent assembling one body snapshot.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
		[]string{"body"},
	)
)

func init() {
	prometheus.MustRegister(snapshotsTotal)
	prometheus.MustRegister(computationErrorsTotal)
	prometheus.MustRegister(crossingsTotal)
	prometheus.MustRegister(solverIterations)
	prometheus.MustRegister(snapshotDurationSeconds)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSnapshot records one completed snapshot and how long it took.
func ObserveSnapshot(body string, seconds float64) {
	snapshotsTotal.WithLabelValues(body).Inc()
	snapshotDurationSeconds.WithLabelValues(body).Observe(seconds)
}

// IncComputationError records a field left absent after a ComputationError.
func IncComputationError(body, field string) {
	computationErrorsTotal.WithLabelValues(body, field).Inc()
}

// ObserveCrossing records the outcome of one rise or set search. The
// iteration count is only recorded for found crossings.
func ObserveCrossing(body, event, outcome string, iterations int) {
	crossingsTotal.WithLabelValues(body, event, outcome).Inc()
	if outcome == OutcomeFound {
		solverIterations.Observe(float64(iterations))
	}
}
