// Package metrics provides Prometheus collectors for the resolution core.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for comparisons, NEXUS evaluations and
// resolutions. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Pair verdicts by outcome
	Verdicts *prometheus.CounterVec

	// NEXUS intersection states
	Intersections *prometheus.CounterVec

	// Resolution attempts by action and outcome (applied, duplicate, failed)
	Resolutions *prometheus.CounterVec

	// Operator latency by operation
	OperationDuration *prometheus.HistogramVec
}

// New registers all collectors on reg. Pass prometheus.NewRegistry() in
// tests to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Verdicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nexus_compare_verdicts_total",
			Help: "Total pair verdicts produced by the compare operator",
		}, []string{"verdict"}),

		Intersections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nexus_intersections_total",
			Help: "Total NEXUS intersection evaluations by resulting state",
		}, []string{"state"}),

		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nexus_resolutions_total",
			Help: "Total resolution attempts by action and outcome",
		}, []string{"action", "outcome"}),

		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nexus_operation_duration_seconds",
			Help:    "Duration of operator calls including state provider reads",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
	}
}

// IncVerdict records one pair verdict.
func (m *Metrics) IncVerdict(verdict string) {
	if m != nil {
		m.Verdicts.WithLabelValues(verdict).Inc()
	}
}

// IncIntersection records one NEXUS evaluation.
func (m *Metrics) IncIntersection(state string) {
	if m != nil {
		m.Intersections.WithLabelValues(state).Inc()
	}
}

// IncResolution records a resolution attempt.
func (m *Metrics) IncResolution(action, outcome string) {
	if m != nil {
		m.Resolutions.WithLabelValues(action, outcome).Inc()
	}
}

// ObserveOperation records how long an operator call took.
func (m *Metrics) ObserveOperation(operation string, d time.Duration) {
	if m != nil {
		m.OperationDuration.WithLabelValues(operation).Observe(d.Seconds())
	}
}
