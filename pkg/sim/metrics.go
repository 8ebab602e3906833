package sim

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the prometheus collectors updated by a runner. Collectors are
// safe for concurrent use by the workers.
type Metrics struct {
	runs            *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	kendall         *prometheus.HistogramVec
	matches         *prometheus.CounterVec
	rounds          *prometheus.CounterVec
	winnerPredicted *prometheus.CounterVec
}

// NewMetrics registers the simulation collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		// Labels: format, status (ok, failed)
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tourneysim",
			Subsystem: "sim",
			Name:      "runs_total",
			Help:      "Simulated tournaments by format and status",
		}, []string{"format", "status"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tourneysim",
			Subsystem: "sim",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a single simulated tournament",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"format"}),

		kendall: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tourneysim",
			Subsystem: "sim",
			Name:      "kendall_score",
			Help:      "Rank correlation between predicted and final ranking",
			Buckets:   prometheus.LinearBuckets(-1, 0.2, 11),
		}, []string{"format"}),

		matches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tourneysim",
			Subsystem: "sim",
			Name:      "matches_total",
			Help:      "Matches played across all runs",
		}, []string{"format"}),

		rounds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tourneysim",
			Subsystem: "sim",
			Name:      "rounds_total",
			Help:      "Rounds played across all runs",
		}, []string{"format"}),

		winnerPredicted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tourneysim",
			Subsystem: "sim",
			Name:      "winner_predicted_total",
			Help:      "Runs won by the highest rated competitor",
		}, []string{"format"}),
	}
}

// observe records a finished run
func (m *Metrics) observe(r Result) {
	if m == nil {
		return
	}
	if r.Failed() {
		m.runs.WithLabelValues(r.Format, "failed").Inc()
		return
	}
	m.runs.WithLabelValues(r.Format, "ok").Inc()
	m.duration.WithLabelValues(r.Format).Observe(r.Duration.Seconds())
	m.kendall.WithLabelValues(r.Format).Observe(r.Kendall)
	m.matches.WithLabelValues(r.Format).Add(float64(r.Matches))
	m.rounds.WithLabelValues(r.Format).Add(float64(r.Rounds))
	if r.WinnerPredicted() {
		m.winnerPredicted.WithLabelValues(r.Format).Inc()
	}
}
