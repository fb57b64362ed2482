package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// metricsOnce ensures metrics are registered only once
	metricsOnce sync.Once

	// scoresTotal counts scored claims by confidence level
	scoresTotal *prometheus.CounterVec

	// confidenceHistogram tracks the distribution of final percentages
	confidenceHistogram prometheus.Histogram

	// lookupTotal counts consistency lookups by outcome (ok, empty, fallback)
	lookupTotal *prometheus.CounterVec

	// lookupDuration tracks lookup latency, retries included
	lookupDuration prometheus.Histogram

	// lookupErrorsTotal counts fact-check API errors by type
	lookupErrorsTotal *prometheus.CounterVec
)

// InitMetrics registers all Prometheus metrics.
// Recording functions are no-ops until it has been called.
func InitMetrics() {
	metricsOnce.Do(func() {
		scoresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "truthcore_scores_total",
				Help: "Total number of scored claims by confidence level",
			},
			[]string{"level"},
		)

		confidenceHistogram = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "truthcore_confidence",
				Help:    "Distribution of confidence scores (0-100)",
				Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
		)

		lookupTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "truthcore_lookup_total",
				Help: "Total number of fact-check lookups by outcome",
			},
			[]string{"outcome"},
		)

		lookupDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "truthcore_lookup_duration_seconds",
				Help:    "Duration of fact-check lookups in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
			},
		)

		lookupErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "truthcore_lookup_errors_total",
				Help: "Total number of fact-check API errors by error type",
			},
			[]string{"error_type"},
		)
	})
}

// RecordScore records a completed score
func RecordScore(level string, confidence float64) {
	if scoresTotal != nil {
		scoresTotal.WithLabelValues(level).Inc()
	}
	if confidenceHistogram != nil {
		confidenceHistogram.Observe(confidence)
	}
}

// RecordLookup records a lookup outcome: "ok", "empty", "fallback"
func RecordLookup(outcome string) {
	if lookupTotal != nil {
		lookupTotal.WithLabelValues(outcome).Inc()
	}
}

// RecordError records a fact-check API error by type
// errorType: "timeout", "auth", "rate_limit", "server_error", "connection", "parse", "circuit_open"
func RecordError(errorType string) {
	if lookupErrorsTotal != nil {
		lookupErrorsTotal.WithLabelValues(errorType).Inc()
	}
}

// Timer measures lookup latency
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveLookup records the elapsed time as a lookup duration
func (t *Timer) ObserveLookup() {
	if t != nil && lookupDuration != nil {
		lookupDuration.Observe(time.Since(t.start).Seconds())
	}
}
