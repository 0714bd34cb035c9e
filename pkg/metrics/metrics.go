// Package metrics exposes Prometheus collectors for the swap router engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QuotesTotal counts quote requests by outcome (success, no_route,
	// invalid, error)
	QuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swaprouter_quotes_total",
			Help: "Quote requests by outcome",
		},
		[]string{"status"},
	)

	// QuoteDuration tracks end-to-end quote computation latency
	QuoteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "swaprouter_quote_duration_seconds",
			Help:    "Quote computation latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
	)

	// CacheLookups counts quote cache lookups by result (hit, miss, bypass)
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swaprouter_quote_cache_lookups_total",
			Help: "Quote cache lookups by result",
		},
		[]string{"result"},
	)

	// SubmissionsTotal counts swap submissions by outcome
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swaprouter_submissions_total",
			Help: "Swap submissions by outcome",
		},
		[]string{"status"}, // submitted, insufficient_balance, expired, failed
	)

	// RoutesEvaluated counts candidate routes simulated across all quotes
	RoutesEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "swaprouter_routes_evaluated_total",
			Help: "Candidate routes simulated",
		},
	)

	// QueueDepth tracks the current submission queue length
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "swaprouter_queue_depth",
			Help: "Swaps waiting in the submission queue",
		},
	)

	// RegistryPools tracks the pool count in the active registry snapshot
	RegistryPools = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "swaprouter_registry_pools",
			Help: "Pools in the active registry snapshot",
		},
	)

	// RegistryRefreshes counts registry refreshes by outcome (ok, partial, failed)
	RegistryRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swaprouter_registry_refreshes_total",
			Help: "Registry refreshes by outcome",
		},
		[]string{"status"},
	)

	// SubmissionLatency tracks chain submission latency
	SubmissionLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "swaprouter_submission_latency_seconds",
			Help:    "Chain submission latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
	)
)

// RecordQuote records a finished quote request with the given outcome
func RecordQuote(status string, duration time.Duration) {
	QuotesTotal.WithLabelValues(status).Inc()
	QuoteDuration.Observe(duration.Seconds())
}

// RecordCacheLookup records a quote cache lookup result
func RecordCacheLookup(result string) {
	CacheLookups.WithLabelValues(result).Inc()
}

// RecordSubmission records a swap submission outcome
func RecordSubmission(status string) {
	SubmissionsTotal.WithLabelValues(status).Inc()
}

// UpdateQueueDepth updates the submission queue gauge
func UpdateQueueDepth(depth int) {
	QueueDepth.Set(float64(depth))
}

// UpdateRegistry updates the registry pool gauge and refresh counter
func UpdateRegistry(pools int, status string) {
	RegistryPools.Set(float64(pools))
	RegistryRefreshes.WithLabelValues(status).Inc()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration observes the duration since the timer was created
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// Duration returns the duration since the timer was created
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
