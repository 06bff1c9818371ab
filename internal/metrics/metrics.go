// Package metrics holds the Prometheus collectors for the service. All
// collectors register with the default registry and are served on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Completion gateway
	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movieme_completion_duration_seconds",
			Help:    "Duration of completion provider calls in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 90},
		},
		[]string{"model", "outcome"},
	)

	CompletionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieme_completion_errors_total",
			Help: "Total completion failures by error kind",
		},
		[]string{"kind"},
	)

	// Rate limiting
	RateLimitDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieme_rate_limit_decisions_total",
			Help: "Rate limiter decisions by limiter and result",
		},
		[]string{"limiter", "result"}, // result: admitted, rejected, fail_open
	)

	// Orchestration
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieme_recommend_attempts_total",
			Help: "Completion attempts made by the orchestrator by outcome",
		},
		[]string{"outcome"}, // ok, gateway_error, parse_error, count_mismatch
	)

	CandidatesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieme_candidates_rejected_total",
			Help: "Candidates dropped by the validator by reason",
		},
		[]string{"reason"},
	)

	CandidatesAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "movieme_candidates_accepted_total",
			Help: "Candidates accepted into a batch",
		},
	)

	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "movieme_batch_size",
			Help:    "Number of movies returned per batch",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 10, 15},
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movieme_active_sessions",
			Help: "Recommendation sessions currently held in memory",
		},
	)

	// Catalog enrichment
	CatalogLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieme_catalog_lookups_total",
			Help: "Poster lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "movieme_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieme_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// HTTP
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movieme_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RecordCompletion observes one provider call. kind is empty on success.
func RecordCompletion(model, kind string, duration time.Duration) {
	outcome := "ok"
	if kind != "" {
		outcome = "error"
		CompletionErrors.WithLabelValues(kind).Inc()
	}
	CompletionDuration.WithLabelValues(model, outcome).Observe(duration.Seconds())
}

func RecordRateLimit(limiter string, admitted bool) {
	result := "admitted"
	if !admitted {
		result = "rejected"
	}
	RateLimitDecisions.WithLabelValues(limiter, result).Inc()
}

// RecordRateLimitFailOpen counts decisions made while the backend was down.
func RecordRateLimitFailOpen(limiter string) {
	RateLimitDecisions.WithLabelValues(limiter, "fail_open").Inc()
}

func RecordAttempt(outcome string) {
	AttemptsTotal.WithLabelValues(outcome).Inc()
}

func RecordRejection(reason string) {
	CandidatesRejected.WithLabelValues(reason).Inc()
}

func RecordBatch(accepted int) {
	CandidatesAccepted.Add(float64(accepted))
	BatchSize.Observe(float64(accepted))
}

func RecordCatalogLookup(result string) {
	CatalogLookups.WithLabelValues(result).Inc()
}

func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}
