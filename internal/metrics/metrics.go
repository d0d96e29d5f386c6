// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scoring run metrics
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trendscout_run_duration_seconds",
			Help:    "Duration of scoring runs in seconds",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"outcome"}, // "complete", "cancelled", "failed"
	)

	SignalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendscout_signals_total",
			Help: "Signals seen by scoring runs",
		},
		[]string{"result"}, // "scored", "skipped"
	)

	SignalsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendscout_signals_skipped_total",
			Help: "Signals excluded from scoring, by reason",
		},
		[]string{"reason"},
	)

	TierAssignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendscout_tier_assignments_total",
			Help: "Urgency tiers assigned to scored signals",
		},
		[]string{"tier"},
	)

	PostTodayDemotions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendscout_post_today_demotions_total",
			Help: "post_today candidates demoted to this_week",
		},
		[]string{"reason"}, // "heuristic", "ai"
	)

	ClustersLastRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trendscout_clusters_last_run",
			Help: "Number of clusters formed by the most recent run",
		},
	)

	PersonaShortfall = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trendscout_persona_shortfall",
			Help: "Quota shortfall per persona after the most recent run",
		},
		[]string{"persona"},
	)

	// Provider metrics
	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trendscout_provider_duration_seconds",
			Help:    "Duration of evidence provider calls",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"provider"},
	)

	ProviderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendscout_provider_failures_total",
			Help: "Evidence provider calls that failed open",
		},
		[]string{"provider"},
	)

	AICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendscout_ai_calls_total",
			Help: "AI classifier calls by purpose and outcome",
		},
		[]string{"purpose", "outcome"}, // outcome: "yes", "no", "error", "cached", "budget"
	)

	EmbeddingLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendscout_embedding_lookups_total",
			Help: "Embedding lookups by where they were served from",
		},
		[]string{"source"}, // "memory", "store", "upstream", "error"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Learning metrics
	LearningRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendscout_learning_runs_total",
			Help: "Feedback learning runs by outcome",
		},
		[]string{"outcome"}, // "success", "failure", "skipped"
	)

	LearningDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trendscout_learning_duration_seconds",
			Help:    "Duration of feedback learning runs",
			Buckets: prometheus.DefBuckets,
		},
	)

	PatternWeights = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trendscout_pattern_weight",
			Help: "Current learned pattern weight per topic",
		},
		[]string{"topic"},
	)

	FeedbackEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendscout_feedback_events_total",
			Help: "Feedback events accepted, by action",
		},
		[]string{"action"},
	)

	// HTTP metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 60},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordRun records a finished scoring run.
func RecordRun(outcome string, duration time.Duration, scored, skipped int) {
	RunDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	SignalsTotal.WithLabelValues("scored").Add(float64(scored))
	SignalsTotal.WithLabelValues("skipped").Add(float64(skipped))
}

// RecordSkip records a signal excluded from scoring.
func RecordSkip(reason string) {
	SignalsSkipped.WithLabelValues(reason).Inc()
}

// RecordTier records a tier assignment.
func RecordTier(tier string) {
	TierAssignments.WithLabelValues(tier).Inc()
}

// RecordDemotion records a post_today demotion.
func RecordDemotion(reason string) {
	PostTodayDemotions.WithLabelValues(reason).Inc()
}

// RecordProviderCall records an evidence provider call.
func RecordProviderCall(provider string, duration time.Duration, err error) {
	ProviderDuration.WithLabelValues(provider).Observe(duration.Seconds())
	if err != nil {
		ProviderFailures.WithLabelValues(provider).Inc()
	}
}

// RecordAICall records an AI classifier call.
func RecordAICall(purpose, outcome string) {
	AICalls.WithLabelValues(purpose, outcome).Inc()
}

// RecordEmbeddingLookup records where an embedding was served from.
func RecordEmbeddingLookup(source string) {
	EmbeddingLookups.WithLabelValues(source).Inc()
}

// RecordLearningRun records a feedback learning run.
func RecordLearningRun(duration time.Duration, err error) {
	LearningDuration.Observe(duration.Seconds())
	if err != nil {
		LearningRuns.WithLabelValues("failure").Inc()
		return
	}
	LearningRuns.WithLabelValues("success").Inc()
}

// SetPatternWeight publishes a topic's current weight.
func SetPatternWeight(topic string, weight float64) {
	PatternWeights.WithLabelValues(topic).Set(weight)
}

// SetPersonaShortfall publishes a persona's shortfall after a run.
func SetPersonaShortfall(persona string, shortfall int) {
	PersonaShortfall.WithLabelValues(persona).Set(float64(shortfall))
}

// RecordFeedback records an accepted feedback event.
func RecordFeedback(action string) {
	FeedbackEvents.WithLabelValues(action).Inc()
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
