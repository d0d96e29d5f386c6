// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

/*
Package metrics exposes Trendscout's Prometheus metrics.

Metrics are registered with the default registry through promauto and
served in text format on /metrics:

	curl http://localhost:8642/metrics

# Available Metrics

Scoring runs:
  - trendscout_run_duration_seconds (histogram, labels: outcome)
  - trendscout_signals_total (counter, labels: result)
  - trendscout_signals_skipped_total (counter, labels: reason)
  - trendscout_tier_assignments_total (counter, labels: tier)
  - trendscout_post_today_demotions_total (counter, labels: reason)
  - trendscout_clusters_last_run (gauge)
  - trendscout_persona_shortfall (gauge, labels: persona)

Providers:
  - trendscout_provider_duration_seconds (histogram, labels: provider)
  - trendscout_provider_failures_total (counter, labels: provider)
  - trendscout_ai_calls_total (counter, labels: purpose, outcome)
  - trendscout_embedding_lookups_total (counter, labels: source)
  - circuit_breaker_state, circuit_breaker_requests_total,
    circuit_breaker_state_transitions_total

Learning:
  - trendscout_learning_runs_total (counter, labels: outcome)
  - trendscout_learning_duration_seconds (histogram)
  - trendscout_pattern_weight (gauge, labels: topic)
  - trendscout_feedback_events_total (counter, labels: action)

HTTP:
  - http_requests_total (counter, labels: method, endpoint, status)
  - http_request_duration_seconds (histogram, labels: method, endpoint)
*/
package metrics
