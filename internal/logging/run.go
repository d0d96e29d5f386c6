// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package logging

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RunLogger logs the recoverable events of a scoring or learning run. Every
// method carries the run's correlation fields, so a partial-success run can
// be reconstructed from the log alone.
type RunLogger struct {
	logger zerolog.Logger
}

// NewRunLogger creates a RunLogger for the run stamped on ctx.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRunLogger(ctx context.Context, logger zerolog.Logger) *RunLogger {
	return &RunLogger{logger: CtxWith(ContextWithLogger(ctx, logger)).Logger()}
}

// Logger returns the underlying logger with run fields attached.
func (r *RunLogger) Logger() zerolog.Logger {
	return r.logger
}

// SignalSkipped records a signal that was left out of the run.
func (r *RunLogger) SignalSkipped(signalID, reason string) {
	r.logger.Warn().
		Str("signal_id", signalID).
		Str("reason", reason).
		Msg("Signal skipped")
}

// ProviderFailed records an evidence provider that failed open for a signal.
func (r *RunLogger) ProviderFailed(provider, signalID string, err error) {
	r.logger.Warn().
		Err(err).
		Str("provider", provider).
		Str("signal_id", signalID).
		Msg("Evidence provider failed, continuing without it")
}

// FailOpen records an external dependency error that was treated as a pass.
func (r *RunLogger) FailOpen(operation, signalID string, err error) {
	r.logger.Warn().
		Err(err).
		Str("operation", operation).
		Str("signal_id", signalID).
		Msg("Dependency failed open")
}

// Demoted records a post_today candidate moved down to this_week.
func (r *RunLogger) Demoted(signalID, reason string, score float64) {
	r.logger.Info().
		Str("signal_id", signalID).
		Str("reason", reason).
		Float64("score", score).
		Msg("Demoted from post_today")
}

// Complete records the end of a run.
func (r *RunLogger) Complete(summary string, elapsed time.Duration) {
	r.logger.Info().
		Str("summary", summary).
		Dur("elapsed", elapsed).
		Msg("Run complete")
}
