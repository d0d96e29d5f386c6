// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey struct{ name string }

var (
	traceKey  = &contextKey{"trace"}
	loggerKey = &contextKey{"logger"}
)

// trace holds the ids stamped on log lines. Each With* call copies it, so
// a derived context never changes its parent's ids.
type trace struct {
	correlationID string
	requestID     string
	runID         string
}

func traceFrom(ctx context.Context) trace {
	if t, ok := ctx.Value(traceKey).(trace); ok {
		return t
	}
	return trace{}
}

func withTrace(ctx context.Context, update func(*trace)) context.Context {
	t := traceFrom(ctx)
	update(&t)
	return context.WithValue(ctx, traceKey, t)
}

// GenerateCorrelationID returns a short id (8 hex characters) for grouping
// the log lines of one request or run.
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

// GenerateRequestID returns a UUID for an HTTP request.
func GenerateRequestID() string {
	return uuid.New().String()
}

// ContextWithCorrelationID sets the correlation id.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return withTrace(ctx, func(t *trace) { t.correlationID = id })
}

// ContextWithNewCorrelationID sets a freshly generated correlation id.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

// CorrelationIDFromContext returns the correlation id, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return traceFrom(ctx).correlationID
}

// ContextWithRequestID sets the HTTP request id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return withTrace(ctx, func(t *trace) { t.requestID = id })
}

// RequestIDFromContext returns the request id, or "".
func RequestIDFromContext(ctx context.Context) string {
	return traceFrom(ctx).requestID
}

// ContextWithRunID tags the context with the id of a scoring or learning run.
//
//	ctx = logging.ContextWithRunID(ctx, result.RunID)
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return withTrace(ctx, func(t *trace) { t.runID = id })
}

// RunIDFromContext returns the run id, or "".
func RunIDFromContext(ctx context.Context) string {
	return traceFrom(ctx).runID
}

// ContextWithLogger stores a base logger for Ctx to build on.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func ContextWithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext returns the stored logger or the global one.
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return logger
	}
	return Logger()
}

// Ctx returns a logger carrying the context's ids.
//
//	logging.Ctx(ctx).Info().Int("signals", n).Msg("Scoring batch")
func Ctx(ctx context.Context) *zerolog.Logger {
	logger := CtxWith(ctx).Logger()
	return &logger
}

// CtxWith returns a logger context with the context's ids already added.
func CtxWith(ctx context.Context) zerolog.Context {
	return addTrace(LoggerFromContext(ctx).With(), traceFrom(ctx))
}

//nolint:gocritic // zerolog.Context is a value builder
func addTrace(lc zerolog.Context, t trace) zerolog.Context {
	if t.correlationID != "" {
		lc = lc.Str("correlation_id", t.correlationID)
	}
	if t.requestID != "" {
		lc = lc.Str("request_id", t.requestID)
	}
	if t.runID != "" {
		lc = lc.Str("run_id", t.runID)
	}
	return lc
}
