// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"nonsense", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerateCorrelationID(t *testing.T) {
	t.Parallel()

	id1 := GenerateCorrelationID()
	id2 := GenerateCorrelationID()
	if len(id1) != 8 {
		t.Errorf("len(correlation id) = %d, want 8", len(id1))
	}
	if id1 == id2 {
		t.Error("expected unique correlation IDs")
	}
}

func TestContextValues(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if got := RunIDFromContext(ctx); got != "" {
		t.Errorf("RunIDFromContext(empty) = %q, want empty", got)
	}

	ctx = ContextWithCorrelationID(ctx, "abc12345")
	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithRunID(ctx, "run-1")

	if got := CorrelationIDFromContext(ctx); got != "abc12345" {
		t.Errorf("CorrelationIDFromContext = %q, want abc12345", got)
	}
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("RequestIDFromContext = %q, want req-1", got)
	}
	if got := RunIDFromContext(ctx); got != "run-1" {
		t.Errorf("RunIDFromContext = %q, want run-1", got)
	}
}

func TestCtxAddsFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithCorrelationID(ctx, "corr0001")
	ctx = ContextWithRunID(ctx, "run-42")

	Ctx(ctx).Warn().Msg("hello")

	out := buf.String()
	for _, want := range []string{`"correlation_id":"corr0001"`, `"run_id":"run-42"`, `"message":"hello"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
	if strings.Contains(out, "request_id") {
		t.Errorf("output %s should not contain request_id", out)
	}
}

func TestSlogHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	slogger := NewSlogLoggerFor(NewTestLogger(&buf))

	slogger.WithGroup("supervisor").Error("service failed",
		slog.String("service", "learning"),
		slog.Group("backoff", slog.Int("seconds", 15)),
	)

	out := buf.String()
	for _, want := range []string{
		`"level":"error"`,
		`"supervisor.service":"learning"`,
		`"supervisor.backoff.seconds":15`,
		`"message":"service failed"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
}

func TestRunLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := ContextWithRunID(context.Background(), "run-7")
	rl := NewRunLogger(ctx, NewTestLogger(&buf))

	rl.SignalSkipped("sig-1", "missing title")
	rl.ProviderFailed("search", "sig-2", errors.New("timeout"))
	rl.Complete("scored 1 of 2 signals", 2*time.Second)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d log lines, want 3", len(lines))
	}
	for _, line := range lines {
		if !strings.Contains(line, `"run_id":"run-7"`) {
			t.Errorf("line %s missing run_id", line)
		}
	}
	if !strings.Contains(lines[1], `"provider":"search"`) || !strings.Contains(lines[1], `"error":"timeout"`) {
		t.Errorf("provider failure line = %s", lines[1])
	}
}

func TestBuildStampsServiceAndVersion(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := build(Config{Level: "info", Output: &buf, Version: "1.2.3"})
	l.Info().Msg("started")

	out := buf.String()
	for _, want := range []string{`"service":"trendscout"`, `"version":"1.2.3"`, `"message":"started"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
	if strings.Contains(out, `"time"`) {
		t.Errorf("output %s has a timestamp without Timestamp set", out)
	}
}
