// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/rs/zerolog"
)

// slogBridge lets slog-only consumers (sutureslog) write through zerolog.
// Attributes added with WithAttrs are rendered into the child logger once
// instead of on every record.
type slogBridge struct {
	zl     zerolog.Logger
	prefix string
}

var _ slog.Handler = slogBridge{}

// NewSlogLogger returns an slog.Logger writing to the global logger.
//
//	hook := (&sutureslog.Handler{Logger: logging.NewSlogLogger()}).MustHook()
func NewSlogLogger() *slog.Logger {
	return NewSlogLoggerFor(Logger())
}

// NewSlogLoggerFor returns an slog.Logger writing to logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSlogLoggerFor(logger zerolog.Logger) *slog.Logger {
	return slog.New(slogBridge{zl: logger})
}

func (b slogBridge) Enabled(_ context.Context, level slog.Level) bool {
	zl := zerologLevel(level)
	return zl >= b.zl.GetLevel() && zl >= zerolog.GlobalLevel()
}

//nolint:gocritic // slog.Record is passed by value per slog.Handler interface
func (b slogBridge) Handle(_ context.Context, record slog.Record) error {
	event := b.zl.WithLevel(zerologLevel(record.Level))
	if event == nil {
		return nil
	}
	if record.NumAttrs() > 0 {
		fields := make(map[string]any, record.NumAttrs())
		record.Attrs(func(a slog.Attr) bool {
			flatten(fields, b.prefix, a)
			return true
		})
		event = event.Fields(fields)
	}
	event.Msg(record.Message)
	return nil
}

func (b slogBridge) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return b
	}
	fields := make(map[string]any, len(attrs))
	for _, a := range attrs {
		flatten(fields, b.prefix, a)
	}
	return slogBridge{zl: b.zl.With().Fields(fields).Logger(), prefix: b.prefix}
}

func (b slogBridge) WithGroup(name string) slog.Handler {
	if name == "" {
		return b
	}
	return slogBridge{zl: b.zl, prefix: joinKey(b.prefix, name)}
}

// flatten writes a into fields, dotting group names into the key.
func flatten(fields map[string]any, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		// Inline groups (empty key) keep the parent prefix.
		sub := prefix
		if a.Key != "" {
			sub = joinKey(prefix, a.Key)
		}
		for _, ga := range v.Group() {
			flatten(fields, sub, ga)
		}
		return
	}
	if a.Key == "" {
		return
	}

	key := joinKey(prefix, a.Key)
	switch v.Kind() {
	case slog.KindString:
		fields[key] = v.String()
	case slog.KindInt64:
		fields[key] = v.Int64()
	case slog.KindUint64:
		fields[key] = v.Uint64()
	case slog.KindFloat64:
		fields[key] = v.Float64()
	case slog.KindBool:
		fields[key] = v.Bool()
	case slog.KindDuration:
		fields[key] = v.Duration().String()
	case slog.KindTime:
		fields[key] = v.Time().Format(time.RFC3339Nano)
	default:
		fields[key] = v.Any()
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func zerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level >= slog.LevelError:
		return zerolog.ErrorLevel
	case level >= slog.LevelWarn:
		return zerolog.WarnLevel
	case level >= slog.LevelInfo:
		return zerolog.InfoLevel
	case level >= slog.LevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}
