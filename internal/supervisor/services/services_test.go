// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/trendscout/internal/learning"
)

var (
	_ suture.Service = (*HTTPServerService)(nil)
	_ suture.Service = (*LearningService)(nil)
	_ suture.Service = (*StoreGCService)(nil)
)

type mockHTTPServer struct {
	listenErr   error
	shutdownErr error
	block       bool

	listens   atomic.Int32
	shutdowns atomic.Int32
	started   chan struct{}
	stop      chan struct{}
	stopOnce  sync.Once
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{started: make(chan struct{}, 1), stop: make(chan struct{})}
}

func (m *mockHTTPServer) ListenAndServe() error {
	m.listens.Add(1)
	select {
	case m.started <- struct{}{}:
	default:
	}
	if m.listenErr != nil {
		return m.listenErr
	}
	if m.block {
		<-m.stop
		return http.ErrServerClosed
	}
	return nil
}

func (m *mockHTTPServer) Shutdown(context.Context) error {
	m.shutdowns.Add(1)
	m.stopOnce.Do(func() { close(m.stop) })
	return m.shutdownErr
}

func TestNewHTTPServerServiceDefaultTimeout(t *testing.T) {
	t.Parallel()
	for _, timeout := range []time.Duration{0, -5 * time.Second} {
		svc := NewHTTPServerService(newMockHTTPServer(), timeout, zerolog.Nop())
		if svc.shutdownTimeout != 10*time.Second {
			t.Errorf("timeout %v: shutdownTimeout = %v, want 10s", timeout, svc.shutdownTimeout)
		}
	}
}

func TestHTTPServerServiceServe(t *testing.T) {
	t.Parallel()

	t.Run("graceful shutdown on cancel", func(t *testing.T) {
		t.Parallel()
		server := newMockHTTPServer()
		server.block = true
		svc := NewHTTPServerService(server, time.Second, zerolog.Nop())

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		select {
		case <-server.started:
		case <-time.After(time.Second):
			t.Fatal("server did not start")
		}
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() error = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve() did not return after cancel")
		}
		if server.shutdowns.Load() != 1 {
			t.Errorf("Shutdown called %d times, want 1", server.shutdowns.Load())
		}
	})

	t.Run("startup failure", func(t *testing.T) {
		t.Parallel()
		bindErr := errors.New("bind: address already in use")
		server := newMockHTTPServer()
		server.listenErr = bindErr
		svc := NewHTTPServerService(server, time.Second, zerolog.Nop())

		if err := svc.Serve(context.Background()); !errors.Is(err, bindErr) {
			t.Errorf("Serve() error = %v, want %v", err, bindErr)
		}
	})

	t.Run("shutdown failure", func(t *testing.T) {
		t.Parallel()
		shutdownErr := errors.New("shutdown timeout")
		server := newMockHTTPServer()
		server.block = true
		server.shutdownErr = shutdownErr
		svc := NewHTTPServerService(server, time.Second, zerolog.Nop())

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()
		<-server.started
		cancel()

		if err := <-errCh; !errors.Is(err, shutdownErr) {
			t.Errorf("Serve() error = %v, want %v", err, shutdownErr)
		}
	})
}

type mockLearner struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockLearner) Run(context.Context) (*learning.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &learning.Snapshot{Version: "v"}, nil
}

func (m *mockLearner) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestLearningService(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cfg       LearningServiceConfig
		err       error
		wait      time.Duration
		wantCalls func(int) bool
	}{
		{
			name:      "runs on startup",
			cfg:       LearningServiceConfig{RunOnStartup: true, Interval: time.Hour},
			wait:      50 * time.Millisecond,
			wantCalls: func(n int) bool { return n == 1 },
		},
		{
			name:      "no startup run",
			cfg:       LearningServiceConfig{Interval: time.Hour},
			wait:      50 * time.Millisecond,
			wantCalls: func(n int) bool { return n == 0 },
		},
		{
			name:      "scheduled runs",
			cfg:       LearningServiceConfig{Interval: 20 * time.Millisecond},
			wait:      150 * time.Millisecond,
			wantCalls: func(n int) bool { return n >= 2 },
		},
		{
			name:      "failures keep the service running",
			cfg:       LearningServiceConfig{Interval: 20 * time.Millisecond},
			err:       learning.ErrRunInProgress,
			wait:      150 * time.Millisecond,
			wantCalls: func(n int) bool { return n >= 2 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			learner := &mockLearner{err: tt.err}
			svc := NewLearningService(learner, tt.cfg, zerolog.Nop())

			ctx, cancel := context.WithTimeout(context.Background(), tt.wait)
			defer cancel()
			if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("Serve() error = %v, want context.DeadlineExceeded", err)
			}
			if got := learner.Calls(); !tt.wantCalls(got) {
				t.Errorf("Run called %d times", got)
			}
		})
	}
}

type mockGC struct{ runs atomic.Int32 }

func (m *mockGC) RunGC(context.Context) error {
	m.runs.Add(1)
	return errors.New("nothing to collect")
}

func TestStoreGCService(t *testing.T) {
	t.Parallel()
	gc := &mockGC{}
	svc := NewStoreGCService(gc, 20*time.Millisecond, zerolog.Nop())
	if svc.String() != "store-gc" {
		t.Errorf("String() = %q", svc.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_ = svc.Serve(ctx)

	if gc.runs.Load() < 2 {
		t.Errorf("RunGC called %d times, want at least 2", gc.runs.Load())
	}
}
