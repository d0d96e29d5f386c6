// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const defaultShutdownTimeout = 10 * time.Second

// errServerExited marks a listener that returned without being shut down.
var errServerExited = errors.New("http server exited unexpectedly")

// HTTPServer is the lifecycle subset of *http.Server.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService runs the API listener under the api-layer supervisor.
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
	logger          zerolog.Logger
}

// NewHTTPServerService wraps server. A non-positive shutdownTimeout means 10s.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration, logger zerolog.Logger) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &HTTPServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		logger:          logger.With().Str("service", "http").Logger(),
	}
}

// Serve listens until ctx is canceled and then drains in-flight requests.
// Any listener exit that was not caused by ctx returns an error so the
// supervisor restarts the service.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := h.server.ListenAndServe()
		switch {
		case errors.Is(err, http.ErrServerClosed):
			return nil
		case err != nil:
			return fmt.Errorf("http server failed: %w", err)
		default:
			return errServerExited
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() == nil {
			// The listener failed first; nothing to drain.
			return nil
		}
		return h.drain()
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (h *HTTPServerService) drain() error {
	// The serve context is already done, so shutdown gets a fresh deadline.
	sctx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()

	started := time.Now()
	h.logger.Info().Dur("timeout", h.shutdownTimeout).Msg("Draining HTTP server")
	if err := h.server.Shutdown(sctx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	h.logger.Info().Dur("took", time.Since(started)).Msg("HTTP server stopped")
	return nil
}

func (h *HTTPServerService) String() string {
	return "http-server"
}
