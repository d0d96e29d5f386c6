// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited throttles a provider with a token bucket.
type RateLimited struct {
	inner   Provider
	limiter *rate.Limiter
}

var _ Provider = (*RateLimited)(nil)

// NewRateLimited allows rps requests per second with the given burst.
func NewRateLimited(inner Provider, rps float64, burst int) *RateLimited {
	if rps <= 0 {
		rps = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{inner: inner, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *RateLimited) Name() string    { return r.inner.Name() }
func (r *RateLimited) Available() bool { return r.inner.Available() }

// Generate waits for a token, then delegates.
func (r *RateLimited) Generate(ctx context.Context, req Request) (Response, error) {
	if !r.inner.Available() {
		return Response{}, ErrUnavailable
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf("rate limiter: %w", err)
	}
	return r.inner.Generate(ctx, req)
}
