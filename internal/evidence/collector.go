// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

// Package evidence assembles the per-signal EvidenceBundle from
// independent providers.
//
// Each provider is a capability behind the same interface. Providers run
// concurrently with their own timeout. A provider that fails or times
// out contributes nothing and is recorded in the bundle's Failures; it
// never aborts collection for the other providers or the run.
package evidence

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/trendscout/internal/logging"
	"github.com/tomtom215/trendscout/internal/metrics"
	"github.com/tomtom215/trendscout/internal/models"
	"github.com/tomtom215/trendscout/internal/topic"
)

// Request is what a provider sees for one signal.
type Request struct {
	Signal models.Signal
	Topic  topic.Match
	Now    time.Time
}

// Provider is one source of evidence.
type Provider interface {
	// Name identifies the provider in logs, metrics and bundle failures.
	Name() string
	// Collect returns the provider's evidence for req. An error means
	// "no evidence of this type"; it is never fatal.
	Collect(ctx context.Context, req Request) ([]models.Evidence, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc struct {
	ProviderName string
	Fn           func(ctx context.Context, req Request) ([]models.Evidence, error)
}

func (p ProviderFunc) Name() string { return p.ProviderName }

func (p ProviderFunc) Collect(ctx context.Context, req Request) ([]models.Evidence, error) {
	return p.Fn(ctx, req)
}

// Collector fans a signal out to every provider.
type Collector struct {
	providers []Provider
	timeout   time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

// NewCollector creates a collector. timeout bounds each provider call.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCollector(timeout time.Duration, logger zerolog.Logger, providers ...Provider) *Collector {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Collector{
		providers: providers,
		timeout:   timeout,
		now:       time.Now,
		logger:    logger.With().Str("component", "evidence_collector").Logger(),
	}
}

// SetNow fixes the reference time providers see. Runs replayed against
// a fixed clock use it.
func (c *Collector) SetNow(now func() time.Time) {
	c.now = now
}

// Providers returns the provider names in collection order.
func (c *Collector) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

type providerResult struct {
	items []models.Evidence
	err   error
}

// Collect queries every provider and merges the results in provider
// order. It always returns a bundle.
func (c *Collector) Collect(ctx context.Context, signal models.Signal, match topic.Match) models.EvidenceBundle {
	req := Request{Signal: signal, Topic: match, Now: c.now()}
	results := make([]providerResult, len(c.providers))

	var g errgroup.Group
	for i, p := range c.providers {
		g.Go(func() error {
			results[i] = c.call(ctx, p, req)
			return nil
		})
	}
	_ = g.Wait()

	bundle := models.EvidenceBundle{SignalID: signal.ID}
	for i, r := range results {
		name := c.providers[i].Name()
		if r.err != nil {
			bundle.Failures = append(bundle.Failures, models.ProviderFailure{Provider: name, Error: r.err.Error()})
			logging.NewRunLogger(ctx, c.logger).ProviderFailed(name, signal.ID, r.err)
			continue
		}
		for _, item := range r.items {
			if item.Source == "" {
				item.Source = name
			}
			bundle.Items = append(bundle.Items, item)
		}
	}
	return bundle
}

// call runs one provider under its own deadline. A provider that ignores
// its context is abandoned when the deadline passes.
func (c *Collector) call(ctx context.Context, p Provider, req Request) (res providerResult) {
	start := time.Now()
	defer func() {
		metrics.RecordProviderCall(p.Name(), time.Since(start), res.err)
	}()

	pctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan providerResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- providerResult{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()
		items, err := p.Collect(pctx, req)
		done <- providerResult{items: items, err: err}
	}()

	select {
	case res = <-done:
		return res
	case <-pctx.Done():
		return providerResult{err: fmt.Errorf("provider %s: %w", p.Name(), pctx.Err())}
	}
}
