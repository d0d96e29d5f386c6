// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package embed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/trendscout/internal/textmatch"
)

// HTTPConfig configures an OpenAI-compatible embeddings endpoint.
type HTTPConfig struct {
	URL               string
	Model             string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	// RetryBackoff is the first retry delay; later retries double it.
	RetryBackoff time.Duration
	// BatchSize caps inputs per upstream request.
	BatchSize int
}

// DefaultHTTPConfig returns conservative defaults for url.
func DefaultHTTPConfig(url string) HTTPConfig {
	return HTTPConfig{
		URL:               url,
		Model:             "text-embedding-3-small",
		Timeout:           10 * time.Second,
		RequestsPerSecond: 2,
		Burst:             1,
		MaxRetries:        3,
		RetryBackoff:      time.Second,
		BatchSize:         64,
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []embedding `json:"data"`
}

type embedding struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// HTTPEmbedder calls an OpenAI-compatible /v1/embeddings endpoint. Calls
// are throttled by a token bucket and retried on 429 and 5xx.
type HTTPEmbedder struct {
	cfg     HTTPConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

var _ BatchEmbedder = (*HTTPEmbedder)(nil)

// NewHTTPEmbedder creates an HTTP embedder.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHTTPEmbedder(cfg HTTPConfig, logger zerolog.Logger) *HTTPEmbedder {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 64
	}

	return &HTTPEmbedder{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:  logger.With().Str("component", "embedder").Logger(),
	}
}

// Available reports whether an endpoint is configured.
func (e *HTTPEmbedder) Available() bool {
	return e.cfg.URL != ""
}

// Embed returns the vector for text.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in chunks of BatchSize.
func (e *HTTPEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if !e.Available() {
		return nil, ErrUnavailable
	}
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += e.cfg.BatchSize {
		end := start + e.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		chunk := texts[start:end]

		resp, err := e.call(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("embed: chunk starting at %d: %w", start, err)
		}
		for _, item := range resp.Data {
			if item.Index < 0 || item.Index >= len(chunk) {
				return nil, fmt.Errorf("embed: out-of-range index %d for chunk of %d", item.Index, len(chunk))
			}
			results[start+item.Index] = item.Embedding
		}
	}

	for i, r := range results {
		if len(r) == 0 {
			return nil, fmt.Errorf("embed: missing embedding for input %d", i)
		}
	}
	return results, nil
}

func (e *HTTPEmbedder) call(ctx context.Context, input []string) (*embedResponse, error) {
	body, err := json.Marshal(embedRequest{Model: e.cfg.Model, Input: input})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	delay := e.cfg.RetryBackoff
	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			e.logger.Debug().Err(lastErr).Int("attempt", attempt).Dur("delay", delay).Msg("Retrying embedding request")
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("cancelled during retry: %w", ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}

		resp, retryAfter, err := e.do(ctx, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return nil, err
		}
		if retryAfter > 0 {
			delay = retryAfter
		}
	}

	return nil, fmt.Errorf("all retries exhausted: %w", lastErr)
}

// statusError is a non-200 response.
type statusError struct {
	code int
	body string
}

func (s *statusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", s.code, s.body)
}

// parseError is a 200 response whose body could not be decoded.
type parseError struct{ err error }

func (p *parseError) Error() string { return "parse response: " + p.err.Error() }
func (p *parseError) Unwrap() error { return p.err }

func isRetryable(err error) bool {
	switch e := err.(type) { //nolint:errorlint // only locally constructed, never wrapped
	case *statusError:
		return e.code == http.StatusTooManyRequests || e.code >= 500
	case *parseError:
		return true
	default:
		return false
	}
}

func (e *HTTPEmbedder) do(ctx context.Context, body []byte) (*embedResponse, time.Duration, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var retryAfter time.Duration
		if seconds, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil && seconds > 0 {
			retryAfter = min(time.Duration(seconds)*time.Second, 30*time.Second)
		}
		return nil, retryAfter, &statusError{code: resp.StatusCode, body: textmatch.Truncate(string(data), 200)}
	}

	var out embedResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, 0, &parseError{err: err}
	}
	return &out, 0, nil
}
