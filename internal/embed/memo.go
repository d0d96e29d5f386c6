// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/trendscout/internal/cache"
	"github.com/tomtom215/trendscout/internal/metrics"
	"github.com/tomtom215/trendscout/internal/textmatch"
)

// VectorStore persists embeddings across runs.
type VectorStore interface {
	GetEmbedding(key string) ([]float32, bool, error)
	PutEmbedding(key string, vector []float32) error
}

// Memo wraps an Embedder with an in-process LRU, an optional persistent
// store, and request coalescing. Text is normalized before hashing so
// case and whitespace variants share one vector.
type Memo struct {
	inner  Embedder
	model  string
	lru    *cache.LRU[string, []float32]
	store  VectorStore
	group  singleflight.Group
	logger zerolog.Logger
}

var _ BatchEmbedder = (*Memo)(nil)

// NewMemo wraps inner. store may be nil.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMemo(inner Embedder, model string, size int, store VectorStore, logger zerolog.Logger) *Memo {
	if size <= 0 {
		size = 10000
	}
	return &Memo{
		inner:  inner,
		model:  model,
		lru:    cache.NewLRU[string, []float32](size, 0),
		store:  store,
		logger: logger.With().Str("component", "embed_memo").Logger(),
	}
}

// Key returns the cache key for text under model.
func Key(model, text string) string {
	sum := sha256.Sum256([]byte(textmatch.Normalize(text)))
	return model + ":" + hex.EncodeToString(sum[:])
}

// Available delegates to the wrapped embedder.
func (m *Memo) Available() bool {
	return m.inner != nil && m.inner.Available()
}

// Embed returns a cached vector or fetches one upstream.
func (m *Memo) Embed(ctx context.Context, text string) ([]float32, error) {
	if !m.Available() {
		return nil, ErrUnavailable
	}

	key := Key(m.model, text)
	if v, ok := m.lru.Get(key); ok {
		metrics.RecordEmbeddingLookup("memory")
		return v, nil
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		if stored, ok := m.lookup(key); ok {
			return stored, nil
		}

		vector, err := m.inner.Embed(ctx, textmatch.Normalize(text))
		if err != nil {
			metrics.RecordEmbeddingLookup("error")
			return nil, fmt.Errorf("embed upstream: %w", err)
		}
		metrics.RecordEmbeddingLookup("upstream")
		m.lru.Add(key, vector)

		if m.store != nil {
			if err := m.store.PutEmbedding(key, vector); err != nil {
				m.logger.Warn().Err(err).Msg("Embedding store write failed")
			}
		}
		return vector, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]float32), nil
}

// lookup returns a cached vector from memory or the store.
func (m *Memo) lookup(key string) ([]float32, bool) {
	if v, ok := m.lru.Get(key); ok {
		metrics.RecordEmbeddingLookup("memory")
		return v, true
	}
	if m.store == nil {
		return nil, false
	}
	stored, found, err := m.store.GetEmbedding(key)
	if err != nil {
		m.logger.Warn().Err(err).Msg("Embedding store read failed")
		return nil, false
	}
	if !found {
		return nil, false
	}
	metrics.RecordEmbeddingLookup("store")
	m.lru.Add(key, stored)
	return stored, true
}

// EmbedBatch returns one vector per text, in order. Cached texts are served
// locally; the rest go upstream in a single batch when the wrapped
// embedder supports it, or one by one otherwise.
func (m *Memo) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if !m.Available() {
		return nil, ErrUnavailable
	}

	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	pending := make(map[string][]int)
	var missing []string // normalized, one per distinct key

	for i, text := range texts {
		keys[i] = Key(m.model, text)
		if v, ok := m.lookup(keys[i]); ok {
			out[i] = v
			continue
		}
		if _, seen := pending[keys[i]]; !seen {
			missing = append(missing, textmatch.Normalize(text))
		}
		pending[keys[i]] = append(pending[keys[i]], i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vectors, err := m.fetch(ctx, missing)
	if err != nil {
		metrics.RecordEmbeddingLookup("error")
		return nil, fmt.Errorf("embed upstream: %w", err)
	}

	for j, text := range missing {
		key := Key(m.model, text)
		metrics.RecordEmbeddingLookup("upstream")
		m.lru.Add(key, vectors[j])
		if m.store != nil {
			if err := m.store.PutEmbedding(key, vectors[j]); err != nil {
				m.logger.Warn().Err(err).Msg("Embedding store write failed")
			}
		}
		for _, i := range pending[key] {
			out[i] = vectors[j]
		}
	}
	return out, nil
}

func (m *Memo) fetch(ctx context.Context, texts []string) ([][]float32, error) {
	if batch, ok := m.inner.(BatchEmbedder); ok {
		vectors, err := batch.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("got %d vectors for %d texts", len(vectors), len(texts))
		}
		return vectors, nil
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.inner.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}
