// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package topic

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trendscout/internal/embed"
)

// Similarity compares texts by embedding cosine similarity.
type Similarity struct {
	embedder embed.Embedder
	logger   zerolog.Logger
}

// NewSimilarity wraps e. A nil embedder is treated as unavailable.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSimilarity(e embed.Embedder, logger zerolog.Logger) *Similarity {
	if e == nil {
		e = embed.Unavailable{}
	}
	return &Similarity{
		embedder: e,
		logger:   logger.With().Str("component", "similarity").Logger(),
	}
}

// Available reports whether embeddings can be computed.
func (s *Similarity) Available() bool {
	return s != nil && s.embedder.Available()
}

// Warm embeds texts ahead of a series of Compare calls, in one batch
// when the embedder supports it. Failures are left for Compare to report.
func (s *Similarity) Warm(ctx context.Context, texts []string) {
	if !s.Available() || len(texts) == 0 {
		return
	}
	batch, ok := s.embedder.(embed.BatchEmbedder)
	if !ok {
		return
	}
	if _, err := batch.EmbedBatch(ctx, texts); err != nil {
		s.logger.Debug().Err(err).Int("texts", len(texts)).Msg("Batch embedding failed, comparing pair by pair")
	}
}

// Compare returns the cosine similarity of a and b. ok is false when
// either embedding could not be computed; callers must then treat the
// pair as unknown rather than dissimilar.
func (s *Similarity) Compare(ctx context.Context, a, b string) (sim float64, ok bool) {
	if !s.Available() {
		return 0, false
	}

	va, err := s.embedder.Embed(ctx, a)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Embedding unavailable, similarity unknown")
		return 0, false
	}
	vb, err := s.embedder.Embed(ctx, b)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Embedding unavailable, similarity unknown")
		return 0, false
	}
	return embed.CosineSimilarity(va, vb), true
}
