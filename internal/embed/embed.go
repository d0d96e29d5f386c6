// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

// Package embed provides text embeddings and cosine similarity for the
// topic, evidence and clustering layers.
//
// Embedding is an optional capability. When no embedder is configured,
// Unavailable reports itself unavailable and callers treat every
// embedding-based judgment as "unknown" instead of failing.
package embed

import (
	"context"
	"errors"
	"math"
)

// ErrUnavailable is returned when no embedding service is configured.
var ErrUnavailable = errors.New("embed: embedder unavailable")

// Embedder generates vector embeddings from text.
type Embedder interface {
	// Available reports whether the service is configured.
	Available() bool
	// Embed returns the vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder embeds many texts in one upstream call. On success the
// result has one vector per input, in input order.
type BatchEmbedder interface {
	Embedder
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Mismatched or empty vectors and zero vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Unavailable is the embedder used when embeddings are disabled.
type Unavailable struct{}

var _ Embedder = Unavailable{}

// Available always returns false.
func (Unavailable) Available() bool { return false }

// Embed always returns ErrUnavailable.
func (Unavailable) Embed(context.Context, string) ([]float32, error) {
	return nil, ErrUnavailable
}
