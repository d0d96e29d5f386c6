// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

// Package cluster partitions a run's signals into stories.
//
// Two signals are judged pairwise from the entities in their titles:
//
//   - two or more shared contextual entities (place, organization,
//     concept, topic keyword) merge directly
//   - a shared person plus a shared contextual entity merges directly
//   - shared people with no shared context is borderline and is decided
//     by embedding similarity, with an optional AI tie-break near the
//     threshold; without embeddings the pair is not merged
//   - anything else never merges
//
// Pair judgments feed a union-find, so clustering is transitive: if A
// matches B and B matches C, all three share a cluster. Clustering is a
// batch operation over one run and is not incremental across runs.
package cluster

import (
	"context"
	"errors"
	"math"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trendscout/internal/ai"
	"github.com/tomtom215/trendscout/internal/config"
	"github.com/tomtom215/trendscout/internal/metrics"
	"github.com/tomtom215/trendscout/internal/models"
	"github.com/tomtom215/trendscout/internal/topic"
)

// Comparer computes text similarity. ok is false when unknown.
type Comparer interface {
	Compare(ctx context.Context, a, b string) (sim float64, ok bool)
}

// PairJudge breaks ties for borderline pairs.
type PairJudge interface {
	SameStory(ctx context.Context, titleA, titleB string) (bool, error)
}

// Item is one scored signal to cluster.
type Item struct {
	Signal models.Signal
	Score  float64
	Topic  topic.Match
}

// Decision explains a pair judgment.
type Decision string

// Pair decisions.
const (
	DecisionEntities  Decision = "entities"
	DecisionEmbedding Decision = "embedding"
	DecisionAI        Decision = "ai"
	DecisionNone      Decision = "none"
)

// Clusterer groups items into stories.
type Clusterer struct {
	extractor *Extractor
	comparer  Comparer
	judge     PairJudge
	cfg       config.ClusterConfig
	logger    zerolog.Logger
}

// NewClusterer creates a clusterer. comparer and judge may be nil.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewClusterer(cfg config.ClusterConfig, taxonomy []models.TopicDefinition, comparer Comparer, judge PairJudge, logger zerolog.Logger) *Clusterer {
	lexicon := DefaultLexicon()
	lexicon.Add(KindPerson, cfg.ExtraPeople...)
	lexicon.Add(KindPlace, cfg.ExtraPlaces...)
	lexicon.Add(KindOrganization, cfg.ExtraOrganizations...)

	return &Clusterer{
		extractor: NewExtractor(lexicon, taxonomy),
		comparer:  comparer,
		judge:     judge,
		cfg:       cfg,
		logger:    logger.With().Str("component", "clusterer").Logger(),
	}
}

// Cluster partitions items. Every item lands in exactly one cluster; an
// item that matches nothing is a singleton.
func (c *Clusterer) Cluster(ctx context.Context, items []Item) *Clustering {
	ents := make([]Entities, len(items))
	for i, it := range items {
		ents[i] = c.extractor.Extract(it.Signal.Title, it.Topic.TopicID)
	}

	uf := newUnionFind(len(items))
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if uf.find(i) == uf.find(j) {
				continue
			}
			if ctx.Err() != nil {
				// Cancelled: stop merging, keep the partition valid.
				break
			}
			if same, why := c.Judge(ctx, items[i], items[j], ents[i], ents[j]); same {
				uf.union(i, j)
				c.logger.Debug().
					Str("a", items[i].Signal.ID).
					Str("b", items[j].Signal.ID).
					Str("decision", string(why)).
					Msg("Merged signals")
			}
		}
	}

	result := newClustering(items, uf)
	metrics.ClustersLastRun.Set(float64(result.Len()))
	return result
}

// Judge decides whether two items are the same story.
func (c *Clusterer) Judge(ctx context.Context, a, b Item, ea, eb Entities) (bool, Decision) {
	people, contextual := Overlap(ea, eb)
	switch {
	case contextual >= 2:
		return true, DecisionEntities
	case people >= 1 && contextual >= 1:
		return true, DecisionEntities
	case people >= 1:
		return c.borderline(ctx, a.Signal.Title, b.Signal.Title)
	default:
		return false, DecisionNone
	}
}

// borderline resolves a pair that shares only people.
func (c *Clusterer) borderline(ctx context.Context, titleA, titleB string) (bool, Decision) {
	if c.comparer == nil {
		return false, DecisionNone
	}
	sim, ok := c.comparer.Compare(ctx, titleA, titleB)
	if !ok {
		return false, DecisionNone
	}

	byEmbedding := sim >= c.cfg.EmbeddingThreshold
	if c.judge == nil || math.Abs(sim-c.cfg.EmbeddingThreshold) > c.cfg.AIMargin {
		return byEmbedding, DecisionEmbedding
	}

	same, err := c.judge.SameStory(ctx, titleA, titleB)
	if err != nil {
		if !errors.Is(err, ai.ErrUnavailable) {
			c.logger.Debug().Err(err).Float64("similarity", sim).Msg("Same-story tie-break failed, using embedding")
		}
		return byEmbedding, DecisionEmbedding
	}
	return same, DecisionAI
}

// unionFind is a disjoint-set forest with path compression and union by
// rank.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
}
