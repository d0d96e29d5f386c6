// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package evidence

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trendscout/internal/ai"
	"github.com/tomtom215/trendscout/internal/config"
	"github.com/tomtom215/trendscout/internal/models"
)

// Band classifies a competitor video's similarity to a signal.
type Band string

// Similarity bands, from most to least similar.
const (
	BandSameStory  Band = "same_story"
	BandRelated    Band = "related"
	BandBorderline Band = "borderline"
	BandReject     Band = "reject"
)

// NeedsConfirmation reports whether a match in this band must be
// confirmed before it counts.
func (b Band) NeedsConfirmation() bool {
	return b == BandRelated || b == BandBorderline
}

// unverifiedConfidence marks a match kept without confirmation.
const unverifiedConfidence = 0.5

// Comparer computes text similarity. ok is false when unknown.
type Comparer interface {
	Compare(ctx context.Context, a, b string) (sim float64, ok bool)
}

// Warmer is implemented by comparers that can precompute a set of texts
// in one go before pairwise comparison.
type Warmer interface {
	Warm(ctx context.Context, texts []string)
}

// RelevanceJudge confirms related and borderline competitor matches.
type RelevanceJudge interface {
	CompetitorRelevant(ctx context.Context, signalTitle, videoTitle string) (bool, error)
}

// CompetitorVideo is a recent upload from a tracked competitor channel.
type CompetitorVideo struct {
	ID          string    `json:"id" validate:"required"`
	Channel     string    `json:"channel"`
	Title       string    `json:"title" validate:"required"`
	PublishedAt time.Time `json:"published_at"`
	Views       int64     `json:"views,omitempty"`
}

type pairKey struct {
	signalID string
	videoID  string
}

// CompetitorMatcher bands competitor videos against a signal by title
// similarity and confirms uncertain bands with a judge. Judge answers are
// cached per (signal, video) pair for the matcher's lifetime, which is one
// run.
type CompetitorMatcher struct {
	comparer  Comparer
	judge     RelevanceJudge
	cfg       config.EvidenceConfig
	mu        sync.Mutex
	confirmed map[pairKey]bool
	logger    zerolog.Logger
}

// NewCompetitorMatcher creates a matcher. judge may be nil.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCompetitorMatcher(comparer Comparer, judge RelevanceJudge, cfg config.EvidenceConfig, logger zerolog.Logger) *CompetitorMatcher {
	return &CompetitorMatcher{
		comparer:  comparer,
		judge:     judge,
		cfg:       cfg,
		confirmed: make(map[pairKey]bool),
		logger:    logger.With().Str("component", "competitor_matcher").Logger(),
	}
}

// Classify returns the band for a similarity score.
func (m *CompetitorMatcher) Classify(similarity float64) Band {
	switch {
	case similarity >= m.cfg.SameStoryThreshold:
		return BandSameStory
	case similarity >= m.cfg.RelatedThreshold:
		return BandRelated
	case similarity >= m.cfg.BorderlineThreshold:
		return BandBorderline
	default:
		return BandReject
	}
}

type candidate struct {
	video CompetitorVideo
	sim   float64
	band  Band
}

// Match returns competitor evidence for signal. Same-story matches are
// accepted outright. Related and borderline matches are sent to the judge,
// most similar first, up to MaxAICallsPerSignal calls; a match the judge
// rejects is dropped, and one it could not rule on is kept with
// NeedsAIValidation set.
func (m *CompetitorMatcher) Match(ctx context.Context, signal models.Signal, videos []CompetitorVideo) []models.Evidence {
	if m.comparer == nil || len(videos) == 0 || signal.Title == "" {
		return nil
	}

	if w, ok := m.comparer.(Warmer); ok {
		texts := make([]string, 0, len(videos)+1)
		texts = append(texts, signal.Title)
		for _, v := range videos {
			texts = append(texts, v.Title)
		}
		w.Warm(ctx, texts)
	}

	var candidates []candidate
	for _, v := range videos {
		sim, ok := m.comparer.Compare(ctx, signal.Title, v.Title)
		if !ok {
			continue
		}
		band := m.Classify(sim)
		if band == BandReject {
			continue
		}
		candidates = append(candidates, candidate{video: v, sim: sim, band: band})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].sim > candidates[j].sim })

	var out []models.Evidence
	aiCalls := 0
	for _, c := range candidates {
		e := m.evidence(c)
		if !c.band.NeedsConfirmation() {
			out = append(out, e)
			continue
		}

		relevant, decided, called := m.confirm(ctx, signal, c.video, aiCalls)
		if called {
			aiCalls++
		}
		switch {
		case !decided:
			e.NeedsAIValidation = true
			e.Confidence = unverifiedConfidence
			out = append(out, e)
		case relevant:
			out = append(out, e)
		}
	}
	return out
}

// confirm asks the judge about one pair. decided is false when no answer
// could be obtained. called reports whether a new judge call was spent.
func (m *CompetitorMatcher) confirm(ctx context.Context, signal models.Signal, video CompetitorVideo, spent int) (relevant, decided, called bool) {
	key := pairKey{signalID: signal.ID, videoID: video.ID}

	m.mu.Lock()
	cached, ok := m.confirmed[key]
	m.mu.Unlock()
	if ok {
		return cached, true, false
	}

	if m.judge == nil || spent >= m.cfg.MaxAICallsPerSignal {
		return false, false, false
	}

	relevant, err := m.judge.CompetitorRelevant(ctx, signal.Title, video.Title)
	if err != nil {
		if !errors.Is(err, ai.ErrUnavailable) {
			m.logger.Debug().Err(err).Str("signal_id", signal.ID).Str("video_id", video.ID).Msg("Competitor confirmation failed, keeping match unverified")
		}
		return false, false, !errors.Is(err, ai.ErrUnavailable)
	}

	m.mu.Lock()
	m.confirmed[key] = relevant
	m.mu.Unlock()
	return relevant, true, true
}

func (m *CompetitorMatcher) evidence(c candidate) models.Evidence {
	published := c.video.PublishedAt
	e := models.Evidence{
		Type:       models.EvidenceCompetitorVideo,
		Source:     c.video.Channel,
		Weight:     1,
		Count:      1,
		Confidence: c.sim,
		VideoID:    c.video.ID,
		Similarity: c.sim,
		Band:       string(c.band),
		Text:       fmt.Sprintf("%s covered %q (%s, similarity %.2f)", channelName(c.video), c.video.Title, c.band, c.sim),
	}
	if !published.IsZero() {
		e.PublishedAt = &published
	}
	return e
}

func channelName(v CompetitorVideo) string {
	if v.Channel == "" {
		return "a competitor"
	}
	return v.Channel
}
