// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package evidence

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/trendscout/internal/models"
	"github.com/tomtom215/trendscout/internal/textmatch"
)

// Provider names.
const (
	ProviderSearch     = "search_interest"
	ProviderCompetitor = "competitor_videos"
	ProviderComments   = "audience_comments"
	ProviderEvents     = "current_events"
)

// SearchTrend is a search query with its estimated daily volume.
type SearchTrend struct {
	Query  string `json:"query" validate:"required"`
	Volume int    `json:"volume" validate:"gte=0"`
}

// AudienceComment is a comment, or a group of identical comments, left
// by the channel's audience.
type AudienceComment struct {
	ID    string `json:"id,omitempty"`
	Text  string `json:"text" validate:"required"`
	Count int    `json:"count,omitempty" validate:"gte=0"`
}

// CurrentEvent is a dated calendar entry.
type CurrentEvent struct {
	Name     string    `json:"name" validate:"required"`
	Keywords []string  `json:"keywords,omitempty"`
	Date     time.Time `json:"date"`
}

// Data is the collaborator data a run's providers are built from.
type Data struct {
	SearchTrends     []SearchTrend     `json:"search_trends,omitempty" validate:"dive"`
	CompetitorVideos []CompetitorVideo `json:"competitor_videos,omitempty" validate:"dive"`
	Comments         []AudienceComment `json:"comments,omitempty" validate:"dive"`
	Events           []CurrentEvent    `json:"events,omitempty" validate:"dive"`
}

// SearchIndex reports search interest for queries the signal mentions.
type SearchIndex struct {
	trends    []SearchTrend
	automaton *textmatch.Automaton
}

var _ Provider = (*SearchIndex)(nil)

// NewSearchIndex indexes trends by query.
func NewSearchIndex(trends []SearchTrend) *SearchIndex {
	a := textmatch.New()
	for _, t := range trends {
		a.Add(t.Query, nil)
	}
	a.Build()
	return &SearchIndex{trends: trends, automaton: a}
}

func (s *SearchIndex) Name() string { return ProviderSearch }

// Collect emits one entry per trending query found in the signal text.
func (s *SearchIndex) Collect(ctx context.Context, req Request) ([]models.Evidence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []models.Evidence
	for _, idx := range s.automaton.Matched(req.Signal.Text()) {
		t := s.trends[idx]
		if t.Volume <= 0 {
			continue
		}
		out = append(out, models.Evidence{
			Type:   models.EvidenceSearchInterest,
			Source: ProviderSearch,
			Weight: float64(t.Volume),
			Count:  t.Volume,
			Text:   fmt.Sprintf("%q searched about %d times a day", t.Query, t.Volume),
		})
	}
	return out, nil
}

// CompetitorIndex reports competitor videos covering the signal's story.
type CompetitorIndex struct {
	videos   []CompetitorVideo
	matcher  *CompetitorMatcher
	lookback time.Duration
}

var _ Provider = (*CompetitorIndex)(nil)

// NewCompetitorIndex creates the provider. Videos older than lookback
// at collection time are ignored.
func NewCompetitorIndex(videos []CompetitorVideo, matcher *CompetitorMatcher, lookback time.Duration) *CompetitorIndex {
	return &CompetitorIndex{videos: videos, matcher: matcher, lookback: lookback}
}

func (c *CompetitorIndex) Name() string { return ProviderCompetitor }

func (c *CompetitorIndex) Collect(ctx context.Context, req Request) ([]models.Evidence, error) {
	var recent []CompetitorVideo
	for _, v := range c.videos {
		if c.lookback > 0 && !v.PublishedAt.IsZero() && req.Now.Sub(v.PublishedAt) > c.lookback {
			continue
		}
		recent = append(recent, v)
	}
	items := c.matcher.Match(ctx, req.Signal, recent)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CommentIndex reports audience comments asking about the signal's topic.
type CommentIndex struct {
	comments []AudienceComment
}

var _ Provider = (*CommentIndex)(nil)

// NewCommentIndex creates the provider.
func NewCommentIndex(comments []AudienceComment) *CommentIndex {
	return &CommentIndex{comments: comments}
}

func (c *CommentIndex) Name() string { return ProviderComments }

// Collect matches comments against the signal's matched topic keywords.
// An uncategorized signal has no keywords and gets no comment evidence.
func (c *CommentIndex) Collect(ctx context.Context, req Request) ([]models.Evidence, error) {
	if len(req.Topic.Keywords) == 0 || len(c.comments) == 0 {
		return nil, nil
	}

	a := textmatch.New()
	for _, kw := range req.Topic.Keywords {
		a.Add(kw, nil)
	}
	a.Build()

	var out []models.Evidence
	for _, cm := range c.comments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hits := a.Matched(cm.Text)
		if len(hits) == 0 {
			continue
		}
		n := max(cm.Count, 1)
		out = append(out, models.Evidence{
			Type:   models.EvidenceAudienceComment,
			Source: ProviderComments,
			Weight: float64(n),
			Count:  n,
			Text:   fmt.Sprintf("%d audience comment(s) mention %q", n, req.Topic.Keywords[hits[0]]),
		})
	}
	return out, nil
}

// EventIndex reports dated events near the run time that the signal
// mentions.
type EventIndex struct {
	events []CurrentEvent
	window time.Duration
}

var _ Provider = (*EventIndex)(nil)

// NewEventIndex creates the provider. An event counts when its date is
// within window of the collection time, before or after.
func NewEventIndex(events []CurrentEvent, window time.Duration) *EventIndex {
	return &EventIndex{events: events, window: window}
}

func (e *EventIndex) Name() string { return ProviderEvents }

func (e *EventIndex) Collect(ctx context.Context, req Request) ([]models.Evidence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text := req.Signal.Text()

	var out []models.Evidence
	for _, ev := range e.events {
		delta := req.Now.Sub(ev.Date)
		if delta < 0 {
			delta = -delta
		}
		if e.window > 0 && delta > e.window {
			continue
		}
		keywords := ev.Keywords
		if len(keywords) == 0 {
			keywords = []string{ev.Name}
		}
		if !textmatch.ContainsAny(text, keywords) {
			continue
		}
		out = append(out, models.Evidence{
			Type:   models.EvidenceCurrentEvent,
			Source: ProviderEvents,
			Weight: 1,
			Count:  1,
			Text:   fmt.Sprintf("ties into %s (%s)", ev.Name, ev.Date.Format("Jan 2")),
		})
	}
	return out, nil
}
