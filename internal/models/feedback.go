// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package models

import (
	"fmt"
	"time"
)

// FeedbackAction is a user action on a recommendation.
type FeedbackAction string

// Feedback actions.
const (
	ActionLiked    FeedbackAction = "liked"
	ActionRejected FeedbackAction = "rejected"
	ActionSaved    FeedbackAction = "saved"
	ActionProduced FeedbackAction = "produced"
)

// IsPositive reports whether the action expresses a preference for the topic.
// Saving and producing count as positive alongside liking.
func (a FeedbackAction) IsPositive() bool {
	return a == ActionLiked || a == ActionSaved || a == ActionProduced
}

// IsNegative reports whether the action expresses a rejection of the topic.
func (a FeedbackAction) IsNegative() bool {
	return a == ActionRejected
}

// Valid reports whether a is a known action.
func (a FeedbackAction) Valid() bool {
	return a.IsPositive() || a.IsNegative()
}

// FeedbackEvent is an immutable record of a user action against a past
// recommendation. Events are append-only; a retraction is a new
// compensating event, never an edit.
type FeedbackEvent struct {
	ID               string         `json:"id"`
	RecommendationID string         `json:"recommendation_id" validate:"required"`
	SignalID         string         `json:"signal_id,omitempty"`
	TopicIDs         []string       `json:"topic_ids" validate:"required,min=1,dive,required"`
	PersonaID        string         `json:"persona_id,omitempty"`
	Action           FeedbackAction `json:"action" validate:"required,oneof=liked rejected saved produced"`
	Timestamp        time.Time      `json:"timestamp"`
}

// PatternWeight bounds.
const (
	MinPatternWeight     = 0.5
	MaxPatternWeight     = 2.0
	DefaultPatternWeight = 1.0
)

// ClampPatternWeight bounds w to [MinPatternWeight, MaxPatternWeight].
func ClampPatternWeight(w float64) float64 {
	if w < MinPatternWeight {
		return MinPatternWeight
	}
	if w > MaxPatternWeight {
		return MaxPatternWeight
	}
	return w
}

// PatternWeight is a learned multiplier for one topic.
type PatternWeight struct {
	TopicID   string    `json:"topic_id"`
	Weight    float64   `json:"weight"`
	Liked     int       `json:"liked"`
	Rejected  int       `json:"rejected"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// WeightSnapshot is an immutable, versioned set of pattern weights. The
// learning loop produces a new snapshot on every run; the scorer reads
// whichever snapshot was current when its run started.
type WeightSnapshot struct {
	Version    string                   `json:"version"`
	Sequence   int64                    `json:"sequence"`
	ComputedAt time.Time                `json:"computed_at"`
	Weights    map[string]PatternWeight `json:"weights"`
	// Updated lists the topics reweighted by the run that produced this
	// snapshot. Other entries were carried over.
	Updated []string `json:"updated,omitempty"`
}

// Weight returns the weight for topicID, or the default weight when the
// topic has none. A nil snapshot yields the default.
func (s *WeightSnapshot) Weight(topicID string) float64 {
	if s == nil {
		return DefaultPatternWeight
	}
	w, ok := s.Weights[topicID]
	if !ok {
		return DefaultPatternWeight
	}
	return ClampPatternWeight(w.Weight)
}

// ISOWeek formats t's ISO week as a key such as 2026-W09.
func ISOWeek(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}
