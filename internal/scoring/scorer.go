// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package scoring

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trendscout/internal/ai"
	"github.com/tomtom215/trendscout/internal/config"
	"github.com/tomtom215/trendscout/internal/logging"
	"github.com/tomtom215/trendscout/internal/metrics"
	"github.com/tomtom215/trendscout/internal/models"
	"github.com/tomtom215/trendscout/internal/topic"
)

// Confirmation methods.
const (
	MethodNone      = "none"
	MethodHeuristic = "heuristic"
	MethodAI        = "ai"
	MethodFailOpen  = "fail_open"
)

// Confirmer is the AI urgency check for post_today candidates.
type Confirmer interface {
	ConfirmUrgency(ctx context.Context, in ai.UrgencyInput) (ai.UrgencyVerdict, error)
}

// Input is everything the scorer needs for one signal.
type Input struct {
	Signal   models.Signal
	Evidence models.EvidenceBundle
	Topic    topic.Match
	// PatternWeight is the topic's learned multiplier. Zero means unknown
	// and is treated as the neutral weight.
	PatternWeight float64
	Now           time.Time
}

// Breakdown is the per-component contribution to a score.
type Breakdown struct {
	Search        float64 `json:"search"`
	Competitor    float64 `json:"competitor"`
	Comments      float64 `json:"comments"`
	CurrentEvent  float64 `json:"current_event"`
	Topic         float64 `json:"topic"`
	Base          float64 `json:"base"`
	PatternWeight float64 `json:"pattern_weight"`
	Freshness     float64 `json:"freshness"`
}

// Confirmation records the post_today validation step.
type Confirmation struct {
	// Required is true when the score reached the post_today threshold.
	Required  bool   `json:"required"`
	Confirmed bool   `json:"confirmed"`
	Method    string `json:"method"`
	Reason    string `json:"reason,omitempty"`
}

// Result is the scorer's output for one signal.
type Result struct {
	Score        float64      `json:"score"`
	Tier         models.Tier  `json:"tier"`
	Breakdown    Breakdown    `json:"breakdown"`
	Evergreen    bool         `json:"evergreen"`
	Confirmation Confirmation `json:"confirmation"`
}

// Scorer computes scores and tiers. It holds no per-run state and is safe
// for concurrent use.
type Scorer struct {
	cfg       config.ScoringConfig
	confirmer Confirmer
	logger    zerolog.Logger
}

// NewScorer creates a scorer. confirmer may be nil, in which case the
// heuristic check alone decides post_today.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewScorer(cfg config.ScoringConfig, confirmer Confirmer, logger zerolog.Logger) *Scorer {
	return &Scorer{
		cfg:       cfg,
		confirmer: confirmer,
		logger:    logger.With().Str("component", "scorer").Logger(),
	}
}

// Score scores one signal. Missing evidence contributes zero and a failed
// confirmation never blocks scoring.
func (s *Scorer) Score(ctx context.Context, in Input) Result {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	b := s.breakdown(in, now)
	evergreen := in.Signal.IsEvergreen || (s.cfg.DetectEvergreen && DetectEvergreen(in.Signal.Title, in.Signal.Description))
	b.Freshness = 1
	if !evergreen {
		b.Freshness = s.freshness(in.Signal.Age(now))
	}

	score := clamp(b.Base*b.PatternWeight*b.Freshness, 0, 100)
	score = math.Round(score*100) / 100

	res := Result{Score: score, Breakdown: b, Evergreen: evergreen}
	if score < s.cfg.PostTodayThreshold {
		res.Confirmation = Confirmation{Method: MethodNone}
		res.Tier = tierFor(score, false, s.cfg.PostTodayThreshold, s.cfg.ThisWeekThreshold)
		return res
	}

	res.Confirmation = s.confirm(ctx, in, res, now)
	res.Tier = tierFor(score, res.Confirmation.Confirmed, s.cfg.PostTodayThreshold, s.cfg.ThisWeekThreshold)
	if !res.Confirmation.Confirmed {
		metrics.RecordDemotion(res.Confirmation.Method)
		logging.NewRunLogger(ctx, s.logger).Demoted(in.Signal.ID, res.Confirmation.Reason, score)
	}
	return res
}

func (s *Scorer) breakdown(in Input, now time.Time) Breakdown {
	var b Breakdown

	var volume float64
	for _, e := range in.Evidence.ByType(models.EvidenceSearchInterest) {
		volume += e.Weight
	}
	if s.cfg.SearchDivisor > 0 {
		b.Search = math.Min(s.cfg.SearchCap, volume/s.cfg.SearchDivisor)
	}

	confirmed, recent := s.competitorMatches(in.Evidence, now)
	competitor := s.cfg.CompetitorPerMatch * float64(confirmed)
	if recent {
		competitor += s.cfg.CompetitorRecencyBonus
	}
	b.Competitor = math.Min(s.cfg.CompetitorCap, competitor)

	mentions := 0
	for _, e := range in.Evidence.ByType(models.EvidenceAudienceComment) {
		mentions += max(e.Count, 1)
	}
	b.Comments = math.Min(s.cfg.CommentCap, s.cfg.CommentPerMention*float64(mentions))

	if in.Evidence.HasType(models.EvidenceCurrentEvent) {
		b.CurrentEvent = s.cfg.CurrentEventPoints
	}

	b.Topic = math.Min(s.cfg.TopicCap, in.Topic.Confidence*s.cfg.TopicFactor)

	b.Base = b.Search + b.Competitor + b.Comments + b.CurrentEvent + b.Topic
	b.PatternWeight = in.PatternWeight
	if b.PatternWeight == 0 {
		b.PatternWeight = models.DefaultPatternWeight
	}
	b.PatternWeight = models.ClampPatternWeight(b.PatternWeight)
	return b
}

// competitorMatches counts confirmed competitor matches and reports
// whether any of them was published within the recent window.
// Unverified matches are display-only.
func (s *Scorer) competitorMatches(bundle models.EvidenceBundle, now time.Time) (confirmed int, recent bool) {
	for _, e := range bundle.ByType(models.EvidenceCompetitorVideo) {
		if e.NeedsAIValidation {
			continue
		}
		confirmed++
		if e.PublishedAt != nil && now.Sub(*e.PublishedAt) <= s.cfg.RecentWindow {
			recent = true
		}
	}
	return confirmed, recent
}

// freshness is 1 inside the freshness window, then falls linearly to
// MinFreshness over DecayPeriod. Unknown age is not penalized.
func (s *Scorer) freshness(age time.Duration) float64 {
	if age <= s.cfg.FreshnessWindow {
		return 1
	}
	if s.cfg.DecayPeriod <= 0 {
		return s.cfg.MinFreshness
	}
	over := float64(age-s.cfg.FreshnessWindow) / float64(s.cfg.DecayPeriod)
	return math.Max(s.cfg.MinFreshness, 1-over*(1-s.cfg.MinFreshness))
}

// confirm runs the post_today validation step. The AI check is used when
// enabled; its explicit "no" demotes, and its failure either trusts the
// threshold (FailOpen) or falls back to the heuristic check.
func (s *Scorer) confirm(ctx context.Context, in Input, res Result, now time.Time) Confirmation {
	if s.cfg.AIConfirmation && s.confirmer != nil {
		verdict, err := s.confirmer.ConfirmUrgency(ctx, ai.UrgencyInput{
			Title:           in.Signal.Title,
			Description:     in.Signal.Description,
			Score:           res.Score,
			Topic:           in.Topic.TopicName,
			EvidenceSummary: in.Evidence.String(),
			Age:             in.Signal.Age(now),
		})
		switch {
		case err == nil && verdict.ShouldPostToday:
			return Confirmation{Required: true, Confirmed: true, Method: MethodAI, Reason: verdict.Reason}
		case err == nil:
			return Confirmation{Required: true, Method: MethodAI, Reason: "ai: " + verdict.Reason}
		case errors.Is(err, ai.ErrUnavailable):
			// No AI configured: the heuristic is the only check.
		case s.cfg.FailOpen:
			logging.NewRunLogger(ctx, s.logger).FailOpen("urgency_confirmation", in.Signal.ID, err)
			metrics.RecordAICall(ai.PurposeUrgency, "fail_open")
			return Confirmation{Required: true, Confirmed: true, Method: MethodFailOpen, Reason: "confirmation unavailable, trusting score"}
		default:
			s.logger.Warn().Err(err).Str("signal_id", in.Signal.ID).Msg("Urgency confirmation failed, using heuristic")
		}
	}

	ok, reason := s.heuristic(in, now)
	return Confirmation{Required: true, Confirmed: ok, Method: MethodHeuristic, Reason: reason}
}

// heuristic confirms urgency when the signal is recent and either
// competitors are already covering it or it fits its topic cleanly.
func (s *Scorer) heuristic(in Input, now time.Time) (bool, string) {
	age := in.Signal.Age(now)
	if in.Signal.PublishedAt == nil || age > s.cfg.RecentWindow {
		return false, "not breaking: published outside the recent window"
	}
	if confirmed, _ := s.competitorMatches(in.Evidence, now); confirmed > 0 {
		return true, "recent with active competitor coverage"
	}
	if in.Topic.Confidence >= s.cfg.MinTopicConfidence {
		return true, "recent with a clean topic match"
	}
	return false, "recent but no competitor coverage or clean topic match"
}
