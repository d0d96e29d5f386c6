// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/trendscout/internal/cache"
	"github.com/tomtom215/trendscout/internal/metrics"
	"github.com/tomtom215/trendscout/internal/textmatch"
)

// Judgment purposes, used as metric labels and cache key prefixes.
const (
	PurposeCompetitor = "competitor_relevance"
	PurposeSameStory  = "same_story"
	PurposeUrgency    = "urgency"
)

// errNoVerdict means the model answered without the required field.
var errNoVerdict = errors.New("ai: answer has no verdict")

const (
	competitorSystemPrompt = `You compare a news story with a video title. Answer with JSON only: {"relevant": true|false, "reason": "<short>"}. relevant is true only when the video covers the same underlying story, not merely the same broad topic.`

	sameStorySystemPrompt = `You decide whether two headlines report the same underlying story. Answer with JSON only: {"same_story": true|false, "reason": "<short>"}.`

	urgencySystemPrompt = `You are an editor deciding whether a story must be covered today. Consider breaking-news recency, whether competitors are already covering it, and how cleanly it fits the channel topic. Answer with JSON only: {"should_post_today": true|false, "confidence": 0.0-1.0, "reason": "<short>"}.`
)

// UrgencyInput describes a post_today candidate.
type UrgencyInput struct {
	Title           string
	Description     string
	Score           float64
	Topic           string
	EvidenceSummary string
	Age             time.Duration
}

// UrgencyVerdict is the model's answer for a post_today candidate.
type UrgencyVerdict struct {
	ShouldPostToday bool    `json:"should_post_today"`
	Confidence      float64 `json:"confidence"`
	Reason          string  `json:"reason"`
}

// verdict is a cached yes/no answer.
type verdict struct {
	Yes        bool
	Confidence float64
	Reason     string
}

// Judge asks a provider for yes/no judgments and caches the answers.
// A nil Judge or one wrapping an unavailable provider returns
// ErrUnavailable from every method.
type Judge struct {
	provider Provider
	answers  *cache.LRU[string, verdict]
	logger   zerolog.Logger
}

// NewJudge creates a judge. cacheSize <= 0 disables answer caching.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewJudge(provider Provider, cacheSize int, ttl time.Duration, logger zerolog.Logger) *Judge {
	j := &Judge{
		provider: provider,
		logger:   logger.With().Str("component", "ai_judge").Logger(),
	}
	if cacheSize > 0 {
		j.answers = cache.NewLRU[string, verdict](cacheSize, ttl)
	}
	return j
}

// Available reports whether judgments can be requested.
func (j *Judge) Available() bool {
	return j != nil && j.provider != nil && j.provider.Available()
}

// CompetitorRelevant reports whether a competitor video covers the
// signal's story.
func (j *Judge) CompetitorRelevant(ctx context.Context, signalTitle, videoTitle string) (bool, error) {
	prompt := fmt.Sprintf("Story: %s\nVideo: %s", signalTitle, videoTitle)
	v, err := j.ask(ctx, PurposeCompetitor, competitorSystemPrompt, prompt, func(content string) (verdict, error) {
		var ans struct {
			Relevant *bool  `json:"relevant"`
			Reason   string `json:"reason"`
		}
		if err := decodeAnswer(content, &ans); err != nil {
			return verdict{}, err
		}
		if ans.Relevant == nil {
			return verdict{}, errNoVerdict
		}
		return verdict{Yes: *ans.Relevant, Reason: ans.Reason}, nil
	}, signalTitle, videoTitle)
	return v.Yes, err
}

// SameStory reports whether two headlines describe one story.
func (j *Judge) SameStory(ctx context.Context, titleA, titleB string) (bool, error) {
	// Order-independent key.
	a, b := titleA, titleB
	if textmatch.Normalize(a) > textmatch.Normalize(b) {
		a, b = b, a
	}
	prompt := fmt.Sprintf("Headline A: %s\nHeadline B: %s", a, b)
	v, err := j.ask(ctx, PurposeSameStory, sameStorySystemPrompt, prompt, func(content string) (verdict, error) {
		var ans struct {
			SameStory *bool  `json:"same_story"`
			Reason    string `json:"reason"`
		}
		if err := decodeAnswer(content, &ans); err != nil {
			return verdict{}, err
		}
		if ans.SameStory == nil {
			return verdict{}, errNoVerdict
		}
		return verdict{Yes: *ans.SameStory, Reason: ans.Reason}, nil
	}, a, b)
	return v.Yes, err
}

// ConfirmUrgency asks whether a post_today candidate is genuinely urgent.
// An answer missing should_post_today is an error, so callers only
// demote on an explicit false.
func (j *Judge) ConfirmUrgency(ctx context.Context, in UrgencyInput) (UrgencyVerdict, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\n", in.Title)
	if in.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", in.Description)
	}
	fmt.Fprintf(&sb, "Topic: %s\nScore: %.0f/100\n", in.Topic, in.Score)
	if in.Age > 0 {
		fmt.Fprintf(&sb, "Age: %.0f hours\n", in.Age.Hours())
	}
	if in.EvidenceSummary != "" {
		fmt.Fprintf(&sb, "Evidence: %s\n", in.EvidenceSummary)
	}

	v, err := j.ask(ctx, PurposeUrgency, urgencySystemPrompt, sb.String(), func(content string) (verdict, error) {
		var ans struct {
			ShouldPostToday *bool   `json:"should_post_today"`
			Confidence      float64 `json:"confidence"`
			Reason          string  `json:"reason"`
		}
		if err := decodeAnswer(content, &ans); err != nil {
			return verdict{}, err
		}
		if ans.ShouldPostToday == nil {
			return verdict{}, errNoVerdict
		}
		return verdict{Yes: *ans.ShouldPostToday, Confidence: ans.Confidence, Reason: ans.Reason}, nil
	}, in.Title, in.EvidenceSummary)
	if err != nil {
		return UrgencyVerdict{}, err
	}
	return UrgencyVerdict{ShouldPostToday: v.Yes, Confidence: v.Confidence, Reason: v.Reason}, nil
}

func (j *Judge) ask(
	ctx context.Context,
	purpose, system, prompt string,
	parse func(string) (verdict, error),
	keyParts ...string,
) (verdict, error) {
	if !j.Available() {
		metrics.RecordAICall(purpose, "unavailable")
		return verdict{}, ErrUnavailable
	}

	key := cacheKey(purpose, keyParts...)
	if j.answers != nil {
		if v, ok := j.answers.Get(key); ok {
			metrics.RecordAICall(purpose, "cached")
			return v, nil
		}
	}

	resp, err := j.provider.Generate(ctx, Request{SystemPrompt: system, UserPrompt: prompt, MaxTokens: 150})
	if err != nil {
		metrics.RecordAICall(purpose, "error")
		return verdict{}, fmt.Errorf("%s: %w", purpose, err)
	}

	v, err := parse(resp.Content)
	if err != nil {
		metrics.RecordAICall(purpose, "unparseable")
		j.logger.Debug().Err(err).Str("purpose", purpose).Str("content", textmatch.Truncate(resp.Content, 200)).Msg("Could not parse AI answer")
		return verdict{}, fmt.Errorf("%s: %w", purpose, err)
	}

	if v.Yes {
		metrics.RecordAICall(purpose, "yes")
	} else {
		metrics.RecordAICall(purpose, "no")
	}
	if j.answers != nil {
		j.answers.Add(key, v)
	}
	return v, nil
}

// decodeAnswer extracts the first JSON object from content. Models often
// wrap JSON in prose or code fences.
func decodeAnswer(content string, out any) error {
	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in answer")
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), out); err != nil {
		return fmt.Errorf("decode answer: %w", err)
	}
	return nil
}

func cacheKey(purpose string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(textmatch.Normalize(p)))
		h.Write([]byte{0})
	}
	return purpose + ":" + hex.EncodeToString(h.Sum(nil))
}
