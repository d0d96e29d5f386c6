// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package models

import (
	"strings"
	"testing"
	"time"
)

func TestSignalText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		signal Signal
		want   string
	}{
		{"title only", Signal{Title: "Oil prices surge"}, "Oil prices surge"},
		{"title and description", Signal{Title: "Oil prices surge", Description: "Brent up 5%"}, "Oil prices surge Brent up 5%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.signal.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSignalAge(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-36 * time.Hour)
	future := now.Add(time.Hour)

	if got := (&Signal{}).Age(now); got != 0 {
		t.Errorf("Age(unknown) = %v, want 0", got)
	}
	if got := (&Signal{PublishedAt: &past}).Age(now); got != 36*time.Hour {
		t.Errorf("Age(past) = %v, want 36h", got)
	}
	if got := (&Signal{PublishedAt: &future}).Age(now); got != 0 {
		t.Errorf("Age(future) = %v, want 0", got)
	}
}

func TestFeedbackActionPolarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		action   FeedbackAction
		positive bool
		negative bool
	}{
		{ActionLiked, true, false},
		{ActionSaved, true, false},
		{ActionProduced, true, false},
		{ActionRejected, false, true},
		{FeedbackAction("shrugged"), false, false},
	}

	for _, tt := range tests {
		if got := tt.action.IsPositive(); got != tt.positive {
			t.Errorf("%s.IsPositive() = %v, want %v", tt.action, got, tt.positive)
		}
		if got := tt.action.IsNegative(); got != tt.negative {
			t.Errorf("%s.IsNegative() = %v, want %v", tt.action, got, tt.negative)
		}
	}
	if FeedbackAction("shrugged").Valid() {
		t.Error("unknown action should not be valid")
	}
}

func TestClampPatternWeight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want float64
	}{
		{0.25, 0.5},
		{0.5, 0.5},
		{1.3, 1.3},
		{2.0, 2.0},
		{7, 2.0},
	}
	for _, tt := range tests {
		if got := ClampPatternWeight(tt.in); got != tt.want {
			t.Errorf("ClampPatternWeight(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEvidenceBundleSummary(t *testing.T) {
	t.Parallel()

	b := EvidenceBundle{
		SignalID: "s1",
		Items: []Evidence{
			{Type: EvidenceSearchInterest, Text: "search volume 1200"},
			{Type: EvidenceCompetitorVideo, Text: "competitor covered it", NeedsAIValidation: true},
		},
	}

	if !b.HasType(EvidenceCompetitorVideo) {
		t.Error("HasType(competitor_video) = false, want true")
	}
	if b.HasType(EvidenceCurrentEvent) {
		t.Error("HasType(current_event) = true, want false")
	}
	if got := len(b.ByType(EvidenceSearchInterest)); got != 1 {
		t.Errorf("len(ByType(search_interest)) = %d, want 1", got)
	}

	summary := b.Summary()
	if len(summary) != 2 {
		t.Fatalf("len(Summary()) = %d, want 2", len(summary))
	}
	if !strings.HasSuffix(summary[1], "(unverified)") {
		t.Errorf("Summary()[1] = %q, want unverified marker", summary[1])
	}
}

func TestStatusIsTerminal(t *testing.T) {
	t.Parallel()

	for _, s := range []SignalStatus{StatusNew, StatusScored, StatusClustered, StatusRecommended} {
		if s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = true, want false", s)
		}
	}
	for _, s := range []SignalStatus{StatusLiked, StatusRejected, StatusSaved, StatusProduced} {
		if !s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = false, want true", s)
		}
	}
}

func TestWeightSnapshotWeight(t *testing.T) {
	t.Parallel()

	var nilSnap *WeightSnapshot
	if got := nilSnap.Weight("any"); got != DefaultPatternWeight {
		t.Errorf("nil snapshot Weight() = %v", got)
	}

	s := &WeightSnapshot{Weights: map[string]PatternWeight{
		"energy": {TopicID: "energy", Weight: 1.5},
		"bad":    {TopicID: "bad", Weight: 9},
	}}
	tests := map[string]float64{"energy": 1.5, "bad": MaxPatternWeight, "missing": DefaultPatternWeight}
	for topic, want := range tests {
		if got := s.Weight(topic); got != want {
			t.Errorf("Weight(%q) = %v, want %v", topic, got, want)
		}
	}
}

func TestISOWeek(t *testing.T) {
	t.Parallel()

	tests := []struct {
		date time.Time
		want string
	}{
		{time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), "2026-W10"},
		{time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), "2026-W53"},
		{time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC), "2026-W01"},
	}
	for _, tt := range tests {
		if got := ISOWeek(tt.date); got != tt.want {
			t.Errorf("ISOWeek(%s) = %s, want %s", tt.date.Format("2006-01-02"), got, tt.want)
		}
	}
}
