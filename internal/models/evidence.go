// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

package models

import (
	"fmt"
	"strings"
	"time"
)

// EvidenceType identifies the kind of fact supporting a signal.
type EvidenceType string

// Evidence types, one per provider capability.
const (
	EvidenceSearchInterest  EvidenceType = "search_interest"
	EvidenceCompetitorVideo EvidenceType = "competitor_video"
	EvidenceAudienceComment EvidenceType = "audience_comment"
	EvidenceCurrentEvent    EvidenceType = "current_event"
)

// Evidence is one typed, weighted entry of an EvidenceBundle.
//
// Weight is the raw provider measurement: search volume for search
// interest, mention count for comments, 1 per match for competitor videos
// and current events. The scorer turns weights into capped contributions.
type Evidence struct {
	Type   EvidenceType `json:"type"`
	Source string       `json:"source"`
	Weight float64      `json:"weight"`
	Count  int          `json:"count,omitempty"`
	Text   string       `json:"text"`

	// Confidence is set when the provider itself is uncertain, in [0,1].
	Confidence float64 `json:"confidence,omitempty"`
	// NeedsAIValidation marks entries whose secondary confirmation could not
	// be obtained. They are kept for display but never counted as confirmed.
	NeedsAIValidation bool `json:"needs_ai_validation,omitempty"`

	// Competitor video details.
	VideoID     string     `json:"video_id,omitempty"`
	Similarity  float64    `json:"similarity,omitempty"`
	Band        string     `json:"band,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// ProviderFailure records a provider that failed open for a signal.
type ProviderFailure struct {
	Provider string `json:"provider"`
	Error    string `json:"error"`
}

// EvidenceBundle is the per-signal collection of evidence for one run.
type EvidenceBundle struct {
	SignalID string            `json:"signal_id"`
	Items    []Evidence        `json:"items"`
	Failures []ProviderFailure `json:"failures,omitempty"`
}

// ByType returns the entries of type t in collection order.
func (b *EvidenceBundle) ByType(t EvidenceType) []Evidence {
	var out []Evidence
	for i := range b.Items {
		if b.Items[i].Type == t {
			out = append(out, b.Items[i])
		}
	}
	return out
}

// HasType reports whether the bundle holds at least one entry of type t.
func (b *EvidenceBundle) HasType(t EvidenceType) bool {
	for i := range b.Items {
		if b.Items[i].Type == t {
			return true
		}
	}
	return false
}

// Summary returns the entries' justification texts, one per entry.
func (b *EvidenceBundle) Summary() []string {
	out := make([]string, 0, len(b.Items))
	for i := range b.Items {
		e := &b.Items[i]
		text := e.Text
		if e.NeedsAIValidation {
			text += " (unverified)"
		}
		out = append(out, fmt.Sprintf("[%s] %s", e.Type, text))
	}
	return out
}

// String implements fmt.Stringer for log output.
func (b *EvidenceBundle) String() string {
	return strings.Join(b.Summary(), "; ")
}
