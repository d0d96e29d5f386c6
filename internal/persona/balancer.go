// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

// Package persona balances the final recommendation list across
// audience personas with weekly quotas.
package persona

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trendscout/internal/config"
	"github.com/tomtom215/trendscout/internal/metrics"
	"github.com/tomtom215/trendscout/internal/models"
	"github.com/tomtom215/trendscout/internal/textmatch"
)

// Candidate is one cluster representative competing for an output slot.
type Candidate struct {
	SignalID string
	// Text is matched against persona keywords.
	Text    string
	TopicID string
	Score   float64
}

// Assignment is a selected candidate. PersonaID is empty for a candidate
// that matched no persona.
type Assignment struct {
	Candidate Candidate
	PersonaID string
	Affinity  int
}

// Result is the balanced output.
type Result struct {
	// Selected is the ranked output, highest score first.
	Selected []Assignment
	// QuotaSkipped are candidates whose matching personas were all full.
	QuotaSkipped []string
	// Underserved lists personas left below quota after the pass.
	Underserved []models.UnderservedPersona
}

// Balancer runs the greedy quota walk.
type Balancer struct {
	cfg    config.PersonaConfig
	logger zerolog.Logger
}

// NewBalancer creates a balancer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBalancer(cfg config.PersonaConfig, logger zerolog.Logger) *Balancer {
	return &Balancer{cfg: cfg, logger: logger.With().Str("component", "persona_balancer").Logger()}
}

type personaState struct {
	persona  models.Persona
	keywords *textmatch.Automaton
	topics   map[string]bool
	served   int
	assigned int
}

func (p *personaState) remaining() int {
	return p.persona.WeeklyQuota - p.served - p.assigned
}

// Balance walks candidates by descending score and assigns each to the
// matching persona with the highest affinity that still has room. A
// candidate is never assigned to a persona it does not match, and no
// persona receives more than its quota minus what it was already served
// this week. Personas without a quota take no part. With no eligible
// personas the list is simply the top candidates.
func (b *Balancer) Balance(candidates []Candidate, personas []models.Persona, served map[string]int) Result {
	limit := b.cfg.OutputLimit
	if limit <= 0 {
		limit = len(candidates)
	}

	sorted := append([]Candidate(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	states := b.states(personas, served)
	var res Result

	for _, c := range sorted {
		if len(res.Selected) >= limit {
			break
		}
		if len(states) == 0 {
			res.Selected = append(res.Selected, Assignment{Candidate: c})
			continue
		}

		matches := b.rank(c, states)
		if len(matches) == 0 {
			if b.cfg.IncludeUnmatched {
				res.Selected = append(res.Selected, Assignment{Candidate: c})
			}
			continue
		}

		placed := false
		for _, m := range matches {
			if m.state.remaining() > 0 {
				m.state.assigned++
				res.Selected = append(res.Selected, Assignment{Candidate: c, PersonaID: m.state.persona.ID, Affinity: m.affinity})
				placed = true
				break
			}
		}
		if !placed {
			res.QuotaSkipped = append(res.QuotaSkipped, c.SignalID)
		}
	}

	for _, s := range states {
		shortfall := max(s.remaining(), 0)
		metrics.SetPersonaShortfall(s.persona.ID, shortfall)
		if shortfall == 0 {
			continue
		}
		res.Underserved = append(res.Underserved, models.UnderservedPersona{
			PersonaID:      s.persona.ID,
			WeeklyQuota:    s.persona.WeeklyQuota,
			AlreadyServed:  s.served,
			Assigned:       s.assigned,
			ShortfallCount: shortfall,
		})
	}
	if len(res.Underserved) > 0 {
		b.logger.Info().Int("personas", len(res.Underserved)).Msg("Personas left underserved, not padding with unmatched content")
	}
	return res
}

func (b *Balancer) states(personas []models.Persona, served map[string]int) []*personaState {
	var states []*personaState
	for _, p := range personas {
		if !p.HasQuota() {
			b.logger.Debug().Str("persona_id", p.ID).Msg("Persona has no quota, excluded from balancing")
			continue
		}
		s := &personaState{
			persona:  p,
			keywords: textmatch.New(),
			topics:   make(map[string]bool, len(p.MatchRules.TopicIDs)),
			served:   served[p.ID],
		}
		for _, id := range p.MatchRules.TopicIDs {
			s.topics[id] = true
		}
		for _, kw := range p.MatchRules.Keywords {
			s.keywords.Add(kw, nil)
		}
		s.keywords.Build()
		states = append(states, s)
	}
	return states
}

type match struct {
	state    *personaState
	affinity int
}

// rank returns the personas c matches, by descending affinity and then
// declaration order.
func (b *Balancer) rank(c Candidate, states []*personaState) []match {
	var out []match
	for _, s := range states {
		if a := b.affinity(c, s); a > 0 {
			out = append(out, match{state: s, affinity: a})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].affinity > out[j].affinity })
	return out
}

// affinity scores how well c fits a persona's rules: TopicAffinity for a
// topic match plus KeywordAffinity per matched keyword. Zero means no
// match.
func (b *Balancer) affinity(c Candidate, s *personaState) int {
	score := 0
	if c.TopicID != "" && s.topics[c.TopicID] {
		score += b.cfg.TopicAffinity
	}
	score += b.cfg.KeywordAffinity * len(s.keywords.Matched(c.Text))
	return score
}
