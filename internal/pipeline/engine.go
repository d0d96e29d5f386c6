// Trendscout - Signal Scoring and Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscout

// Package pipeline runs the full recommendation flow for one batch of
// signals:
//
//	topic match -> evidence -> score -> cluster -> persona balance
//
// Signals are matched, collected and scored independently with bounded
// parallelism. Clustering and balancing are batch steps over the scored
// set. A run never writes persisted state; it reads the current weight
// snapshot once at the start and the week's served counts once before
// balancing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/trendscout/internal/ai"
	"github.com/tomtom215/trendscout/internal/cluster"
	"github.com/tomtom215/trendscout/internal/config"
	"github.com/tomtom215/trendscout/internal/evidence"
	"github.com/tomtom215/trendscout/internal/logging"
	"github.com/tomtom215/trendscout/internal/metrics"
	"github.com/tomtom215/trendscout/internal/models"
	"github.com/tomtom215/trendscout/internal/persona"
	"github.com/tomtom215/trendscout/internal/scoring"
	"github.com/tomtom215/trendscout/internal/topic"
	"github.com/tomtom215/trendscout/internal/validation"
)

var (
	// ErrNoSignals is returned for a request without signals.
	ErrNoSignals = errors.New("run request has no signals")
	// ErrTooManySignals is returned when a batch exceeds run.max_signals.
	ErrTooManySignals = errors.New("run request exceeds the signal limit")
)

// WeightSource supplies the last known good weight snapshot.
type WeightSource interface {
	Current() *models.WeightSnapshot
}

// ServedSource supplies per-persona served counts for an ISO week.
type ServedSource interface {
	ServedCounts(ctx context.Context, week string) (map[string]int, error)
}

// Dependencies are the engine's collaborators. Every field is optional.
type Dependencies struct {
	// Similarity backs competitor banding and borderline cluster pairs.
	Similarity *topic.Similarity
	// Judge confirms competitor matches, borderline pairs and post_today.
	Judge   *ai.Judge
	Weights WeightSource
	Served  ServedSource
	// Providers are added to every run after the request-data providers.
	Providers []evidence.Provider
}

// Engine runs recommendation batches. It is safe for concurrent use.
type Engine struct {
	cfg      *config.Config
	deps     Dependencies
	matcher  *topic.Matcher
	scorer   *scoring.Scorer
	balancer *persona.Balancer
	now      func() time.Time
	logger   zerolog.Logger
}

// NewEngine creates an engine from the application config.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *config.Config, deps Dependencies, logger zerolog.Logger) *Engine {
	if deps.Similarity == nil {
		deps.Similarity = topic.NewSimilarity(nil, logger)
	}

	var confirmer scoring.Confirmer
	if deps.Judge != nil {
		confirmer = deps.Judge
	}

	return &Engine{
		cfg:      cfg,
		deps:     deps,
		matcher:  topic.NewMatcher(cfg.Taxonomy),
		scorer:   scoring.NewScorer(cfg.Scoring, confirmer, logger),
		balancer: persona.NewBalancer(cfg.Persona, logger),
		now:      time.Now,
		logger:   logger.With().Str("component", "pipeline").Logger(),
	}
}

// Run scores, clusters and balances one batch. Signals that cannot be
// scored are skipped and reported; provider and AI failures degrade the
// affected signals but never fail the run. Run returns an error only for
// an invalid request or a cancelled context.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	start := time.Now()
	if len(req.Signals) == 0 {
		return nil, ErrNoSignals
	}
	if e.cfg.Run.MaxSignals > 0 && len(req.Signals) > e.cfg.Run.MaxSignals {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManySignals, len(req.Signals), e.cfg.Run.MaxSignals)
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		return nil, verr
	}

	now := e.now().UTC()
	if req.Now != nil && !req.Now.IsZero() {
		now = req.Now.UTC()
	}

	result := &RunResult{
		RunID:     uuid.NewString(),
		StartedAt: now,
		Report:    Report{Received: len(req.Signals), Tiers: make(map[string]int)},
	}
	ctx = logging.ContextWithRunID(ctx, result.RunID)
	if e.cfg.Run.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Run.Timeout)
		defer cancel()
	}
	runLog := logging.NewRunLogger(ctx, e.logger)

	signals := e.admit(req.Signals, &result.Report, runLog)

	matcher := e.matcher
	taxonomy := e.cfg.Taxonomy
	if len(req.Taxonomy) > 0 {
		matcher = topic.NewMatcher(req.Taxonomy)
		taxonomy = req.Taxonomy
	}
	personas := e.cfg.Personas
	if len(req.Personas) > 0 {
		personas = req.Personas
	}

	var weights *models.WeightSnapshot
	if e.deps.Weights != nil {
		weights = e.deps.Weights.Current()
	}
	if weights != nil {
		result.WeightsVersion = weights.Version
	}

	scored, err := e.score(ctx, signals, req.Evidence, matcher, weights, now)
	if err != nil {
		metrics.RecordRun("cancelled", time.Since(start), 0, len(result.Report.Skipped))
		return nil, fmt.Errorf("run %s: %w", result.RunID, err)
	}

	clusterer := cluster.NewClusterer(e.cfg.Cluster, taxonomy, e.deps.Similarity, e.pairJudge(), e.logger)
	items := make([]cluster.Item, len(scored))
	for i := range scored {
		items[i] = cluster.Item{Signal: scored[i].Signal, Score: scored[i].Result.Score, Topic: scored[i].Topic}
	}
	clustering := clusterer.Cluster(ctx, items)
	if err := ctx.Err(); err != nil {
		metrics.RecordRun("cancelled", time.Since(start), 0, len(result.Report.Skipped))
		return nil, fmt.Errorf("run %s: %w", result.RunID, err)
	}
	result.Clustering = clustering
	result.Clusters = clustering.Clusters()

	served := req.Served
	if served == nil {
		served = e.servedCounts(ctx, now)
	}
	balanced := e.balancer.Balance(candidates(clustering), personas, served)

	e.assemble(result, scored, clustering, balanced)
	result.CompletedAt = now.Add(time.Since(start))

	elapsed := time.Since(start)
	metrics.RecordRun("success", elapsed, result.Report.Scored, len(result.Report.Skipped))
	runLog.Complete(result.Report.Summary(), elapsed)
	return result, nil
}

// admit filters the batch down to scorable signals, first occurrence of
// each id wins.
func (e *Engine) admit(in []models.Signal, report *Report, runLog *logging.RunLogger) []models.Signal {
	seen := make(map[string]bool, len(in))
	out := make([]models.Signal, 0, len(in))

	skip := func(id, reason, detail string) {
		report.Skipped = append(report.Skipped, Skipped{SignalID: id, Reason: reason, Detail: detail})
		metrics.RecordSkip(reason)
		runLog.SignalSkipped(id, reason)
	}

	for i := range in {
		s := in[i]
		if strings.TrimSpace(s.Title) == "" {
			skip(s.ID, SkipMissingTitle, "")
			continue
		}
		if verr := validation.ValidateStruct(&s); verr != nil {
			skip(s.ID, SkipInvalid, verr.Error())
			continue
		}
		switch {
		case seen[s.ID]:
			skip(s.ID, SkipDuplicateID, "")
		case s.Status.IsTerminal():
			skip(s.ID, SkipTerminalStatus, string(s.Status))
		default:
			seen[s.ID] = true
			out = append(out, s)
		}
	}
	return out
}

// score matches, collects and scores every signal with bounded
// parallelism. Results keep input order.
func (e *Engine) score(
	ctx context.Context,
	signals []models.Signal,
	data evidence.Data,
	matcher *topic.Matcher,
	weights *models.WeightSnapshot,
	now time.Time,
) ([]ScoredSignal, error) {
	collector := e.collector(data, now)
	out := make([]ScoredSignal, len(signals))

	g, gctx := errgroup.WithContext(ctx)
	limit := e.cfg.Run.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for i := range signals {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sig := signals[i]
			match := matcher.Match(sig.Title, sig.Description)
			bundle := collector.Collect(gctx, sig, match)
			res := e.scorer.Score(gctx, scoring.Input{
				Signal:        sig,
				Evidence:      bundle,
				Topic:         match,
				PatternWeight: weights.Weight(match.TopicID),
				Now:           now,
			})
			sig.Status = models.StatusScored
			out[i] = ScoredSignal{Signal: sig, Topic: match, Evidence: bundle, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// collector builds the run's evidence providers from the request data.
func (e *Engine) collector(data evidence.Data, now time.Time) *evidence.Collector {
	var judge evidence.RelevanceJudge
	if e.deps.Judge != nil {
		judge = e.deps.Judge
	}
	competitors := evidence.NewCompetitorMatcher(e.deps.Similarity, judge, e.cfg.Evidence, e.logger)

	providers := []evidence.Provider{
		evidence.NewSearchIndex(data.SearchTrends),
		evidence.NewCompetitorIndex(data.CompetitorVideos, competitors, e.cfg.Evidence.CompetitorLookback),
		evidence.NewCommentIndex(data.Comments),
		evidence.NewEventIndex(data.Events, e.cfg.Evidence.EventWindow),
	}
	providers = append(providers, e.deps.Providers...)

	c := evidence.NewCollector(e.cfg.Evidence.ProviderTimeout, e.logger, providers...)
	c.SetNow(func() time.Time { return now })
	return c
}

func (e *Engine) pairJudge() cluster.PairJudge {
	if e.deps.Judge == nil {
		return nil
	}
	return e.deps.Judge
}

// servedCounts reads this week's served counts. A store failure is
// logged and treated as nothing served.
func (e *Engine) servedCounts(ctx context.Context, now time.Time) map[string]int {
	if e.deps.Served == nil {
		return nil
	}
	week := models.ISOWeek(now)
	counts, err := e.deps.Served.ServedCounts(ctx, week)
	if err != nil {
		logging.NewRunLogger(ctx, e.logger).FailOpen("served_counts", "", err)
		return nil
	}
	return counts
}

func candidates(clustering *cluster.Clustering) []persona.Candidate {
	reps := clustering.Representatives()
	out := make([]persona.Candidate, len(reps))
	for i, it := range reps {
		out[i] = persona.Candidate{
			SignalID: it.Signal.ID,
			Text:     it.Signal.Text(),
			TopicID:  it.Topic.TopicID,
			Score:    it.Score,
		}
	}
	return out
}

// assemble fills the result from the scored set, the clustering and the
// balanced selection.
func (e *Engine) assemble(result *RunResult, scored []ScoredSignal, clustering *cluster.Clustering, balanced persona.Result) {
	index := make(map[string]int, len(scored))
	for i := range scored {
		s := &scored[i]
		index[s.Signal.ID] = i
		if cl, ok := clustering.ClusterOf(s.Signal.ID); ok {
			s.ClusterID = cl.ID
			s.Signal.Status = models.StatusClustered
		}
		if len(s.Evidence.Failures) > 0 {
			result.Report.ProviderFailures += len(s.Evidence.Failures)
		}
		if s.Result.Confirmation.Required && !s.Result.Confirmation.Confirmed {
			result.Report.Demoted++
		}
		result.Report.Tiers[string(s.Result.Tier)]++
	}
	result.Report.Scored = len(scored)
	result.Report.Clusters = clustering.Len()
	result.Report.QuotaSkipped = balanced.QuotaSkipped

	result.Recommendations = make([]models.Recommendation, 0, len(balanced.Selected))
	for rank, a := range balanced.Selected {
		s := &scored[index[a.Candidate.SignalID]]
		s.Signal.Status = models.StatusRecommended
		cl, _ := clustering.ClusterOf(s.Signal.ID)

		result.Recommendations = append(result.Recommendations, models.Recommendation{
			Rank:            rank + 1,
			SignalID:        s.Signal.ID,
			Title:           s.Signal.Title,
			Score:           s.Result.Score,
			Tier:            s.Result.Tier,
			MatchedTopic:    s.Topic.TopicID,
			TopicConfidence: s.Topic.Confidence,
			MatchedKeywords: s.Topic.Keywords,
			EvidenceSummary: s.Evidence.Summary(),
			ClusterID:       cl.ID,
			ClusterSize:     cl.Size(),
			PersonaID:       a.PersonaID,
			TierReason:      s.Result.Confirmation.Reason,
		})
		metrics.RecordTier(string(s.Result.Tier))
	}

	result.Underserved = balanced.Underserved
	if result.Underserved == nil {
		result.Underserved = []models.UnderservedPersona{}
	}
	result.Signals = scored
}
