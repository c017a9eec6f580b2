// Package scoring converts a posting and the candidate profile into a bounded
// numeric score with human-readable justifications. Phase 1 is a transparent
// keyword heuristic; phase 2 blends in an external deep-analysis estimate;
// the labeled bias pass always runs last.
package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/ai"
	"github.com/jobhound/jobhound/internal/errs"
	"github.com/jobhound/jobhound/internal/job"
	"github.com/jobhound/jobhound/internal/profile"
)

// Scored pairs a posting with its final score and the ordered justification
// list. Scores are recomputed every cycle, never cached.
type Scored struct {
	Posting *job.Posting
	Score   float64
	Reasons []string
	// Message is the provider-suggested application message when the deep
	// analysis pass ran.
	Message string
}

// Engine scores postings. Deterministic given the same posting, profile and
// configuration; the analyzer is the only non-deterministic input and its
// failure never fails the posting.
type Engine struct {
	cfg      Config
	analyzer ai.Analyzer
	logger   *zap.Logger
}

func NewEngine(cfg Config, analyzer ai.Analyzer, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{cfg: cfg, analyzer: analyzer, logger: log}
}

// Score runs both phases and the bias pass for a single posting.
func (e *Engine) Score(ctx context.Context, p *job.Posting, prof *profile.Profile) (*Scored, error) {
	if p == nil {
		return nil, errs.E(errs.KindScoring, "score", fmt.Errorf("posting is nil"))
	}
	if prof == nil {
		return nil, errs.E(errs.KindScoring, "score", fmt.Errorf("profile is nil"))
	}

	scored := &Scored{Posting: p}

	heuristic := e.heuristicScore(p, prof, scored)
	final := heuristic

	if e.analyzer != nil && heuristic >= e.cfg.DeepAnalysisMin {
		final = e.blendDeepAnalysis(ctx, p, prof, heuristic, scored)
	}

	final = e.applyBias(p, final, scored)

	scored.Score = clamp(final)
	return scored, nil
}

// heuristicScore is phase 1: base value plus up to six tiered keyword
// dimensions plus a capped skill-overlap bonus.
func (e *Engine) heuristicScore(p *job.Posting, prof *profile.Profile, scored *Scored) float64 {
	text := p.Text()
	score := e.cfg.Base

	for _, dim := range e.cfg.Dimensions {
		points, tier := e.matchDimension(dim, text)
		if points <= 0 {
			continue
		}
		score += points
		scored.Reasons = append(scored.Reasons,
			fmt.Sprintf("%s: %s match (+%.1f)", dim.Name, tier, points))
	}

	if e.cfg.SkillMatchPoints > 0 {
		matches := 0
		for _, skill := range prof.Skills {
			if strings.Contains(text, strings.ToLower(skill)) {
				matches++
			}
		}
		if matches > 0 {
			points := math.Min(e.cfg.SkillMatchCap, float64(matches)*e.cfg.SkillMatchPoints)
			score += points
			scored.Reasons = append(scored.Reasons,
				fmt.Sprintf("skills: %d of %d matched (+%.1f)", matches, len(prof.Skills), points))
		}
	}

	score = clamp(score)

	e.logger.Debug("heuristic score",
		zap.String("posting_id", p.ID),
		zap.Float64("score", score),
	)

	return score
}

func (e *Engine) matchDimension(dim Dimension, text string) (float64, string) {
	if containsAny(text, dim.High) {
		return dim.Weight, "high"
	}
	if containsAny(text, dim.Medium) {
		return dim.Weight * e.cfg.MediumTierFactor, "medium"
	}
	if containsAny(text, dim.Low) {
		return dim.Weight * e.cfg.LowTierFactor, "low"
	}
	return 0, ""
}

// blendDeepAnalysis is phase 2. A strong heuristic score keeps the majority
// weight so provider noise cannot discard a clear keyword match. Any analyzer
// failure leaves the heuristic score standing.
func (e *Engine) blendDeepAnalysis(ctx context.Context, p *job.Posting, prof *profile.Profile, heuristic float64, scored *Scored) float64 {
	estimate, err := e.analyzer.Analyze(ctx, p, prof)
	if err != nil {
		e.logger.Warn("deep analysis failed, keeping heuristic score",
			zap.String("posting_id", p.ID),
			zap.Error(err),
		)
		scored.Reasons = append(scored.Reasons, "deep analysis unavailable")
		return heuristic
	}

	weight := 0.5
	if heuristic >= e.cfg.StrongHeuristic {
		weight = 0.7
	}

	blended := heuristic*weight + estimate.Score*(1-weight)

	scored.Reasons = append(scored.Reasons,
		fmt.Sprintf("deep analysis: %.0f blended at %.0f%% heuristic", estimate.Score, weight*100))
	for _, reason := range estimate.Reasons {
		scored.Reasons = append(scored.Reasons, "analysis: "+reason)
	}
	scored.Message = estimate.Message

	e.logger.Debug("blended score",
		zap.String("posting_id", p.ID),
		zap.Float64("heuristic", heuristic),
		zap.Float64("estimate", estimate.Score),
		zap.Float64("blended", blended),
	)

	return blended
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func clamp(score float64) float64 {
	return math.Min(100, math.Max(0, score))
}

// SortByScore orders postings by final score descending; equal scores keep
// discovery order.
func SortByScore(items []*Scored) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}
