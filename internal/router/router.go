// Package router assigns each scored posting to exactly one terminal action,
// demoting to review when the relevant quota is exhausted.
package router

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/quota"
	"github.com/jobhound/jobhound/internal/scoring"
)

// Route is the terminal action for a posting.
type Route string

const (
	RouteAutoApply Route = "auto_apply"
	RouteOutreach  Route = "outreach"
	RouteReview    Route = "review"
	RouteDiscard   Route = "discard"
)

// Thresholds are the score cutoffs between routes. The default values are
// historically tuned constants; treat them as configuration.
type Thresholds struct {
	Apply    float64 `mapstructure:"apply"`
	Outreach float64 `mapstructure:"outreach"`
	Review   float64 `mapstructure:"review"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Apply: 60, Outreach: 58, Review: 55}
}

// Decision is the routing outcome for one posting.
type Decision struct {
	Scored *scoring.Scored
	Route  Route
	// AlsoOutreach marks an AUTO_APPLY posting that additionally gets a
	// founder-outreach attempt: the two actions are not mutually exclusive
	// above both thresholds.
	AlsoOutreach bool
	// Demoted marks a posting pushed down to review because a quota ran
	// out, not because of its score.
	Demoted bool
	Note    string
}

// Router plans routes in score-descending order so higher-scored postings are
// never starved of quota by lower-scored ones.
type Router struct {
	thresholds Thresholds
	quota      *quota.Tracker
	logger     *zap.Logger
}

func New(thresholds Thresholds, tracker *quota.Tracker, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{thresholds: thresholds, quota: tracker, logger: log}
}

// Plan assigns exactly one route per posting, spending quota as it goes.
// Items are processed highest score first; ties keep discovery order.
func (r *Router) Plan(ctx context.Context, items []*scoring.Scored) []*Decision {
	scoring.SortByScore(items)

	decisions := make([]*Decision, 0, len(items))
	for _, item := range items {
		decisions = append(decisions, r.route(ctx, item))
	}
	return decisions
}

func (r *Router) route(ctx context.Context, item *scoring.Scored) *Decision {
	d := &Decision{Scored: item}
	score := item.Score

	switch {
	case score >= r.thresholds.Apply:
		if r.quota.SpendApplication(ctx) {
			d.Route = RouteAutoApply
			// A sufficiently high score also warrants founder outreach
			// when that budget still allows it.
			if r.quota.SpendOutreach(ctx) {
				d.AlsoOutreach = true
			}
		} else {
			d.Route = RouteReview
			d.Demoted = true
			d.Note = "application quota exhausted"
		}
	case score >= r.thresholds.Outreach:
		if r.quota.SpendOutreach(ctx) {
			d.Route = RouteOutreach
		} else {
			d.Route = RouteReview
			d.Demoted = true
			d.Note = "outreach quota exhausted"
		}
	case score >= r.thresholds.Review:
		d.Route = RouteReview
	default:
		d.Route = RouteDiscard
	}

	r.logger.Info("routing decision",
		zap.String("posting_id", item.Posting.ID),
		zap.Float64("score", score),
		zap.String("route", string(d.Route)),
		zap.Bool("also_outreach", d.AlsoOutreach),
		zap.Bool("demoted", d.Demoted),
	)

	return d
}

// Diversify keeps at most one posting per company, the highest-scored one.
// Input order decides ties; returns the dropped count.
func Diversify(items []*scoring.Scored) ([]*scoring.Scored, int) {
	best := make(map[string]*scoring.Scored, len(items))
	order := make([]string, 0, len(items))

	for _, item := range items {
		key := strings.ToLower(strings.TrimSpace(item.Posting.Company))
		current, ok := best[key]
		if !ok {
			best[key] = item
			order = append(order, key)
			continue
		}
		if item.Score > current.Score {
			best[key] = item
		}
	}

	kept := make([]*scoring.Scored, 0, len(order))
	for _, key := range order {
		kept = append(kept, best[key])
	}

	return kept, len(items) - len(kept)
}
