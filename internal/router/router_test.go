package router

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/job"
	"github.com/jobhound/jobhound/internal/quota"
	"github.com/jobhound/jobhound/internal/scoring"
)

func trackerWith(limits quota.Limits) *quota.Tracker {
	return quota.NewTracker(limits, nil, zap.NewNop()).
		WithClock(func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) })
}

func scored(id, company string, score float64) *scoring.Scored {
	return &scoring.Scored{
		Posting: &job.Posting{ID: id, Title: id, Company: company},
		Score:   score,
	}
}

func routeOf(decisions []*Decision, id string) *Decision {
	for _, d := range decisions {
		if d.Scored.Posting.ID == id {
			return d
		}
	}
	return nil
}

func TestEveryPostingGetsExactlyOneRoute(t *testing.T) {
	r := New(DefaultThresholds(), trackerWith(quota.Limits{DailyApplications: 5, DailyOutreach: 5}), zap.NewNop())

	items := []*scoring.Scored{
		scored("high", "a", 75),
		scored("mid", "b", 59),
		scored("low", "c", 56),
		scored("junk", "d", 20),
	}

	decisions := r.Plan(context.Background(), items)
	require.Len(t, decisions, 4)

	valid := map[Route]bool{RouteAutoApply: true, RouteOutreach: true, RouteReview: true, RouteDiscard: true}
	for _, d := range decisions {
		assert.True(t, valid[d.Route], "invalid route %q", d.Route)
	}

	assert.Equal(t, RouteAutoApply, routeOf(decisions, "high").Route)
	assert.Equal(t, RouteOutreach, routeOf(decisions, "mid").Route)
	assert.Equal(t, RouteReview, routeOf(decisions, "low").Route)
	assert.Equal(t, RouteDiscard, routeOf(decisions, "junk").Route)
}

func TestExhaustedApplicationQuotaDemotesToReview(t *testing.T) {
	ctx := context.Background()
	tracker := trackerWith(quota.Limits{DailyApplications: 1, DailyOutreach: 0})
	r := New(DefaultThresholds(), tracker, zap.NewNop())

	// Burn the daily application budget.
	require.True(t, tracker.SpendApplication(ctx))

	decisions := r.Plan(ctx, []*scoring.Scored{scored("seventy", "acme", 70)})

	d := routeOf(decisions, "seventy")
	require.NotNil(t, d)
	assert.Equal(t, RouteReview, d.Route, "score-70 posting must be demoted, not dropped")
	assert.True(t, d.Demoted)
}

func TestHigherScoresClaimQuotaFirst(t *testing.T) {
	tracker := trackerWith(quota.Limits{DailyApplications: 1})
	r := New(DefaultThresholds(), tracker, zap.NewNop())

	// Deliberately out of order: planning must process by score.
	items := []*scoring.Scored{
		scored("weaker", "a", 65),
		scored("stronger", "b", 90),
	}

	decisions := r.Plan(context.Background(), items)

	assert.Equal(t, RouteAutoApply, routeOf(decisions, "stronger").Route)
	assert.Equal(t, RouteReview, routeOf(decisions, "weaker").Route)
	assert.True(t, routeOf(decisions, "weaker").Demoted)
}

func TestHighScoreSpendsBothBudgets(t *testing.T) {
	tracker := trackerWith(quota.Limits{DailyApplications: 5, DailyOutreach: 1})
	r := New(DefaultThresholds(), tracker, zap.NewNop())

	decisions := r.Plan(context.Background(), []*scoring.Scored{
		scored("star", "acme", 95),
		scored("good", "globex", 59),
	})

	star := routeOf(decisions, "star")
	assert.Equal(t, RouteAutoApply, star.Route)
	assert.True(t, star.AlsoOutreach, "a high score triggers application and outreach")

	// The outreach budget is gone, so the pure-outreach posting demotes.
	good := routeOf(decisions, "good")
	assert.Equal(t, RouteReview, good.Route)
	assert.True(t, good.Demoted)
}

func TestDiversifyKeepsHighestPerCompany(t *testing.T) {
	items := []*scoring.Scored{
		scored("a1", "Acme", 60),
		scored("a2", "acme ", 80),
		scored("b1", "Globex", 70),
	}

	kept, dropped := Diversify(items)
	require.Len(t, kept, 2)
	assert.Equal(t, 1, dropped)

	assert.Equal(t, "a2", kept[0].Posting.ID, "highest-scored posting per company wins")
	assert.Equal(t, "b1", kept[1].Posting.ID)
}
