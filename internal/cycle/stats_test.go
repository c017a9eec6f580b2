package cycle

import (
	"strings"
	"testing"
	"time"

	"github.com/jobhound/jobhound/internal/router"
)

func TestStatsSummary(t *testing.T) {
	stats := newStats(time.Now())
	stats.Fetched = 10
	stats.GatePassed = 3
	stats.GateFailed = 2
	stats.Applied = 1
	stats.countRoute(router.RouteAutoApply)
	stats.countRoute(router.RouteReview)
	stats.countRoute(router.RouteDiscard)

	summary := stats.Summary()
	for _, fragment := range []string{"fetched=10", "new=5", "applied=1", "review=1", "discard=1"} {
		if !strings.Contains(summary, fragment) {
			t.Errorf("summary missing %q: %s", fragment, summary)
		}
	}
}

func TestDigestAggregatesRuns(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	first := newStats(day.Add(9 * time.Hour))
	first.Fetched = 20
	first.GatePassed = 4
	first.Applied = 2
	first.ErrorsByKind["DELIVERY"] = 1

	second := newStats(day.Add(13 * time.Hour))
	second.Fetched = 15
	second.GatePassed = 1
	second.OutreachSent = 1
	second.SourceErrors = 1

	digest := Digest(day, []*Stats{first, second})

	for _, fragment := range []string{
		"2026-08-30",
		"2 cycles",
		"fetched 35 postings",
		"applied 2",
		"outreach 1",
		"source_fetch=1",
		"delivery=1",
	} {
		if !strings.Contains(digest, fragment) {
			t.Errorf("digest missing %q:\n%s", fragment, digest)
		}
	}
}
