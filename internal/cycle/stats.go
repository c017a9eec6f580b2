// Package cycle runs the full discovery pipeline end to end and keeps the
// per-run report.
package cycle

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jobhound/jobhound/internal/errs"
	"github.com/jobhound/jobhound/internal/router"
)

// Stats is the report for one discovery cycle. Partial cycles still produce
// a report; every counter reflects what actually happened before the cycle
// ended.
type Stats struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Fetched      int `json:"fetched"`
	SourceErrors int `json:"source_errors"`
	Duplicates   int `json:"duplicates"`
	AlreadySeen  int `json:"already_seen"`
	GateFailed   int `json:"gate_failed"`
	GatePassed   int `json:"gate_passed"`

	Routes map[string]int `json:"routes"`

	Applied       int `json:"applied"`
	OutreachSent  int `json:"outreach_sent"`
	SendFailures  int `json:"send_failures"`
	FollowUpsSent int `json:"follow_ups_sent"`
	WarmContacts  int `json:"warm_contacts"`

	ErrorsByKind map[string]int `json:"errors_by_kind,omitempty"`
}

func newStats(now time.Time) *Stats {
	return &Stats{
		RunID:        uuid.NewString(),
		StartedAt:    now,
		Routes:       make(map[string]int),
		ErrorsByKind: make(map[string]int),
	}
}

func (s *Stats) countRoute(route router.Route) {
	s.Routes[string(route)]++
}

func (s *Stats) countError(err error) {
	s.ErrorsByKind[string(errs.KindOf(err))]++
}

// NewPostings is the number of postings that survived dedup and the seen
// filter and entered the gate.
func (s *Stats) NewPostings() int {
	return s.GatePassed + s.GateFailed
}

// Summary renders a one-line human report in log order.
func (s *Stats) Summary() string {
	return fmt.Sprintf(
		"fetched=%d new=%d gate_passed=%d applied=%d outreach=%d review=%d discard=%d follow_ups=%d errors=%d",
		s.Fetched,
		s.NewPostings(),
		s.GatePassed,
		s.Applied,
		s.OutreachSent,
		s.Routes[string(router.RouteReview)],
		s.Routes[string(router.RouteDiscard)],
		s.FollowUpsSent,
		s.errorCount(),
	)
}

func (s *Stats) errorCount() int {
	total := s.SourceErrors
	for _, n := range s.ErrorsByKind {
		total += n
	}
	return total
}

// Digest aggregates a day's worth of runs into a readable report.
func Digest(day time.Time, runs []*Stats) string {
	var agg Stats
	agg.Routes = make(map[string]int)
	agg.ErrorsByKind = make(map[string]int)

	for _, run := range runs {
		agg.Fetched += run.Fetched
		agg.SourceErrors += run.SourceErrors
		agg.GatePassed += run.GatePassed
		agg.GateFailed += run.GateFailed
		agg.Applied += run.Applied
		agg.OutreachSent += run.OutreachSent
		agg.SendFailures += run.SendFailures
		agg.FollowUpsSent += run.FollowUpsSent
		agg.WarmContacts += run.WarmContacts
		for route, n := range run.Routes {
			agg.Routes[route] += n
		}
		for kind, n := range run.ErrorsByKind {
			agg.ErrorsByKind[kind] += n
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "daily digest %s: %d cycles\n", day.Format("2006-01-02"), len(runs))
	fmt.Fprintf(&b, "fetched %d postings, %d passed the gate, %d failed\n",
		agg.Fetched, agg.GatePassed, agg.GateFailed)
	fmt.Fprintf(&b, "applied %d, outreach %d, follow-ups %d, warm contacts %d\n",
		agg.Applied, agg.OutreachSent, agg.FollowUpsSent, agg.WarmContacts)

	if len(agg.ErrorsByKind) > 0 || agg.SourceErrors > 0 {
		kinds := make([]string, 0, len(agg.ErrorsByKind))
		for kind := range agg.ErrorsByKind {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)

		parts := make([]string, 0, len(kinds)+1)
		if agg.SourceErrors > 0 {
			parts = append(parts, fmt.Sprintf("source_fetch=%d", agg.SourceErrors))
		}
		for _, kind := range kinds {
			parts = append(parts, fmt.Sprintf("%s=%d", strings.ToLower(kind), agg.ErrorsByKind[kind]))
		}
		fmt.Fprintf(&b, "errors: %s\n", strings.Join(parts, " "))
	}

	return b.String()
}
