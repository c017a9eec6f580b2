package cycle

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/ai"
	"github.com/jobhound/jobhound/internal/contacts"
	"github.com/jobhound/jobhound/internal/errs"
	"github.com/jobhound/jobhound/internal/followup"
	"github.com/jobhound/jobhound/internal/gate"
	"github.com/jobhound/jobhound/internal/job"
	"github.com/jobhound/jobhound/internal/metrics"
	"github.com/jobhound/jobhound/internal/outreach"
	"github.com/jobhound/jobhound/internal/profile"
	"github.com/jobhound/jobhound/internal/quota"
	"github.com/jobhound/jobhound/internal/router"
	"github.com/jobhound/jobhound/internal/scoring"
	"github.com/jobhound/jobhound/internal/source"
	"github.com/jobhound/jobhound/internal/store"
)

// Escalation points for consecutive cycles that surface nothing new. A quiet
// feed is normal for a day; a quiet week means a broken source or a gate
// tuned too tight.
const (
	emptyWarnAfter  = 3
	emptyAlertAfter = 6
)

// Deps carries everything the orchestrator wires together. Generator,
// Deliverer, Contacts and Notifier may be nil; the corresponding step is
// skipped.
type Deps struct {
	Sources      []source.Source
	Companies    map[string]source.CompanyInfo
	FetchTimeout time.Duration

	Profile *profile.Profile
	Gate    gate.Rules
	Engine  *scoring.Engine
	Router  *router.Router
	Quota   *quota.Tracker

	Seen      store.SeenStore
	Reviews   router.ReviewStore
	FollowUps *followup.Scheduler
	Contacts  *contacts.Rotator

	Generator ai.Generator
	Deliverer outreach.Deliverer
	Submitter outreach.Submitter
	Notifier  outreach.Notifier

	History *History
	Logger  *zap.Logger

	// Mailbox receives outreach drafts for manual forwarding. Founder
	// addresses are not discovered automatically.
	Mailbox string
}

// Orchestrator runs one full discovery cycle: fetch, dedup, gate, score,
// route, deliver, follow up.
type Orchestrator struct {
	deps        Deps
	logger      *zap.Logger
	now         func() time.Time
	emptyStreak int
}

func NewOrchestrator(deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{deps: deps, logger: logger, now: time.Now}
}

// WithClock is for tests.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// RunCycle executes the pipeline once. It never aborts on adapter or
// per-posting failures; the returned Stats reports everything that happened,
// including cycles where every source came back empty or broken.
func (o *Orchestrator) RunCycle(ctx context.Context) *Stats {
	stats := newStats(o.now())
	o.logger.Info("cycle started", zap.String("run_id", stats.RunID))

	defer func() {
		stats.FinishedAt = o.now()
		metrics.CyclesRun.Inc()
		metrics.CycleDuration.Observe(stats.FinishedAt.Sub(stats.StartedAt).Seconds())
		if o.deps.History != nil {
			if err := o.deps.History.Append(stats); err != nil {
				o.logger.Warn("persisting cycle report failed", zap.Error(err))
			}
		}
		o.logger.Info("cycle finished",
			zap.String("run_id", stats.RunID),
			zap.String("summary", stats.Summary()),
		)
	}()

	fresh := o.discover(ctx, stats)
	scored := o.score(ctx, fresh, stats)
	scored, dropped := router.Diversify(scored)
	if dropped > 0 {
		o.logger.Info("company diversity cap applied", zap.Int("dropped", dropped))
	}

	decisions := o.deps.Router.Plan(ctx, scored)
	for _, d := range decisions {
		o.execute(ctx, d, stats)
	}

	o.runFollowUps(ctx, stats)
	o.warmContact(ctx, stats)
	o.trackEmptyStreak(ctx, stats)

	return stats
}

// discover fetches, enriches, dedupes and gates, returning postings ready
// for scoring. Gate failures are marked seen so they are never re-evaluated.
// Even a total adapter blackout only empties the fetch; the rest of the
// cycle still runs and the empty-streak escalation does the alerting.
func (o *Orchestrator) discover(ctx context.Context, stats *Stats) []*job.Posting {
	postings, sourceErrors := source.FetchAll(ctx, o.deps.Sources, o.deps.FetchTimeout, o.logger)
	stats.Fetched = postings.Len()
	stats.SourceErrors = sourceErrors
	for _, p := range postings.Items {
		metrics.PostingsFetched.WithLabelValues(p.Source).Inc()
	}
	for i := 0; i < sourceErrors; i++ {
		metrics.CycleErrors.WithLabelValues(string(errs.KindSourceFetch)).Inc()
	}

	if len(o.deps.Sources) > 0 && sourceErrors == len(o.deps.Sources) {
		stats.countError(errs.E(errs.KindSourceFetch, "cycle.discover", fmt.Errorf("all %d sources failed", sourceErrors)))
		o.logger.Error("all sources failed, continuing with empty fetch",
			zap.Int("sources", sourceErrors),
		)
	}

	stats.Duplicates = len(postings.Dedupe())
	source.Enrich(postings.Items, o.deps.Companies)

	var fresh []*job.Posting
	for _, p := range postings.Items {
		seen, err := o.deps.Seen.Has(ctx, p.ID)
		if err != nil {
			stats.countError(errs.E(errs.KindState, "seen.has", err))
			metrics.CycleErrors.WithLabelValues(string(errs.KindState)).Inc()
			o.logger.Warn("seen lookup failed", zap.String("posting_id", p.ID), zap.Error(err))
			continue
		}
		if seen {
			stats.AlreadySeen++
			continue
		}

		result := o.deps.Gate.Evaluate(p)
		if !result.Passed {
			stats.GateFailed++
			o.markSeen(ctx, p.ID, stats)
			o.logger.Debug("gate failed",
				zap.String("posting_id", p.ID),
				zap.String("reason", result.Reason),
			)
			continue
		}

		stats.GatePassed++
		fresh = append(fresh, p)
	}

	return fresh
}

func (o *Orchestrator) score(ctx context.Context, postings []*job.Posting, stats *Stats) []*scoring.Scored {
	scored := make([]*scoring.Scored, 0, len(postings))
	for _, p := range postings {
		item, err := o.deps.Engine.Score(ctx, p, o.deps.Profile)
		if err != nil {
			stats.countError(err)
			metrics.CycleErrors.WithLabelValues(string(errs.KindOf(err))).Inc()
			o.logger.Warn("scoring failed", zap.String("posting_id", p.ID), zap.Error(err))
			continue
		}
		scored = append(scored, item)
	}
	return scored
}

// execute carries out one routing decision. Delivery failures refund the
// spent quota window and park the posting for review instead of losing it.
func (o *Orchestrator) execute(ctx context.Context, d *router.Decision, stats *Stats) {
	p := d.Scored.Posting
	stats.countRoute(d.Route)
	metrics.PostingsRouted.WithLabelValues(string(d.Route)).Inc()

	switch d.Route {
	case router.RouteAutoApply:
		o.apply(ctx, d, stats)
		if d.AlsoOutreach {
			o.sendOutreach(ctx, d, stats)
		}

	case router.RouteOutreach:
		if o.sendOutreach(ctx, d, stats) {
			o.markSeen(ctx, p.ID, stats)
		}

	case router.RouteReview:
		o.park(ctx, d, stats)
		o.markSeen(ctx, p.ID, stats)

	case router.RouteDiscard:
		o.markSeen(ctx, p.ID, stats)
	}
}

func (o *Orchestrator) apply(ctx context.Context, d *router.Decision, stats *Stats) {
	p := d.Scored.Posting

	materials := &outreach.Materials{
		Subject:    fmt.Sprintf("Application: %s at %s", p.Title, p.Company),
		Message:    d.Scored.Message,
		ResumeFile: o.deps.Profile.ResumeFile,
	}
	if o.deps.Generator != nil {
		letter, err := o.deps.Generator.Generate(ctx, ai.KindCoverLetter, p, o.deps.Profile)
		if err != nil {
			o.logger.Warn("cover letter generation failed",
				zap.String("posting_id", p.ID),
				zap.Error(err),
			)
		} else {
			materials.CoverLetter = letter
		}
	}

	result, err := o.deps.Submitter.Submit(ctx, p, materials)
	if err != nil || !result.Succeeded {
		stats.SendFailures++
		stats.countError(errs.E(errs.KindDelivery, "submit", err))
		metrics.CycleErrors.WithLabelValues(string(errs.KindDelivery)).Inc()
		o.deps.Quota.RefundApplication(ctx)
		o.logger.Error("application submission failed",
			zap.String("posting_id", p.ID),
			zap.Error(err),
		)
		d.Note = "submission failed"
		o.park(ctx, d, stats)
		o.markSeen(ctx, p.ID, stats)
		return
	}

	stats.Applied++
	if err := o.deps.Seen.MarkApplied(ctx, p.ID); err != nil {
		stats.countError(errs.E(errs.KindState, "seen.applied", err))
		o.logger.Warn("marking applied failed", zap.String("posting_id", p.ID), zap.Error(err))
	}

	o.track(ctx, d, "application", o.deps.Mailbox, stats)
	o.notify(ctx, "applied", fmt.Sprintf("applied to %s at %s (score %.0f)", p.Title, p.Company, d.Scored.Score))
}

// sendOutreach mails the drafted founder message to the operator mailbox.
// Returns true when the message was delivered.
func (o *Orchestrator) sendOutreach(ctx context.Context, d *router.Decision, stats *Stats) bool {
	p := d.Scored.Posting

	if o.deps.Deliverer == nil || o.deps.Mailbox == "" {
		o.deps.Quota.RefundOutreach(ctx)
		o.logger.Debug("outreach skipped, no deliverer configured",
			zap.String("posting_id", p.ID),
		)
		return false
	}

	if !o.canDeliver(ctx, o.deps.Mailbox) {
		o.deps.Quota.RefundOutreach(ctx)
		o.logger.Warn("provider delivery limit reached, outreach skipped",
			zap.String("posting_id", p.ID),
		)
		if d.Route == router.RouteOutreach {
			d.Note = "delivery limit reached"
			o.park(ctx, d, stats)
			o.markSeen(ctx, p.ID, stats)
		}
		return false
	}

	body := d.Scored.Message
	if o.deps.Generator != nil {
		msg, err := o.deps.Generator.Generate(ctx, ai.KindOutreach, p, o.deps.Profile)
		if err == nil {
			body = msg
		}
	}
	if body == "" {
		body = fmt.Sprintf("I came across the %s role at %s and would love to talk.", p.Title, p.Company)
	}

	subject := fmt.Sprintf("Outreach draft: %s at %s", p.Title, p.Company)
	result, err := o.deps.Deliverer.Send(ctx, o.deps.Mailbox, subject, body)
	if err != nil || !result.Succeeded {
		stats.SendFailures++
		stats.countError(errs.E(errs.KindDelivery, "outreach", err))
		metrics.CycleErrors.WithLabelValues(string(errs.KindDelivery)).Inc()
		o.deps.Quota.RefundOutreach(ctx)
		o.logger.Error("outreach delivery failed",
			zap.String("posting_id", p.ID),
			zap.Error(err),
		)
		if d.Route == router.RouteOutreach {
			d.Note = "delivery failed"
			o.park(ctx, d, stats)
			o.markSeen(ctx, p.ID, stats)
		}
		return false
	}

	stats.OutreachSent++
	o.track(ctx, d, "outreach", o.deps.Mailbox, stats)
	return true
}

func (o *Orchestrator) park(ctx context.Context, d *router.Decision, stats *Stats) {
	if o.deps.Reviews == nil {
		return
	}
	if err := o.deps.Reviews.PutReview(ctx, router.NewReviewItem(d, o.now())); err != nil {
		stats.countError(errs.E(errs.KindState, "review.put", err))
		o.logger.Warn("parking for review failed",
			zap.String("posting_id", d.Scored.Posting.ID),
			zap.Error(err),
		)
	}
}

func (o *Orchestrator) track(ctx context.Context, d *router.Decision, channel, recipient string, stats *Stats) {
	if o.deps.FollowUps == nil {
		return
	}
	p := d.Scored.Posting
	rec := &followup.Record{
		Key:       p.ID,
		Company:   p.Company,
		Title:     p.Title,
		Channel:   channel,
		Recipient: recipient,
		SentAt:    o.now(),
	}
	if err := o.deps.FollowUps.Track(ctx, rec); err != nil {
		stats.countError(errs.E(errs.KindState, "followup.track", err))
		o.logger.Warn("tracking for follow-up failed", zap.String("key", p.ID), zap.Error(err))
	}
}

func (o *Orchestrator) runFollowUps(ctx context.Context, stats *Stats) {
	if o.deps.FollowUps == nil {
		return
	}
	sent, failed, err := o.deps.FollowUps.Run(ctx)
	if err != nil {
		stats.countError(errs.E(errs.KindState, "followup.run", err))
		o.logger.Warn("follow-up pass failed", zap.Error(err))
		return
	}
	stats.FollowUpsSent = sent
	stats.SendFailures += failed
	for i := 0; i < sent; i++ {
		metrics.FollowUpsSent.Inc()
	}
}

// warmContact pings at most one personal-network contact per cycle, outside
// the posting quotas.
func (o *Orchestrator) warmContact(ctx context.Context, stats *Stats) {
	if o.deps.Contacts == nil || o.deps.Deliverer == nil {
		return
	}

	contact, err := o.deps.Contacts.Next(ctx)
	if err != nil {
		stats.countError(errs.E(errs.KindState, "contacts.next", err))
		o.logger.Warn("contact rotation failed", zap.Error(err))
		return
	}
	if contact == nil {
		return
	}
	if !o.canDeliver(ctx, contact.Email) {
		o.logger.Warn("provider delivery limit reached, warm contact skipped")
		return
	}

	body := fmt.Sprintf("Hi %s, it has been a while. I am actively looking at early-stage roles right now and would love to catch up.", contact.Name)
	if o.deps.Generator != nil {
		msg, err := o.deps.Generator.Generate(ctx, ai.KindOutreach, nil, o.deps.Profile)
		if err == nil && msg != "" {
			body = msg
		}
	}

	result, err := o.deps.Deliverer.Send(ctx, contact.Email, "Catching up", body)
	if err != nil || !result.Succeeded {
		stats.SendFailures++
		stats.countError(errs.E(errs.KindDelivery, "warm-contact", err))
		o.logger.Warn("warm contact send failed",
			zap.String("contact", contact.Email),
			zap.Error(err),
		)
		return
	}

	stats.WarmContacts++
	if err := o.deps.Contacts.MarkContacted(ctx, contact); err != nil {
		stats.countError(errs.E(errs.KindState, "contacts.mark", err))
		o.logger.Warn("marking contact failed", zap.String("contact", contact.Email), zap.Error(err))
	}
}

func (o *Orchestrator) trackEmptyStreak(ctx context.Context, stats *Stats) {
	if stats.NewPostings() > 0 {
		o.emptyStreak = 0
		return
	}

	o.emptyStreak++
	switch {
	case o.emptyStreak == emptyAlertAfter:
		o.logger.Error("no new postings", zap.Int("consecutive_cycles", o.emptyStreak))
		o.notify(ctx, "feed alert", fmt.Sprintf("no new postings in %d consecutive cycles, check sources and gate settings", o.emptyStreak))
	case o.emptyStreak == emptyWarnAfter:
		o.logger.Warn("no new postings", zap.Int("consecutive_cycles", o.emptyStreak))
	}
}

// canDeliver consults the provider's own daily limit before a send. A failed
// status query does not block the send; the send itself will surface the
// provider's refusal.
func (o *Orchestrator) canDeliver(ctx context.Context, address string) bool {
	remaining, err := o.deps.Deliverer.RemainingToday(ctx, address)
	if err != nil {
		o.logger.Debug("delivery limit query failed", zap.Error(err))
		return true
	}
	return remaining != 0
}

func (o *Orchestrator) notify(ctx context.Context, subject, message string) {
	if o.deps.Notifier == nil {
		return
	}
	o.deps.Notifier.Notify(ctx, subject, message)
}

func (o *Orchestrator) markSeen(ctx context.Context, id string, stats *Stats) {
	if err := o.deps.Seen.MarkSeen(ctx, id); err != nil {
		stats.countError(errs.E(errs.KindState, "seen.mark", err))
		o.logger.Warn("marking seen failed", zap.String("posting_id", id), zap.Error(err))
	}
}
