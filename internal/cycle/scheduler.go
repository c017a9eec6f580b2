package cycle

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/outreach"
)

// Scheduler runs discovery cycles on a fixed interval and mails the daily
// digest each evening.
type Scheduler struct {
	cron         *cron.Cron
	orchestrator *Orchestrator
	history      *History
	notifier     outreach.Notifier
	spec         string
	logger       *zap.Logger
}

// NewScheduler fires a cycle every intervalHours hours.
func NewScheduler(orchestrator *Orchestrator, history *History, notifier outreach.Notifier, intervalHours int, logger *zap.Logger) *Scheduler {
	if intervalHours <= 0 {
		intervalHours = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:         cron.New(),
		orchestrator: orchestrator,
		history:      history,
		notifier:     notifier,
		spec:         fmt.Sprintf("@every %dh", intervalHours),
		logger:       logger,
	}
}

// Start registers the jobs and runs one cycle immediately so the first
// results do not wait for the first tick. Blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.runCycle(ctx) }); err != nil {
		return fmt.Errorf("registering cycle job: %w", err)
	}
	if _, err := s.cron.AddFunc("0 18 * * *", func() { s.sendDigest(ctx) }); err != nil {
		return fmt.Errorf("registering digest job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("spec", s.spec))

	s.runCycle(ctx)

	<-ctx.Done()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.orchestrator.RunCycle(ctx)
}

func (s *Scheduler) sendDigest(ctx context.Context) {
	if s.history == nil || s.notifier == nil {
		return
	}

	day := time.Now()
	runs, err := s.history.Day(day)
	if err != nil {
		s.logger.Warn("loading cycle history failed", zap.Error(err))
		return
	}
	if len(runs) == 0 {
		return
	}

	s.notifier.Notify(ctx, "daily digest", Digest(day, runs))
}
