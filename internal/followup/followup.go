// Package followup tracks every contact made and fires at most two
// time-delayed re-engagement messages per contact.
package followup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// maxFollowUps is a hard invariant, not a tunable.
const maxFollowUps = 2

// Record tracks one sent application or outreach message, keyed by the
// posting identity (normalized company+title).
type Record struct {
	Key       string    `json:"key"`
	Company   string    `json:"company"`
	Title     string    `json:"title"`
	Channel   string    `json:"channel"`
	Recipient string    `json:"recipient"`
	SentAt    time.Time `json:"sent_at"`

	FollowUpsSent    int       `json:"follow_ups_sent"`
	LastFollowUpAt   time.Time `json:"last_follow_up_at,omitempty"`
	ResponseReceived bool      `json:"response_received"`
}

// Store persists follow-up records.
type Store interface {
	FollowUps(ctx context.Context) ([]*Record, error)
	PutFollowUp(ctx context.Context, rec *Record) error
}

// Sender delivers one follow-up message for a record.
type Sender interface {
	SendFollowUp(ctx context.Context, rec *Record) error
}

// Config holds the re-engagement cadence.
type Config struct {
	FirstAfterDays  int `mapstructure:"first-after-days"`
	SecondAfterDays int `mapstructure:"second-after-days"`
}

func DefaultConfig() Config {
	return Config{FirstAfterDays: 5, SecondAfterDays: 12}
}

// Scheduler scans records each cycle and fires due follow-ups.
type Scheduler struct {
	cfg    Config
	store  Store
	sender Sender
	logger *zap.Logger
	now    func() time.Time
}

func NewScheduler(cfg Config, store Store, sender Sender, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{cfg: cfg, store: store, sender: sender, logger: log, now: time.Now}
}

// WithClock overrides the wall clock, for tests.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Track records a fresh send so the cadence starts from it.
func (s *Scheduler) Track(ctx context.Context, rec *Record) error {
	if rec.Key == "" {
		return fmt.Errorf("follow-up record requires a key")
	}
	if rec.SentAt.IsZero() {
		rec.SentAt = s.now()
	}
	return s.store.PutFollowUp(ctx, rec)
}

// MarkResponded permanently halts follow-ups for the record.
func (s *Scheduler) MarkResponded(ctx context.Context, key string) error {
	records, err := s.store.FollowUps(ctx)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if rec.Key == key {
			rec.ResponseReceived = true
			return s.store.PutFollowUp(ctx, rec)
		}
	}
	return fmt.Errorf("no follow-up record for key %q", key)
}

// Due reports whether the record needs a follow-up now.
func (s *Scheduler) Due(rec *Record) bool {
	if rec.ResponseReceived || rec.FollowUpsSent >= maxFollowUps {
		return false
	}

	elapsedDays := int(s.now().Sub(rec.SentAt).Hours() / 24)

	switch rec.FollowUpsSent {
	case 0:
		return elapsedDays >= s.cfg.FirstAfterDays
	case 1:
		return elapsedDays >= s.cfg.SecondAfterDays
	default:
		return false
	}
}

// Run fires every due follow-up. A send failure leaves the counter unchanged
// so that record is retried next cycle.
func (s *Scheduler) Run(ctx context.Context) (sent, failed int, err error) {
	records, err := s.store.FollowUps(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("loading follow-up records: %w", err)
	}

	for _, rec := range records {
		if !s.Due(rec) {
			continue
		}

		if err := s.sender.SendFollowUp(ctx, rec); err != nil {
			failed++
			s.logger.Warn("follow-up send failed",
				zap.String("key", rec.Key),
				zap.Int("follow_ups_sent", rec.FollowUpsSent),
				zap.Error(err),
			)
			continue
		}

		rec.FollowUpsSent++
		rec.LastFollowUpAt = s.now()
		if err := s.store.PutFollowUp(ctx, rec); err != nil {
			s.logger.Warn("persisting follow-up record failed",
				zap.String("key", rec.Key),
				zap.Error(err),
			)
		}

		sent++
		s.logger.Info("follow-up sent",
			zap.String("key", rec.Key),
			zap.String("channel", rec.Channel),
			zap.Int("follow_ups_sent", rec.FollowUpsSent),
		)
	}

	return sent, failed, nil
}
