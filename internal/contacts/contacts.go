// Package contacts maintains the personal-network contact list with a
// per-contact cooldown and rotation.
package contacts

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Contact is one personal-network entry.
type Contact struct {
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Company       string    `json:"company,omitempty"`
	Note          string    `json:"note,omitempty"`
	LastContacted time.Time `json:"last_contacted,omitempty"`
	TotalContacts int       `json:"total_contacts"`
}

// Store persists the contact list.
type Store interface {
	Contacts(ctx context.Context) ([]*Contact, error)
	PutContact(ctx context.Context, c *Contact) error
}

// Config holds the rotation settings.
type Config struct {
	CooldownDays int `mapstructure:"cooldown-days"`
	// DailyCap bounds warm-contact sends across all contacts per calendar
	// day, independent of the posting quotas.
	DailyCap int `mapstructure:"daily-cap"`
}

func DefaultConfig() Config {
	return Config{CooldownDays: 30, DailyCap: 1}
}

// Rotator selects the next eligible contact. A contact is eligible only when
// now minus last-contacted is at least the cooldown period; among eligible
// contacts the least recently contacted wins.
type Rotator struct {
	cfg    Config
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

func NewRotator(cfg Config, store Store, log *zap.Logger) *Rotator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Rotator{cfg: cfg, store: store, logger: log, now: time.Now}
}

// WithClock overrides the wall clock, for tests.
func (r *Rotator) WithClock(now func() time.Time) *Rotator {
	r.now = now
	return r
}

// Next returns the next eligible contact, or nil when every contact is still
// cooling down or the daily cap is spent.
func (r *Rotator) Next(ctx context.Context) (*Contact, error) {
	all, err := r.store.Contacts(ctx)
	if err != nil {
		return nil, err
	}

	cooldown := time.Duration(r.cfg.CooldownDays) * 24 * time.Hour
	now := r.now()

	if r.cfg.DailyCap > 0 {
		today := 0
		year, month, day := now.Date()
		for _, c := range all {
			y, m, d := c.LastContacted.Date()
			if !c.LastContacted.IsZero() && y == year && m == month && d == day {
				today++
			}
		}
		if today >= r.cfg.DailyCap {
			return nil, nil
		}
	}

	var best *Contact
	for _, c := range all {
		if !c.LastContacted.IsZero() && now.Sub(c.LastContacted) < cooldown {
			continue
		}
		if best == nil || c.LastContacted.Before(best.LastContacted) {
			best = c
		}
	}

	return best, nil
}

// MarkContacted stamps the contact and persists it.
func (r *Rotator) MarkContacted(ctx context.Context, c *Contact) error {
	c.LastContacted = r.now()
	c.TotalContacts++

	if err := r.store.PutContact(ctx, c); err != nil {
		return err
	}

	r.logger.Info("warm contact touched",
		zap.String("contact", c.Name),
		zap.Int("total_contacts", c.TotalContacts),
	)
	return nil
}
