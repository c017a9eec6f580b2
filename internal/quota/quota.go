// Package quota enforces the time-windowed caps on outbound actions. Two
// independent budgets exist: applications (hourly + daily + lifetime) and
// outreach messages (hourly + daily). Counters persist across restarts.
package quota

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Limits holds the configured caps. A zero cap disables that dimension.
type Limits struct {
	DailyApplications    int `mapstructure:"daily-applications"`
	HourlyApplications   int `mapstructure:"hourly-applications"`
	LifetimeApplications int `mapstructure:"lifetime-applications"`
	DailyOutreach        int `mapstructure:"daily-outreach"`
	HourlyOutreach       int `mapstructure:"hourly-outreach"`
}

// DefaultLimits returns the tuned caps.
func DefaultLimits() Limits {
	return Limits{
		DailyApplications:    10,
		HourlyApplications:   3,
		LifetimeApplications: 500,
		DailyOutreach:        2,
		HourlyOutreach:       1,
	}
}

// State is the persisted counter set. Counters reset the instant the wall
// clock crosses a day or hour boundary, never mid-count.
type State struct {
	AppsToday        int       `json:"apps_today"`
	AppsThisHour     int       `json:"apps_this_hour"`
	AppsTotal        int       `json:"apps_total"`
	OutreachToday    int       `json:"outreach_today"`
	OutreachThisHour int       `json:"outreach_this_hour"`
	DayReset         time.Time `json:"day_reset"`
	HourReset        time.Time `json:"hour_reset"`
}

// Store persists quota state atomically.
type Store interface {
	LoadQuota(ctx context.Context) (*State, error)
	SaveQuota(ctx context.Context, state *State) error
}

// Tracker is the single authority for check-then-spend decisions. The mutex
// makes every check-then-increment atomic with respect to the active cycle.
type Tracker struct {
	mu     sync.Mutex
	limits Limits
	state  State
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

func NewTracker(limits Limits, store Store, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		limits: limits,
		store:  store,
		logger: log,
		now:    time.Now,
	}
}

// WithClock overrides the wall clock, for tests.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Load restores persisted counters. Call once at startup.
func (t *Tracker) Load(ctx context.Context) error {
	if t.store == nil {
		return nil
	}

	state, err := t.store.LoadQuota(ctx)
	if err != nil {
		return err
	}
	if state != nil {
		t.mu.Lock()
		t.state = *state
		t.mu.Unlock()
	}
	return nil
}

// SpendApplication atomically checks every application cap and consumes one
// unit when all allow it.
func (t *Tracker) SpendApplication(ctx context.Context) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover()

	if t.limits.DailyApplications > 0 && t.state.AppsToday >= t.limits.DailyApplications {
		return false
	}
	if t.limits.HourlyApplications > 0 && t.state.AppsThisHour >= t.limits.HourlyApplications {
		return false
	}
	if t.limits.LifetimeApplications > 0 && t.state.AppsTotal >= t.limits.LifetimeApplications {
		return false
	}

	t.state.AppsToday++
	t.state.AppsThisHour++
	t.state.AppsTotal++
	t.persist(ctx)
	return true
}

// SpendOutreach atomically checks the outreach caps and consumes one unit.
func (t *Tracker) SpendOutreach(ctx context.Context) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover()

	if t.limits.DailyOutreach > 0 && t.state.OutreachToday >= t.limits.DailyOutreach {
		return false
	}
	if t.limits.HourlyOutreach > 0 && t.state.OutreachThisHour >= t.limits.HourlyOutreach {
		return false
	}

	t.state.OutreachToday++
	t.state.OutreachThisHour++
	t.persist(ctx)
	return true
}

// RefundApplication returns one application unit after a failed send. The
// lifetime counter is kept: the attempt happened.
func (t *Tracker) RefundApplication(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.AppsToday > 0 {
		t.state.AppsToday--
	}
	if t.state.AppsThisHour > 0 {
		t.state.AppsThisHour--
	}
	t.persist(ctx)
}

// RefundOutreach returns one outreach unit after a failed send.
func (t *Tracker) RefundOutreach(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.OutreachToday > 0 {
		t.state.OutreachToday--
	}
	if t.state.OutreachThisHour > 0 {
		t.state.OutreachThisHour--
	}
	t.persist(ctx)
}

// RemainingApplications reports how many applications the current windows
// still allow.
func (t *Tracker) RemainingApplications() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover()

	remaining := -1
	consider := func(limit, used int) {
		if limit <= 0 {
			return
		}
		left := limit - used
		if left < 0 {
			left = 0
		}
		if remaining < 0 || left < remaining {
			remaining = left
		}
	}

	consider(t.limits.DailyApplications, t.state.AppsToday)
	consider(t.limits.HourlyApplications, t.state.AppsThisHour)
	consider(t.limits.LifetimeApplications, t.state.AppsTotal)

	if remaining < 0 {
		return int(^uint(0) >> 1)
	}
	return remaining
}

// Snapshot returns a copy of the current counters after rollover.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover()
	return t.state
}

// rollover resets windowed counters when the wall clock has crossed a day or
// hour boundary since the last reset. Lazy: runs before every check. Callers
// hold the mutex.
func (t *Tracker) rollover() {
	now := t.now()

	day := now.Truncate(24 * time.Hour)
	if t.state.DayReset.IsZero() || day.After(t.state.DayReset) {
		if !t.state.DayReset.IsZero() {
			t.logger.Debug("daily quota reset",
				zap.Int("apps_today", t.state.AppsToday),
				zap.Int("outreach_today", t.state.OutreachToday),
			)
		}
		t.state.AppsToday = 0
		t.state.OutreachToday = 0
		t.state.DayReset = day
	}

	hour := now.Truncate(time.Hour)
	if t.state.HourReset.IsZero() || hour.After(t.state.HourReset) {
		t.state.AppsThisHour = 0
		t.state.OutreachThisHour = 0
		t.state.HourReset = hour
	}
}

func (t *Tracker) persist(ctx context.Context) {
	if t.store == nil {
		return
	}

	state := t.state
	if err := t.store.SaveQuota(ctx, &state); err != nil {
		t.logger.Warn("persisting quota state failed", zap.Error(err))
	}
}
