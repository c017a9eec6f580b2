package quota

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStore struct {
	state *State
	saves int
}

func (m *memStore) LoadQuota(context.Context) (*State, error) { return m.state, nil }

func (m *memStore) SaveQuota(_ context.Context, state *State) error {
	copied := *state
	m.state = &copied
	m.saves++
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestDailyCapNeverExceeded(t *testing.T) {
	ctx := context.Background()
	limits := Limits{DailyApplications: 3}
	tracker := NewTracker(limits, nil, zap.NewNop()).
		WithClock(fixedClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)))

	granted := 0
	for i := 0; i < 10; i++ {
		if tracker.SpendApplication(ctx) {
			granted++
		}
	}

	assert.Equal(t, 3, granted)
	assert.Equal(t, 0, tracker.RemainingApplications())
}

func TestHourlyRolloverResetsCounter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 59, 0, 0, time.UTC)
	tracker := NewTracker(Limits{HourlyApplications: 1, DailyApplications: 10}, nil, zap.NewNop()).
		WithClock(func() time.Time { return now })

	require.True(t, tracker.SpendApplication(ctx))
	require.False(t, tracker.SpendApplication(ctx), "hourly cap must hold within the hour")

	now = now.Add(2 * time.Minute) // crosses 10:00
	require.True(t, tracker.SpendApplication(ctx), "hourly counter must reset on the boundary")
}

func TestDayRolloverResetsDailyNotLifetime(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	tracker := NewTracker(Limits{DailyApplications: 1, LifetimeApplications: 2}, nil, zap.NewNop()).
		WithClock(func() time.Time { return now })

	require.True(t, tracker.SpendApplication(ctx))
	require.False(t, tracker.SpendApplication(ctx))

	now = now.Add(time.Hour) // next day
	require.True(t, tracker.SpendApplication(ctx))

	now = now.Add(24 * time.Hour)
	require.False(t, tracker.SpendApplication(ctx), "lifetime cap must survive day rollovers")
}

func TestOutreachBudgetIsIndependent(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(Limits{DailyApplications: 1, DailyOutreach: 2}, nil, zap.NewNop()).
		WithClock(fixedClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)))

	require.True(t, tracker.SpendApplication(ctx))
	require.False(t, tracker.SpendApplication(ctx))

	assert.True(t, tracker.SpendOutreach(ctx))
	assert.True(t, tracker.SpendOutreach(ctx))
	assert.False(t, tracker.SpendOutreach(ctx))
}

func TestRefundReopensWindowButKeepsLifetime(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(Limits{DailyApplications: 1, LifetimeApplications: 1}, nil, zap.NewNop()).
		WithClock(fixedClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)))

	require.True(t, tracker.SpendApplication(ctx))
	tracker.RefundApplication(ctx)

	// Daily window reopened, but the lifetime cap still counts the attempt.
	assert.False(t, tracker.SpendApplication(ctx))
}

func TestStatePersistsAcrossTrackers(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	clock := fixedClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	first := NewTracker(Limits{DailyApplications: 2}, store, zap.NewNop()).WithClock(clock)
	require.NoError(t, first.Load(ctx))
	require.True(t, first.SpendApplication(ctx))

	second := NewTracker(Limits{DailyApplications: 2}, store, zap.NewNop()).WithClock(clock)
	require.NoError(t, second.Load(ctx))
	require.True(t, second.SpendApplication(ctx))
	assert.False(t, second.SpendApplication(ctx), "restart must not forget spent units")
	assert.GreaterOrEqual(t, store.saves, 2)
}
