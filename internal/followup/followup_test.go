package followup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStore struct {
	records map[string]*Record
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*Record)}
}

func (m *memStore) FollowUps(context.Context) ([]*Record, error) {
	out := make([]*Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	return out, nil
}

func (m *memStore) PutFollowUp(_ context.Context, rec *Record) error {
	copied := *rec
	m.records[rec.Key] = &copied
	return nil
}

type recordingSender struct {
	sent []string
	fail bool
}

func (r *recordingSender) SendFollowUp(_ context.Context, rec *Record) error {
	if r.fail {
		return errors.New("smtp unavailable")
	}
	r.sent = append(r.sent, rec.Key)
	return nil
}

func schedulerAt(t0 time.Time, store Store, sender Sender) *Scheduler {
	return NewScheduler(DefaultConfig(), store, sender, zap.NewNop()).
		WithClock(func() time.Time { return t0 })
}

func TestFirstFollowUpFiresAfterThreshold(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	sender := &recordingSender{}

	sentAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sched := schedulerAt(sentAt.AddDate(0, 0, 5), store, sender)

	require.NoError(t, sched.Track(ctx, &Record{Key: "acme|engineer", SentAt: sentAt}))

	sent, failed, err := sched.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 0, failed)
	assert.Equal(t, 1, store.records["acme|engineer"].FollowUpsSent)
}

func TestNotDueBeforeThreshold(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	sender := &recordingSender{}

	sentAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sched := schedulerAt(sentAt.AddDate(0, 0, 3), store, sender)

	require.NoError(t, sched.Track(ctx, &Record{Key: "acme|engineer", SentAt: sentAt}))

	sent, _, err := sched.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestNeverMoreThanTwoFollowUps(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	sender := &recordingSender{}

	sentAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	// Far in the future: both thresholds long passed.
	sched := schedulerAt(sentAt.AddDate(0, 6, 0), store, sender)

	require.NoError(t, sched.Track(ctx, &Record{Key: "acme|engineer", SentAt: sentAt}))

	for i := 0; i < 5; i++ {
		_, _, err := sched.Run(ctx)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, store.records["acme|engineer"].FollowUpsSent)
	assert.Len(t, sender.sent, 2)
}

func TestResponseHaltsFollowUps(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	sender := &recordingSender{}

	sentAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sched := schedulerAt(sentAt.AddDate(0, 6, 0), store, sender)

	require.NoError(t, sched.Track(ctx, &Record{Key: "acme|engineer", SentAt: sentAt}))
	require.NoError(t, sched.MarkResponded(ctx, "acme|engineer"))

	sent, _, err := sched.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, sender.sent)
}

func TestSendFailureLeavesCounterForRetry(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	sender := &recordingSender{fail: true}

	sentAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sched := schedulerAt(sentAt.AddDate(0, 0, 6), store, sender)

	require.NoError(t, sched.Track(ctx, &Record{Key: "acme|engineer", SentAt: sentAt}))

	sent, failed, err := sched.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Equal(t, 1, failed)
	assert.Zero(t, store.records["acme|engineer"].FollowUpsSent)

	// Next cycle the send works and the record advances.
	sender.fail = false
	sent, failed, err = sched.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Zero(t, failed)
	assert.Equal(t, 1, store.records["acme|engineer"].FollowUpsSent)
}
