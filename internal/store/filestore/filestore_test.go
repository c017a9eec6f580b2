package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/contacts"
	"github.com/jobhound/jobhound/internal/followup"
	"github.com/jobhound/jobhound/internal/quota"
	"github.com/jobhound/jobhound/internal/router"
)

func newStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s, err := New(t.TempDir(), ttl, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestSeenSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := New(dir, 30*24*time.Hour, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, first.MarkSeen(ctx, "acme|engineer"))

	second, err := New(dir, 30*24*time.Hour, zap.NewNop())
	require.NoError(t, err)

	seen, err := second.Has(ctx, "acme|engineer")
	require.NoError(t, err)
	assert.True(t, seen)

	missing, err := second.Has(ctx, "globex|engineer")
	require.NoError(t, err)
	assert.False(t, missing)
}

func TestSeenTTLExpiryButAppliedIsImmune(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 24*time.Hour)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.WithClock(func() time.Time { return now })

	require.NoError(t, s.MarkSeen(ctx, "expiring"))
	require.NoError(t, s.MarkApplied(ctx, "applied"))

	now = now.Add(48 * time.Hour)

	expired, err := s.Has(ctx, "expiring")
	require.NoError(t, err)
	assert.False(t, expired, "plain seen entry must expire after TTL")

	applied, err := s.Has(ctx, "applied")
	require.NoError(t, err)
	assert.True(t, applied, "applied entry must never expire")
}

func TestQuotaRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := New(dir, 0, zap.NewNop())
	require.NoError(t, err)

	empty, err := s.LoadQuota(ctx)
	require.NoError(t, err)
	assert.Nil(t, empty)

	state := &quota.State{
		AppsToday: 3,
		AppsTotal: 17,
		DayReset:  time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		HourReset: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.SaveQuota(ctx, state))

	reopened, err := New(dir, 0, zap.NewNop())
	require.NoError(t, err)
	loaded, err := reopened.LoadQuota(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 3, loaded.AppsToday)
	assert.Equal(t, 17, loaded.AppsTotal)
}

func TestFollowUpUpsert(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 0)

	rec := &followup.Record{Key: "acme|engineer", Channel: "email", SentAt: time.Now()}
	require.NoError(t, s.PutFollowUp(ctx, rec))

	rec.FollowUpsSent = 1
	require.NoError(t, s.PutFollowUp(ctx, rec))

	records, err := s.FollowUps(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].FollowUpsSent)
}

func TestContactsUpsertByEmail(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 0)

	require.NoError(t, s.PutContact(ctx, &contacts.Contact{Name: "Alice", Email: "alice@example.com"}))
	require.NoError(t, s.PutContact(ctx, &contacts.Contact{Name: "Alice B.", Email: "alice@example.com", TotalContacts: 1}))

	list, err := s.Contacts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Alice B.", list[0].Name)
}

func TestReviewQueueAddRemove(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 0)

	item := &router.ReviewItem{ID: "acme|engineer", Title: "Engineer", Company: "Acme", Score: 57}
	require.NoError(t, s.PutReview(ctx, item))

	queue, err := s.ReviewQueue(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)

	require.NoError(t, s.RemoveReview(ctx, "acme|engineer"))
	queue, err = s.ReviewQueue(ctx)
	require.NoError(t, err)
	assert.Empty(t, queue)

	assert.Error(t, s.RemoveReview(ctx, "missing"))
}

func TestWritesLeaveNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := New(dir, 0, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.MarkSeen(ctx, "acme|engineer"))
	require.NoError(t, s.SaveQuota(ctx, &quota.State{AppsTotal: 1}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".tmp-", "temp file left behind: %s", filepath.Join(dir, entry.Name()))
	}
}
