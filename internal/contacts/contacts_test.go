package contacts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStore struct {
	contacts []*Contact
}

func (m *memStore) Contacts(context.Context) ([]*Contact, error) {
	return m.contacts, nil
}

func (m *memStore) PutContact(_ context.Context, c *Contact) error {
	for i, existing := range m.contacts {
		if existing.Email == c.Email {
			m.contacts[i] = c
			return nil
		}
	}
	m.contacts = append(m.contacts, c)
	return nil
}

func TestNextPrefersLeastRecentlyContacted(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	store := &memStore{contacts: []*Contact{
		{Name: "Alice", Email: "alice@example.com", LastContacted: now.AddDate(0, 0, -40)},
		{Name: "Bob", Email: "bob@example.com", LastContacted: now.AddDate(0, 0, -60)},
		{Name: "Carol", Email: "carol@example.com", LastContacted: now.AddDate(0, 0, -5)},
	}}

	rotator := NewRotator(DefaultConfig(), store, zap.NewNop()).
		WithClock(func() time.Time { return now })

	next, err := rotator.Next(ctx)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "Bob", next.Name)
}

func TestNeverContactedWinsRotation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	store := &memStore{contacts: []*Contact{
		{Name: "Alice", Email: "alice@example.com", LastContacted: now.AddDate(0, 0, -40)},
		{Name: "Dave", Email: "dave@example.com"},
	}}

	rotator := NewRotator(DefaultConfig(), store, zap.NewNop()).
		WithClock(func() time.Time { return now })

	next, err := rotator.Next(ctx)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "Dave", next.Name)
}

func TestCooldownExcludesRecentlyContacted(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	store := &memStore{contacts: []*Contact{
		{Name: "Carol", Email: "carol@example.com", LastContacted: now.AddDate(0, 0, -5)},
	}}

	rotator := NewRotator(DefaultConfig(), store, zap.NewNop()).
		WithClock(func() time.Time { return now })

	next, err := rotator.Next(ctx)
	require.NoError(t, err)
	assert.Nil(t, next, "every contact is cooling down")
}

func TestContactNotSelectedTwiceWithinCooldown(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	store := &memStore{contacts: []*Contact{
		{Name: "Alice", Email: "alice@example.com"},
	}}

	rotator := NewRotator(DefaultConfig(), store, zap.NewNop()).
		WithClock(func() time.Time { return now })

	first, err := rotator.Next(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)
	require.NoError(t, rotator.MarkContacted(ctx, first))
	assert.Equal(t, 1, first.TotalContacts)

	second, err := rotator.Next(ctx)
	require.NoError(t, err)
	assert.Nil(t, second, "contact must not be selected twice within the cooldown window")
}

func TestDailyCapBlocksSecondSendSameDay(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	store := &memStore{contacts: []*Contact{
		{Name: "Alice", Email: "alice@example.com", LastContacted: now.Add(-2 * time.Hour)},
		{Name: "Dave", Email: "dave@example.com"},
	}}

	rotator := NewRotator(DefaultConfig(), store, zap.NewNop()).
		WithClock(func() time.Time { return now })

	// Alice was already contacted today; the default cap of 1 is spent.
	next, err := rotator.Next(ctx)
	require.NoError(t, err)
	assert.Nil(t, next)

	// A higher cap lets Dave through.
	cfg := DefaultConfig()
	cfg.DailyCap = 2
	rotator = NewRotator(cfg, store, zap.NewNop()).
		WithClock(func() time.Time { return now })

	next, err = rotator.Next(ctx)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "Dave", next.Name)
}
