// Package redisstore keeps the seen-job set and quota counters in Redis for
// deployments where the state directory is not durable. Seen entries carry
// the TTL natively; applied entries are stored without expiry.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jobhound/jobhound/internal/errs"
	"github.com/jobhound/jobhound/internal/quota"
)

const (
	seenKeyPrefix    = "jobhound:seen:"
	appliedKeyPrefix = "jobhound:applied:"
	quotaKey         = "jobhound:quota"
)

// Store implements store.SeenStore and quota.Store on a Redis client.
type Store struct {
	client  *redis.Client
	seenTTL time.Duration
}

// New parses addr as a redis URL (or plain host:port) and verifies
// connectivity.
func New(ctx context.Context, addr string, seenTTL time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errs.E(errs.KindState, "redis ping", err)
	}

	return &Store{client: client, seenTTL: seenTTL}, nil
}

// NewWithClient wraps an existing client, for tests.
func NewWithClient(client *redis.Client, seenTTL time.Duration) *Store {
	return &Store{client: client, seenTTL: seenTTL}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Has(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, appliedKeyPrefix+id, seenKeyPrefix+id).Result()
	if err != nil {
		return false, errs.E(errs.KindState, "redis exists", err)
	}
	return n > 0, nil
}

func (s *Store) MarkSeen(ctx context.Context, id string) error {
	if err := s.client.Set(ctx, seenKeyPrefix+id, time.Now().UTC().Format(time.RFC3339), s.seenTTL).Err(); err != nil {
		return errs.E(errs.KindState, "redis set seen", err)
	}
	return nil
}

func (s *Store) MarkApplied(ctx context.Context, id string) error {
	// No expiry: the already-applied guarantee outlives the seen TTL.
	if err := s.client.Set(ctx, appliedKeyPrefix+id, time.Now().UTC().Format(time.RFC3339), 0).Err(); err != nil {
		return errs.E(errs.KindState, "redis set applied", err)
	}
	return nil
}

func (s *Store) LoadQuota(ctx context.Context) (*quota.State, error) {
	data, err := s.client.Get(ctx, quotaKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errs.E(errs.KindState, "redis get quota", err)
	}

	var state quota.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errs.E(errs.KindState, "decode quota", fmt.Errorf("corrupt quota state: %w", err))
	}
	return &state, nil
}

func (s *Store) SaveQuota(ctx context.Context, state *quota.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return errs.E(errs.KindState, "encode quota", err)
	}
	if err := s.client.Set(ctx, quotaKey, data, 0).Err(); err != nil {
		return errs.E(errs.KindState, "redis set quota", err)
	}
	return nil
}
