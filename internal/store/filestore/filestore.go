// Package filestore persists all pipeline state as JSON documents in a state
// directory. Every write goes through a temp file followed by an atomic
// rename so a crash mid-write never corrupts state.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/contacts"
	"github.com/jobhound/jobhound/internal/errs"
	"github.com/jobhound/jobhound/internal/followup"
	"github.com/jobhound/jobhound/internal/quota"
	"github.com/jobhound/jobhound/internal/router"
	"github.com/jobhound/jobhound/internal/store"
)

const (
	seenFile      = "seen.json"
	quotaFile     = "quota.json"
	followUpsFile = "followups.json"
	contactsFile  = "contacts.json"
	reviewFile    = "review.json"
)

// Store implements every persistence interface of the pipeline on top of a
// single directory of JSON files.
type Store struct {
	dir     string
	seenTTL time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu   sync.Mutex
	seen map[string]*store.SeenEntry
}

// New opens (or creates) the state directory and loads the seen set,
// compacting expired non-applied entries.
func New(dir string, seenTTL time.Duration, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.E(errs.KindState, "mkdir state dir", err)
	}

	s := &Store{
		dir:     dir,
		seenTTL: seenTTL,
		logger:  log,
		now:     time.Now,
		seen:    make(map[string]*store.SeenEntry),
	}

	if err := s.loadSeen(); err != nil {
		return nil, err
	}

	return s, nil
}

// WithClock overrides the wall clock, for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// writeJSON writes v to path atomically: encode into a temp file in the same
// directory, fsync, then rename over the target.
func (s *Store) writeJSON(name string, v any) error {
	tmp, err := os.CreateTemp(s.dir, "."+name+".tmp-*")
	if err != nil {
		return errs.E(errs.KindState, "create temp file", err)
	}

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errs.E(errs.KindState, "encode "+name, err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errs.E(errs.KindState, "sync "+name, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errs.E(errs.KindState, "close "+name, err)
	}

	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		os.Remove(tmp.Name())
		return errs.E(errs.KindState, "rename "+name, err)
	}

	return nil
}

// readJSON decodes path into v. A missing file leaves v untouched.
func (s *Store) readJSON(name string, v any) error {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return errs.E(errs.KindState, "read "+name, err)
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		return errs.E(errs.KindState, "decode "+name, err)
	}
	return nil
}

// --- store.SeenStore ---

func (s *Store) loadSeen() error {
	var entries []*store.SeenEntry
	if err := s.readJSON(seenFile, &entries); err != nil {
		return err
	}

	dropped := 0
	now := time.Now()
	for _, entry := range entries {
		if s.expired(entry, now) {
			dropped++
			continue
		}
		s.seen[entry.ID] = entry
	}

	if dropped > 0 {
		s.logger.Info("compacted expired seen-job entries",
			zap.Int("dropped", dropped),
			zap.Int("kept", len(s.seen)),
		)
		return s.flushSeenLocked()
	}

	return nil
}

func (s *Store) expired(entry *store.SeenEntry, now time.Time) bool {
	if entry.Applied || s.seenTTL <= 0 {
		return false
	}
	return now.Sub(entry.FirstSeen) > s.seenTTL
}

func (s *Store) flushSeenLocked() error {
	entries := make([]*store.SeenEntry, 0, len(s.seen))
	for _, entry := range s.seen {
		entries = append(entries, entry)
	}
	return s.writeJSON(seenFile, entries)
}

func (s *Store) Has(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.seen[id]
	if !ok {
		return false, nil
	}
	if s.expired(entry, s.now()) {
		delete(s.seen, id)
		return false, nil
	}
	return true, nil
}

func (s *Store) MarkSeen(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.seen[id]; ok {
		if entry.Applied {
			return nil
		}
	} else {
		s.seen[id] = &store.SeenEntry{ID: id, FirstSeen: s.now()}
	}
	return s.flushSeenLocked()
}

func (s *Store) MarkApplied(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.seen[id]
	if !ok {
		entry = &store.SeenEntry{ID: id, FirstSeen: s.now()}
		s.seen[id] = entry
	}
	entry.Applied = true
	return s.flushSeenLocked()
}

// --- quota.Store ---

func (s *Store) LoadQuota(context.Context) (*quota.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var state quota.State
	if err := s.readJSON(quotaFile, &state); err != nil {
		return nil, err
	}
	if state.DayReset.IsZero() && state.HourReset.IsZero() && state.AppsTotal == 0 {
		return nil, nil
	}
	return &state, nil
}

func (s *Store) SaveQuota(_ context.Context, state *quota.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(quotaFile, state)
}

// --- followup.Store ---

func (s *Store) FollowUps(context.Context) ([]*followup.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []*followup.Record
	if err := s.readJSON(followUpsFile, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) PutFollowUp(ctx context.Context, rec *followup.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []*followup.Record
	if err := s.readJSON(followUpsFile, &records); err != nil {
		return err
	}

	replaced := false
	for i, existing := range records {
		if existing.Key == rec.Key {
			records[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, rec)
	}

	return s.writeJSON(followUpsFile, records)
}

// --- contacts.Store ---

func (s *Store) Contacts(context.Context) ([]*contacts.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []*contacts.Contact
	if err := s.readJSON(contactsFile, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) PutContact(_ context.Context, c *contacts.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []*contacts.Contact
	if err := s.readJSON(contactsFile, &list); err != nil {
		return err
	}

	replaced := false
	for i, existing := range list {
		if existing.Email == c.Email {
			list[i] = c
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, c)
	}

	return s.writeJSON(contactsFile, list)
}

// --- router.ReviewStore ---

func (s *Store) ReviewQueue(context.Context) ([]*router.ReviewItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []*router.ReviewItem
	if err := s.readJSON(reviewFile, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) PutReview(_ context.Context, item *router.ReviewItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []*router.ReviewItem
	if err := s.readJSON(reviewFile, &items); err != nil {
		return err
	}

	for i, existing := range items {
		if existing.ID == item.ID {
			items[i] = item
			return s.writeJSON(reviewFile, items)
		}
	}

	items = append(items, item)
	return s.writeJSON(reviewFile, items)
}

func (s *Store) RemoveReview(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []*router.ReviewItem
	if err := s.readJSON(reviewFile, &items); err != nil {
		return err
	}

	kept := items[:0]
	for _, item := range items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}

	if len(kept) == len(items) {
		return fmt.Errorf("no review item with id %q", id)
	}

	return s.writeJSON(reviewFile, kept)
}
