package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fracton/market-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache for event state. Writes go to the primary store and invalidate the
// cache; reads check Redis first then fall back to the primary. The record
// log is append-only and always read from the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Writes (to primary, cache refreshed or invalidated) ---

func (s *CachedStore) CreateEvent(ctx context.Context, ev *model.Event) error {
	if err := s.primary.CreateEvent(ctx, ev); err != nil {
		return err
	}
	s.cacheEvent(ctx, ev)
	return nil
}

func (s *CachedStore) UpdateEvent(ctx context.Context, ev *model.Event) error {
	if err := s.primary.UpdateEvent(ctx, ev); err != nil {
		return err
	}
	// Invalidate; next read re-populates from the committed state.
	s.rdb.Del(ctx, eventKey(ev.ID))
	return nil
}

func (s *CachedStore) InsertRecord(ctx context.Context, rec *model.Record) error {
	return s.primary.InsertRecord(ctx, rec)
}

// --- Reads (check cache first) ---

func (s *CachedStore) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	data, err := s.rdb.Get(ctx, eventKey(id)).Bytes()
	if err == nil {
		var ev model.Event
		if json.Unmarshal(data, &ev) == nil {
			return &ev, nil
		}
	}

	// Cache miss: read from primary.
	ev, err := s.primary.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheEvent(ctx, ev)
	return ev, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.primary.ListEvents(ctx)
}

func (s *CachedStore) RecordsByEvent(ctx context.Context, eventID int64) ([]model.Record, error) {
	return s.primary.RecordsByEvent(ctx, eventID)
}

func (s *CachedStore) RecordsByActor(ctx context.Context, actor string) ([]model.Record, error) {
	return s.primary.RecordsByActor(ctx, actor)
}

// --- Cache helpers ---

func (s *CachedStore) cacheEvent(ctx context.Context, ev *model.Event) {
	if data, err := json.Marshal(ev); err == nil {
		s.rdb.Set(ctx, eventKey(ev.ID), data, s.ttl)
	}
}

func eventKey(id int64) string { return fmt.Sprintf("event:%d", id) }
