package store

import (
	"context"
	"sync"

	"github.com/fracton/market-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	events  map[int64]*model.Event
	records []model.Record
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		events: make(map[int64]*model.Event),
	}
}

func (s *MemoryStore) CreateEvent(_ context.Context, ev *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev.ID = s.nextID
	s.nextID++

	// Store a copy to avoid external mutation.
	s.events[ev.ID] = ev.Clone()
	return nil
}

func (s *MemoryStore) GetEvent(_ context.Context, id int64) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	return ev.Clone(), nil
}

func (s *MemoryStore) ListEvents(_ context.Context) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]model.Event, 0, len(s.events))
	for id := int64(1); id < s.nextID; id++ {
		if ev, ok := s.events[id]; ok {
			events = append(events, *ev.Clone())
		}
	}
	return events, nil
}

func (s *MemoryStore) UpdateEvent(_ context.Context, ev *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[ev.ID]; !ok {
		return ErrEventNotFound
	}
	s.events[ev.ID] = ev.Clone()
	return nil
}

func (s *MemoryStore) InsertRecord(_ context.Context, rec *model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, *rec)
	return nil
}

func (s *MemoryStore) RecordsByEvent(_ context.Context, eventID int64) ([]model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Record
	for _, r := range s.records {
		if r.EventID == eventID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (s *MemoryStore) RecordsByActor(_ context.Context, actor string) ([]model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Record
	for _, r := range s.records {
		if r.Actor == actor {
			result = append(result, r)
		}
	}
	return result, nil
}
