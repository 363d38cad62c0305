// Package store defines the persistence interface for the market engine.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing). The store assigns the monotonically
// increasing event identifiers.
package store

import (
	"context"
	"errors"

	"github.com/fracton/market-engine/internal/model"
)

// ErrEventNotFound is returned when an event id has no committed state.
var ErrEventNotFound = errors.New("store: event not found")

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer.
type Store interface {
	// --- Event state ---

	// CreateEvent persists a new event and assigns its id.
	CreateEvent(ctx context.Context, ev *model.Event) error

	// GetEvent retrieves an event by id.
	GetEvent(ctx context.Context, id int64) (*model.Event, error)

	// ListEvents returns all events.
	ListEvents(ctx context.Context) ([]model.Event, error)

	// UpdateEvent replaces the committed state of an event.
	UpdateEvent(ctx context.Context, ev *model.Event) error

	// --- Immutable record log ---

	// InsertRecord appends an immutable operation record.
	InsertRecord(ctx context.Context, rec *model.Record) error

	// RecordsByEvent returns all records for an event, oldest first.
	RecordsByEvent(ctx context.Context, eventID int64) ([]model.Record, error)

	// RecordsByActor returns all records for an actor, oldest first.
	RecordsByActor(ctx context.Context, actor string) ([]model.Record, error)
}
