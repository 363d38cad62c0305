package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fracton/market-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// Bucket state (nested share ledgers and holder maps) is stored as JSONB
// with decimals serialized as strings; flat monetary record columns use
// NUMERIC for exact precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateEvent(ctx context.Context, ev *model.Event) error {
	spaces, err := json.Marshal(ev.Spaces)
	if err != nil {
		return fmt.Errorf("marshal spaces: %w", err)
	}

	return s.pool.QueryRow(ctx,
		`INSERT INTO events (name, oracle_ref, resolved, result, spaces, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		ev.Name, ev.OracleRef, ev.Resolved, ev.Result, spaces, ev.CreatedAt,
	).Scan(&ev.ID)
}

func (s *PostgresStore) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	var ev model.Event
	var spaces []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, name, oracle_ref, resolved, result, spaces, created_at
		 FROM events WHERE id = $1`, id).
		Scan(&ev.ID, &ev.Name, &ev.OracleRef, &ev.Resolved, &ev.Result,
			&spaces, &ev.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event %d: %w", id, err)
	}

	if err := json.Unmarshal(spaces, &ev.Spaces); err != nil {
		return nil, fmt.Errorf("unmarshal spaces for event %d: %w", id, err)
	}
	return &ev, nil
}

func (s *PostgresStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, oracle_ref, resolved, result, spaces, created_at
		 FROM events ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var ev model.Event
		var spaces []byte
		if err := rows.Scan(&ev.ID, &ev.Name, &ev.OracleRef, &ev.Resolved,
			&ev.Result, &spaces, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(spaces, &ev.Spaces); err != nil {
			return nil, fmt.Errorf("unmarshal spaces for event %d: %w", ev.ID, err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *PostgresStore) UpdateEvent(ctx context.Context, ev *model.Event) error {
	spaces, err := json.Marshal(ev.Spaces)
	if err != nil {
		return fmt.Errorf("marshal spaces: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE events
		 SET resolved = $2, result = $3, spaces = $4
		 WHERE id = $1`,
		ev.ID, ev.Resolved, ev.Result, spaces,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (s *PostgresStore) InsertRecord(ctx context.Context, r *model.Record) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO records (id, event_id, kind, result_space, actor, side, amount, cost, value, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::NUMERIC, $8::NUMERIC, $9::NUMERIC, $10)`,
		r.ID, r.EventID, r.Kind, r.ResultSpace, r.Actor, r.Side,
		r.Amount.String(), r.Cost.String(), r.Value.String(),
		r.Timestamp,
	)
	return err
}

func (s *PostgresStore) RecordsByEvent(ctx context.Context, eventID int64) ([]model.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, event_id, kind, result_space, actor, side,
		        amount::TEXT, cost::TEXT, value::TEXT, timestamp
		 FROM records WHERE event_id = $1 ORDER BY timestamp`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (s *PostgresStore) RecordsByActor(ctx context.Context, actor string) ([]model.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, event_id, kind, result_space, actor, side,
		        amount::TEXT, cost::TEXT, value::TEXT, timestamp
		 FROM records WHERE actor = $1 ORDER BY timestamp`, actor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// scanRecords reads pgx rows into Record slices.
type pgxRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanRecords(rows pgxRows) ([]model.Record, error) {
	var records []model.Record
	for rows.Next() {
		var r model.Record
		var amountS, costS, valueS string

		if err := rows.Scan(&r.ID, &r.EventID, &r.Kind, &r.ResultSpace,
			&r.Actor, &r.Side, &amountS, &costS, &valueS, &r.Timestamp); err != nil {
			return nil, err
		}

		r.Amount, _ = decimal.NewFromString(amountS)
		r.Cost, _ = decimal.NewFromString(costS)
		r.Value, _ = decimal.NewFromString(valueS)

		records = append(records, r)
	}
	return records, rows.Err()
}
