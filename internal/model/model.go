// Package model defines the core domain types shared across the market engine.
// All monetary values use shopspring/decimal — never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fracton/market-engine/internal/bucket"
)

// Result-space identifiers. Every event has exactly two.
const (
	SpaceOne = 1
	SpaceTwo = 2
)

// Record kinds for the append-only log consumed by external indexers.
const (
	RecordEventCreated     = "event_created"
	RecordTrade            = "trade"
	RecordLiquidityAdded   = "liquidity_added"
	RecordLiquidityRemoved = "liquidity_removed"
	RecordEventResolved    = "event_resolved"
	RecordWithdrawal       = "withdrawal"
)

// Trade sides recorded on trade records.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// ResultSpace is one of the two possible outcomes of an event.
type ResultSpace struct {
	// ContentID is the external content identifier supplied at creation.
	ContentID string `json:"content_id"`

	// ID is the local result-space id: 1 or 2.
	ID int `json:"id"`

	Bucket bucket.Bucket `json:"bucket"`

	// Withdrawn records holders that have already withdrawn winnings.
	// Append-only; checked for idempotence at settlement.
	Withdrawn map[string]bool `json:"withdrawn"`
}

// Event is a binary-outcome market instance with two result spaces.
// Identifier, name, and oracle reference are fixed at creation;
// Resolved/Result transition exactly once.
type Event struct {
	ID        int64          `json:"id" db:"id"`
	Name      string         `json:"name" db:"name"`
	OracleRef string         `json:"oracle_ref" db:"oracle_ref"`
	Resolved  bool           `json:"resolved" db:"resolved"`
	Result    int            `json:"result" db:"result"` // valid only once resolved
	Spaces    [2]ResultSpace `json:"spaces"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// Space returns the result space with the given local id, or nil if the id
// is not 1 or 2.
func (e *Event) Space(id int) *ResultSpace {
	switch id {
	case SpaceOne:
		return &e.Spaces[0]
	case SpaceTwo:
		return &e.Spaces[1]
	}
	return nil
}

// Opposing returns the other result space.
func (e *Event) Opposing(id int) *ResultSpace {
	switch id {
	case SpaceOne:
		return &e.Spaces[1]
	case SpaceTwo:
		return &e.Spaces[0]
	}
	return nil
}

// Clone returns a deep copy. Engines mutate clones; the store keeps the
// committed state until the operation completes, so an aborted operation
// leaves no partial effect.
func (e *Event) Clone() *Event {
	c := *e
	for i := range e.Spaces {
		c.Spaces[i].Bucket = e.Spaces[i].Bucket.Clone()
		c.Spaces[i].Withdrawn = make(map[string]bool, len(e.Spaces[i].Withdrawn))
		for k, v := range e.Spaces[i].Withdrawn {
			c.Spaces[i].Withdrawn[k] = v
		}
	}
	return &c
}

// Record is an immutable entry in the append-only operation log.
// Once created, these are never modified or deleted.
type Record struct {
	ID          string          `json:"id" db:"id"`
	EventID     int64           `json:"event_id" db:"event_id"`
	Kind        string          `json:"kind" db:"kind"`
	ResultSpace int             `json:"result_space,omitempty" db:"result_space"`
	Actor       string          `json:"actor,omitempty" db:"actor"`
	Side        string          `json:"side,omitempty" db:"side"`
	Amount      decimal.Decimal `json:"amount" db:"amount"` // fraction units
	Cost        decimal.Decimal `json:"cost" db:"cost"`     // pre-trade cost for trades
	Value       decimal.Decimal `json:"value" db:"value"`   // currency moved
	Timestamp   time.Time       `json:"timestamp" db:"timestamp"`
}

// Position is a holder's view of one side of one event, with claim figures
// converted to absolute fraction units.
type Position struct {
	EventID     int64           `json:"event_id"`
	ResultSpace int             `json:"result_space"`
	Holder      string          `json:"holder"`
	InUnits     decimal.Decimal `json:"in_units"`
	OutUnits    decimal.Decimal `json:"out_units"`
	Liquidity   decimal.Decimal `json:"liquidity"`
	Cost        decimal.Decimal `json:"cost"`
	Odd         decimal.Decimal `json:"odd"`
}
