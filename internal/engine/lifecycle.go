// Package engine implements the fraction-pool market state machine: event
// lifecycle, liquidity, trading, in/out transfers, and settlement. Every
// entry point takes a Capability and operates on an Event value in memory;
// the engine performs no I/O. Callers apply an operation to a clone of the
// committed event and persist the clone only on success, which gives the
// all-or-nothing semantics the accounting requires.
//
// All monetary values use shopspring/decimal — never float64 for money.
package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fracton/market-engine/internal/bucket"
	"github.com/fracton/market-engine/internal/model"
	"github.com/fracton/market-engine/internal/numeric"
	"github.com/fracton/market-engine/internal/pricing"
)

// ReserveAccount is the engine's own account. It is credited with the full
// initial in-pool share at event creation and acts as the default liquidity
// holder until others add liquidity.
const ReserveAccount = "reserve"

var two = decimal.NewFromInt(2)

// CreateEvent seeds a new event from the initial deposit. Privileged.
// The deposit is split evenly between the two buckets; each side starts
// with the fixed initial fraction supply, fully liquidity-backed, at even
// odds. The event id is assigned by the store at persistence time.
func CreateEvent(cap Capability, contentIDs []string, oracleRef, name string, deposit decimal.Decimal) (*model.Event, error) {
	if err := cap.gate(true); err != nil {
		return nil, err
	}
	if len(contentIDs) != 2 {
		return nil, ErrInvalidResultSpaceCount
	}
	if err := requireUnits(deposit); err != nil {
		return nil, err
	}

	half, err := numeric.Div(deposit, two)
	if err != nil {
		return nil, err
	}
	initialCost, err := numeric.Div(half, pricing.InitialSupply)
	if err != nil {
		return nil, err
	}
	if !initialCost.IsPositive() {
		return nil, ErrNonPositiveInitialCost
	}

	ev := &model.Event{
		Name:      name,
		OracleRef: oracleRef,
		CreatedAt: time.Now().UTC(),
	}

	for i, contentID := range contentIDs {
		b := bucket.New()
		b.Pool = half
		b.Amount = pricing.InitialSupply
		b.Cost = initialCost
		b.Odd = pricing.EvenOdd
		if _, err := b.In.Mint(ReserveAccount, pricing.InitialSupply); err != nil {
			return nil, err
		}

		ev.Spaces[i] = model.ResultSpace{
			ContentID: contentID,
			ID:        i + 1,
			Bucket:    b,
			Withdrawn: make(map[string]bool),
		}
	}

	return ev, nil
}

// Resolve records the winning result space. Privileged, callable once;
// the terminal transition for the event. After this only WithdrawWins may
// change state.
func Resolve(cap Capability, ev *model.Event, winner int) error {
	if err := cap.gate(true); err != nil {
		return err
	}
	if ev.Resolved {
		return ErrAlreadyResolved
	}
	if winner != model.SpaceOne && winner != model.SpaceTwo {
		return ErrInvalidResultSpace
	}

	ev.Result = winner
	ev.Resolved = true
	return nil
}

// reprice recomputes cost and odds for both buckets from the post-mutation
// pool pair. Called after every operation that moves pool currency.
func reprice(ev *model.Event) error {
	a := &ev.Spaces[0].Bucket
	b := &ev.Spaces[1].Bucket

	var err error
	if a.Cost, err = pricing.Cost(a.Pool, a.Amount); err != nil {
		return err
	}
	if b.Cost, err = pricing.Cost(b.Pool, b.Amount); err != nil {
		return err
	}
	if a.Odd, err = pricing.Odd(a.Pool, b.Pool); err != nil {
		return err
	}
	if b.Odd, err = pricing.Odd(b.Pool, a.Pool); err != nil {
		return err
	}
	return nil
}

// requireOpen rejects state-changing operations on resolved events.
func requireOpen(ev *model.Event) error {
	if ev.Resolved {
		return ErrEventResolved
	}
	return nil
}

// requireUnits validates a fraction or currency quantity. Every ledger
// quantity is a whole number of base units; a fractional value would seed
// a ledger whose integer-valued share math divides by zero.
func requireUnits(v decimal.Decimal) error {
	if !v.IsPositive() {
		return ErrNonPositiveAmount
	}
	if !v.IsInteger() {
		return ErrNonIntegerAmount
	}
	return nil
}
