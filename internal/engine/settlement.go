package engine

import (
	"github.com/shopspring/decimal"

	"github.com/fracton/market-engine/internal/model"
	"github.com/fracton/market-engine/internal/numeric"
	"github.com/fracton/market-engine/internal/pricing"
)

// WithdrawWins pays out the caller's claim on the winning result space.
// Idempotent per (event, resultSpace, caller): the withdrawal flag is set
// before the payout amount is handed to the caller, so a second attempt —
// including a reentrant one during the currency transfer — fails with
// ErrAlreadyWithdrawn. A holder with a zero claim is paid zero and still
// marked withdrawn.
//
// The payout multiplies the holder's total claim by the bucket's final cost
// and odd, scaled down by OddScale × CurrencyScale, matching the settlement
// formula of the ledger contract this engine mirrors.
func WithdrawWins(cap Capability, ev *model.Event, spaceID int) (decimal.Decimal, error) {
	if err := cap.gate(false); err != nil {
		return decimal.Decimal{}, err
	}
	if !ev.Resolved {
		return decimal.Decimal{}, ErrEventOpen
	}
	rs := ev.Space(spaceID)
	if rs == nil {
		return decimal.Decimal{}, ErrInvalidResultSpace
	}
	if spaceID != ev.Result {
		return decimal.Decimal{}, ErrNotWinningSide
	}
	if rs.Withdrawn[cap.Actor] {
		return decimal.Decimal{}, ErrAlreadyWithdrawn
	}
	b := &rs.Bucket

	inClaim, err := b.In.AbsoluteOf(cap.Actor)
	if err != nil {
		return decimal.Decimal{}, err
	}
	outClaim, err := b.Out.AbsoluteOf(cap.Actor)
	if err != nil {
		return decimal.Decimal{}, err
	}
	total := inClaim.Add(outClaim)

	payout, err := numeric.MulDiv(total.Mul(b.Cost), b.Odd,
		pricing.OddScale.Mul(pricing.CurrencyScale))
	if err != nil {
		return decimal.Decimal{}, err
	}

	// One-time decrement: the holder's claim leaves both sub-ledgers and
	// the supply. Cost and odd stay frozen at their resolution values so
	// later withdrawers settle at the same price.
	if _, err := b.In.Remove(cap.Actor); err != nil {
		return decimal.Decimal{}, err
	}
	if _, err := b.Out.Remove(cap.Actor); err != nil {
		return decimal.Decimal{}, err
	}
	b.Amount = b.Amount.Sub(total)

	rs.Withdrawn[cap.Actor] = true
	return payout, nil
}
