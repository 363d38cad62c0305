package engine

import (
	"github.com/shopspring/decimal"

	"github.com/fracton/market-engine/internal/model"
)

// PullFractions moves fractionAmount of the caller's claim from the
// liquidity-backed in-pool to the freely tradable out-pool without touching
// the currency pool. Liquidity-locked fractions cannot be pulled: the
// requested amount must be strictly below the caller's in-balance net of
// their own liquidity contribution.
func PullFractions(cap Capability, ev *model.Event, spaceID int, fractionAmount decimal.Decimal) error {
	if err := cap.gate(false); err != nil {
		return err
	}
	if err := requireOpen(ev); err != nil {
		return err
	}
	if err := requireUnits(fractionAmount); err != nil {
		return err
	}
	rs := ev.Space(spaceID)
	if rs == nil {
		return ErrInvalidResultSpace
	}
	b := &rs.Bucket

	absIn, err := b.In.AbsoluteOf(cap.Actor)
	if err != nil {
		return err
	}
	locked, err := b.LiquidityClaimOf(cap.Actor)
	if err != nil {
		return err
	}
	pullable := absIn.Sub(locked)
	if fractionAmount.GreaterThanOrEqual(pullable) {
		return ErrInsufficientPullableBalance
	}

	if _, err := b.In.Burn(cap.Actor, fractionAmount); err != nil {
		return err
	}
	_, err = b.Out.Mint(cap.Actor, fractionAmount)
	return err
}

// PushFractions is the inverse of PullFractions: it moves fractionAmount of
// the caller's tradable claim back into the liquidity-backed in-pool, with
// the mirrored ratio-preserving accounting.
func PushFractions(cap Capability, ev *model.Event, spaceID int, fractionAmount decimal.Decimal) error {
	if err := cap.gate(false); err != nil {
		return err
	}
	if err := requireOpen(ev); err != nil {
		return err
	}
	if err := requireUnits(fractionAmount); err != nil {
		return err
	}
	rs := ev.Space(spaceID)
	if rs == nil {
		return ErrInvalidResultSpace
	}
	b := &rs.Bucket

	absOut, err := b.Out.AbsoluteOf(cap.Actor)
	if err != nil {
		return err
	}
	if absOut.LessThan(fractionAmount) {
		return ErrInsufficientOutBalance
	}

	if _, err := b.Out.Burn(cap.Actor, fractionAmount); err != nil {
		return err
	}
	_, err = b.In.Mint(cap.Actor, fractionAmount)
	return err
}
