package engine

import (
	"github.com/shopspring/decimal"

	"github.com/fracton/market-engine/internal/model"
	"github.com/fracton/market-engine/internal/numeric"
)

// AddLiquidity splits deposit 50/50 across both buckets and mints fractions
// into the caller's liquidity-backed position. On each side the supply grows
// in proportion to the pool growth, holding cost constant, and the new
// fractions are credited with ratio-preserving share issuance. No slippage
// check applies to liquidity provision.
func AddLiquidity(cap Capability, ev *model.Event, deposit decimal.Decimal) error {
	if err := cap.gate(false); err != nil {
		return err
	}
	if err := requireOpen(ev); err != nil {
		return err
	}
	if err := requireUnits(deposit); err != nil {
		return err
	}

	half, err := numeric.Div(deposit, two)
	if err != nil {
		return err
	}
	// Remainder unit goes to side two so the full deposit is absorbed.
	shares := [2]decimal.Decimal{half, deposit.Sub(half)}

	for i := range ev.Spaces {
		b := &ev.Spaces[i].Bucket

		newPool := b.Pool.Add(shares[i])
		newAmount, err := numeric.MulDiv(newPool, b.Amount, b.Pool)
		if err != nil {
			return err
		}
		minted := newAmount.Sub(b.Amount)
		if !minted.IsPositive() {
			return ErrDepositTooSmall
		}

		// The position is recorded in the shares the mint issued, not in
		// units: trades rescale the in-ledger pro rata, and a share count
		// tracks that drift while a unit count would not.
		mintedShares, err := b.In.Mint(cap.Actor, minted)
		if err != nil {
			return err
		}
		b.Pool = newPool
		b.Amount = newAmount
		b.Liquidity[cap.Actor] = b.Liquidity[cap.Actor].Add(mintedShares)
		b.LiqAmount = b.LiqAmount.Add(mintedShares)
	}

	return reprice(ev)
}

// RemoveLiquidity burns the caller's entire liquidity position on both
// sides and returns the currency payout. Partial removal is not supported:
// the caller must hold positive liquidity on both sides and the full
// position is removed atomically. The liquidity shares are valued at the
// current in-ledger ratio, so the claim reflects every pro-rata rescale
// trades applied since the deposit; the proportional share of each pool
// is paid out. The initial reserve seed is not removable, so pools never
// drain to zero here.
func RemoveLiquidity(cap Capability, ev *model.Event) (decimal.Decimal, error) {
	if err := cap.gate(false); err != nil {
		return decimal.Decimal{}, err
	}
	if err := requireOpen(ev); err != nil {
		return decimal.Decimal{}, err
	}

	for i := range ev.Spaces {
		if !ev.Spaces[i].Bucket.LiquidityOf(cap.Actor).IsPositive() {
			return decimal.Decimal{}, ErrNoLiquidityPosition
		}
	}

	payout := decimal.Zero
	for i := range ev.Spaces {
		b := &ev.Spaces[i].Bucket
		liqShares := b.Liquidity[cap.Actor]

		claim, err := b.In.BurnShares(cap.Actor, liqShares)
		if err != nil {
			return decimal.Decimal{}, err
		}
		share, err := numeric.MulDiv(claim, b.Pool, b.Amount)
		if err != nil {
			return decimal.Decimal{}, err
		}

		b.Pool = b.Pool.Sub(share)
		b.Amount = b.Amount.Sub(claim)
		b.LiqAmount = b.LiqAmount.Sub(liqShares)
		delete(b.Liquidity, cap.Actor)

		payout = payout.Add(share)
	}

	if err := reprice(ev); err != nil {
		return decimal.Decimal{}, err
	}
	return payout, nil
}
