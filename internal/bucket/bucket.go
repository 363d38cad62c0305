package bucket

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fracton/market-engine/internal/numeric"
)

// Bucket is the per-result-space pool/supply/share ledger.
//
// Invariant: Amount == In.Units + Out.Units at every observable point.
// Pool backs this side in currency units; Cost is currency per fraction
// unit (Pool / Amount, floor divided); Odd is the fixed-point multiplier
// derived from the opposing bucket's pool.
type Bucket struct {
	Pool   decimal.Decimal `json:"pool"`
	Cost   decimal.Decimal `json:"cost"`
	Odd    decimal.Decimal `json:"odd"`
	Amount decimal.Decimal `json:"amount"`

	// In holds the liquidity-backed fraction units, Out the trader-held
	// freely tradable ones.
	In  ShareLedger `json:"in"`
	Out ShareLedger `json:"out"`

	// LiqAmount and Liquidity track in-ledger shares contributed as
	// removable liquidity. Share denominated so a pro-rata rescale of
	// the in-ledger (every trade does one) moves the claim and the
	// recorded position together. The initial seed credited to the
	// reserve account is not counted here and cannot be removed.
	LiqAmount decimal.Decimal            `json:"liq_amount"`
	Liquidity map[string]decimal.Decimal `json:"liquidity"`

	// Fees accumulates trading fees. Unconsumed in current behavior.
	Fees decimal.Decimal `json:"fees"`
}

// New returns an empty bucket with initialized ledgers.
func New() Bucket {
	return Bucket{
		Pool:      decimal.Zero,
		Cost:      decimal.Zero,
		Odd:       decimal.Zero,
		Amount:    decimal.Zero,
		In:        NewShareLedger(),
		Out:       NewShareLedger(),
		LiqAmount: decimal.Zero,
		Liquidity: make(map[string]decimal.Decimal),
		Fees:      decimal.Zero,
	}
}

// LiquidityOf returns the holder's removable liquidity position in
// in-ledger shares.
func (b *Bucket) LiquidityOf(holder string) decimal.Decimal {
	return b.Liquidity[holder]
}

// LiquidityClaimOf converts the holder's liquidity shares into absolute
// fraction units at the current in-ledger ratio.
func (b *Bucket) LiquidityClaimOf(holder string) (decimal.Decimal, error) {
	liq := b.Liquidity[holder]
	if liq.IsZero() || b.In.Shares.IsZero() {
		return decimal.Zero, nil
	}
	return numeric.MulDiv(liq, b.In.Units, b.In.Shares)
}

// CheckInvariants verifies the bucket's internal bookkeeping. Used by tests
// after every mutating operation.
func (b *Bucket) CheckInvariants() error {
	if !b.Amount.Equal(b.In.Units.Add(b.Out.Units)) {
		return fmt.Errorf("bucket: amount %s != inPool %s + outPool %s",
			b.Amount, b.In.Units, b.Out.Units)
	}
	if !b.In.TotalBalances().Equal(b.In.Shares) {
		return fmt.Errorf("bucket: in-share balances sum %s != relIn %s",
			b.In.TotalBalances(), b.In.Shares)
	}
	if !b.Out.TotalBalances().Equal(b.Out.Shares) {
		return fmt.Errorf("bucket: out-share balances sum %s != relOut %s",
			b.Out.TotalBalances(), b.Out.Shares)
	}
	if b.Pool.IsNegative() || b.Amount.IsNegative() {
		return fmt.Errorf("bucket: negative pool %s or amount %s", b.Pool, b.Amount)
	}
	return nil
}

// Clone returns a deep copy.
func (b *Bucket) Clone() Bucket {
	c := *b
	c.In = b.In.Clone()
	c.Out = b.Out.Clone()
	c.Liquidity = make(map[string]decimal.Decimal, len(b.Liquidity))
	for k, v := range b.Liquidity {
		c.Liquidity[k] = v
	}
	return c
}
