// Package pricing derives fraction cost, odds, and slippage from a pair of
// opposing fraction pools. All functions are pure: they read pool sizes and
// return values, never mutating market state, so they are safe for
// pre-trade quoting.
//
// All monetary values use shopspring/decimal — never float64 for money.
// Division is floor division over integer values (see internal/numeric) to
// match the truncating ledger semantics.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/fracton/market-engine/internal/numeric"
)

var (
	// OddScale is the fixed-point scale for odds: an odd of 2*OddScale
	// means an even two-outcome market.
	OddScale = decimal.New(1, 4) // 10^4

	// CurrencyScale is the number of currency base units per whole unit.
	CurrencyScale = decimal.New(1, 7) // 10^7

	// InitialSupply is the fraction supply each side is seeded with at
	// event creation: 100 whole fractions at currency decimals.
	InitialSupply = decimal.New(100, 7) // 100 × 10^7

	// EvenOdd is the odd of a perfectly balanced two-outcome market.
	EvenOdd = decimal.New(2, 4) // 2 × 10^4

	// SlippageCeiling is the maximum allowed price impact, in percent
	// units. A trade whose slippage reaches the ceiling is rejected.
	SlippageCeiling = decimal.NewFromInt(3)

	hundred = decimal.NewFromInt(100)
)

// ErrEmptyPool is returned when a price would be derived from a drained
// pool. Pools are seeded at creation and the seed is not removable, so
// this only surfaces through arithmetic misuse.
var ErrEmptyPool = errors.New("pricing: empty pool")

// Cost returns pool / amount, floor divided: the currency price of one
// fraction unit.
func Cost(pool, amount decimal.Decimal) (decimal.Decimal, error) {
	c, err := numeric.Div(pool, amount)
	if err != nil {
		return decimal.Decimal{}, ErrEmptyPool
	}
	return c, nil
}

// Odd returns the fixed-point price multiplier for the side holding
// ownPool, derived from the opposing side's pool:
//
//	odd = (1 + opposingPool/ownPool) × OddScale
func Odd(ownPool, opposingPool decimal.Decimal) (decimal.Decimal, error) {
	ratio, err := numeric.MulDiv(opposingPool, OddScale, ownPool)
	if err != nil {
		return decimal.Decimal{}, ErrEmptyPool
	}
	return OddScale.Add(ratio), nil
}

// MarketValue returns the currency value of fractionAmount at cost.
func MarketValue(fractionAmount, cost decimal.Decimal) decimal.Decimal {
	return fractionAmount.Mul(cost)
}

// SlippageOnBuy returns the percent price impact of adding marketValue to
// pool: marketValue × 100 / pool, floor divided. The post-trade cost is
// (pool + marketValue) / amount, so this is the relative cost increase.
func SlippageOnBuy(marketValue, pool decimal.Decimal) (decimal.Decimal, error) {
	s, err := numeric.MulDiv(marketValue, hundred, pool)
	if err != nil {
		return decimal.Decimal{}, ErrEmptyPool
	}
	return s, nil
}

// SlippageOnSell returns the percent price impact of removing marketValue
// from pool: marketValue × 100 / (pool − marketValue), floor divided —
// the inverse of the buy-side ratio. A sell that would drain the pool has
// unbounded impact and is reported as exceeding any ceiling.
func SlippageOnSell(marketValue, pool decimal.Decimal) (decimal.Decimal, error) {
	remaining := pool.Sub(marketValue)
	if remaining.Sign() <= 0 {
		return decimal.Decimal{}, ErrEmptyPool
	}
	return numeric.MulDiv(marketValue, hundred, remaining)
}
