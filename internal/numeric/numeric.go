// Package numeric provides exact floor-division helpers for the share
// accounting math. All pool, supply, and share quantities in the engine are
// integer-valued decimals; the settlement-critical formulas require the
// truncating integer semantics these helpers give, which plain decimal
// division (fixed result precision, round-half-up) does not.
//
// All monetary values use shopspring/decimal — never float64 for money.
package numeric

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

// ErrDivideByZero is returned for any division with a zero denominator.
var ErrDivideByZero = errors.New("numeric: division by zero")

// Div returns floor(a / b) over the integer values of a and b.
// The guard runs on the integer value: a denominator strictly between
// zero and one truncates to zero and must fail typed, not panic.
func Div(a, b decimal.Decimal) (decimal.Decimal, error) {
	bi := b.BigInt()
	if bi.Sign() == 0 {
		return decimal.Decimal{}, ErrDivideByZero
	}
	q := new(big.Int).Quo(a.BigInt(), bi)
	return decimal.NewFromBigInt(q, 0), nil
}

// MulDiv returns floor(a * b / c) with the product computed exactly,
// so no precision is lost before the final truncation.
func MulDiv(a, b, c decimal.Decimal) (decimal.Decimal, error) {
	ci := c.BigInt()
	if ci.Sign() == 0 {
		return decimal.Decimal{}, ErrDivideByZero
	}
	p := new(big.Int).Mul(a.BigInt(), b.BigInt())
	q := new(big.Int).Quo(p, ci)
	return decimal.NewFromBigInt(q, 0), nil
}
