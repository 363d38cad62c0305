// Package bucket implements the per-result-space fraction bucket and its
// share-accounted sub-ledgers. A ShareLedger tracks absolute fraction units
// alongside proportional-ownership shares, so the engines can rescale a
// whole sub-ledger in O(1) while every holder's relative claim is preserved.
//
// All quantities use shopspring/decimal — never float64 for money.
package bucket

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/fracton/market-engine/internal/numeric"
)

var (
	// ErrInsufficientShares is returned when a holder's absolute claim is
	// smaller than the units being burned or removed.
	ErrInsufficientShares = errors.New("bucket: insufficient share balance")

	// ErrLedgerUnderflow is returned when a pro-rata shrink would take the
	// ledger's units below zero.
	ErrLedgerUnderflow = errors.New("bucket: ledger units underflow")
)

// ShareLedger is one sub-ledger of a bucket ("in" or "out").
//
// A holder's absolute claim is Balances[holder] * Units / Shares, floor
// divided. Every mutation either changes Units and Shares by the same
// ratio (Mint, Burn — targeting one holder, leaving everyone else's
// absolute claim untouched) or changes Units alone (GrowProRata,
// ShrinkProRata — distributing value across all holders at once).
type ShareLedger struct {
	Units    decimal.Decimal            `json:"units"`
	Shares   decimal.Decimal            `json:"shares"`
	Balances map[string]decimal.Decimal `json:"balances"`
}

// NewShareLedger returns an empty ledger.
func NewShareLedger() ShareLedger {
	return ShareLedger{
		Units:    decimal.Zero,
		Shares:   decimal.Zero,
		Balances: make(map[string]decimal.Decimal),
	}
}

// SharesOf returns the holder's raw share balance.
func (l *ShareLedger) SharesOf(holder string) decimal.Decimal {
	return l.Balances[holder]
}

// AbsoluteOf converts the holder's shares into absolute fraction units.
func (l *ShareLedger) AbsoluteOf(holder string) (decimal.Decimal, error) {
	bal, ok := l.Balances[holder]
	if !ok || l.Shares.IsZero() {
		return decimal.Zero, nil
	}
	return numeric.MulDiv(bal, l.Units, l.Shares)
}

// Mint grows the ledger by units and credits the new shares to holder.
// Share issuance is ratio preserving: shares' = shares * units' / units,
// so all other holders keep their exact absolute claim. Returns the number
// of shares minted.
func (l *ShareLedger) Mint(holder string, units decimal.Decimal) (decimal.Decimal, error) {
	newUnits := l.Units.Add(units)

	var minted decimal.Decimal
	if l.Units.IsZero() || l.Shares.IsZero() {
		// Bootstrap: one share per unit.
		minted = units
	} else {
		newShares, err := numeric.MulDiv(l.Shares, newUnits, l.Units)
		if err != nil {
			return decimal.Decimal{}, err
		}
		minted = newShares.Sub(l.Shares)
	}

	l.Units = newUnits
	l.Shares = l.Shares.Add(minted)
	l.Balances[holder] = l.Balances[holder].Add(minted)
	return minted, nil
}

// Burn shrinks the ledger by units, taking the corresponding shares from
// holder. Fails if the holder's absolute claim is below units. Returns the
// number of shares burned.
func (l *ShareLedger) Burn(holder string, units decimal.Decimal) (decimal.Decimal, error) {
	abs, err := l.AbsoluteOf(holder)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if abs.LessThan(units) {
		return decimal.Decimal{}, ErrInsufficientShares
	}

	newUnits := l.Units.Sub(units)
	newShares, err := numeric.MulDiv(l.Shares, newUnits, l.Units)
	if err != nil {
		return decimal.Decimal{}, err
	}
	burned := l.Shares.Sub(newShares)

	bal := l.Balances[holder].Sub(burned)
	if bal.IsNegative() {
		return decimal.Decimal{}, ErrInsufficientShares
	}

	l.Units = newUnits
	l.Shares = newShares
	if bal.IsZero() {
		delete(l.Balances, holder)
	} else {
		l.Balances[holder] = bal
	}
	return burned, nil
}

// BurnShares removes exactly shares from the holder together with their
// current absolute value in units. Unlike Burn, which targets a unit
// amount, this keeps a share-denominated position exact when the
// units-per-share ratio has drifted. Returns the units removed.
func (l *ShareLedger) BurnShares(holder string, shares decimal.Decimal) (decimal.Decimal, error) {
	bal := l.Balances[holder]
	if bal.LessThan(shares) {
		return decimal.Decimal{}, ErrInsufficientShares
	}
	units, err := numeric.MulDiv(shares, l.Units, l.Shares)
	if err != nil {
		return decimal.Decimal{}, err
	}

	l.Units = l.Units.Sub(units)
	l.Shares = l.Shares.Sub(shares)
	bal = bal.Sub(shares)
	if bal.IsZero() {
		delete(l.Balances, holder)
	} else {
		l.Balances[holder] = bal
	}
	return units, nil
}

// Remove drops the holder entirely, shrinking the ledger by their full
// absolute claim. Used at settlement. Returns the units removed.
func (l *ShareLedger) Remove(holder string) (decimal.Decimal, error) {
	abs, err := l.AbsoluteOf(holder)
	if err != nil {
		return decimal.Decimal{}, err
	}
	l.Units = l.Units.Sub(abs)
	l.Shares = l.Shares.Sub(l.Balances[holder])
	delete(l.Balances, holder)
	return abs, nil
}

// GrowProRata adds units without minting shares: every holder's absolute
// claim grows by the same ratio.
func (l *ShareLedger) GrowProRata(units decimal.Decimal) {
	l.Units = l.Units.Add(units)
}

// ShrinkProRata removes units without burning shares: every holder's
// absolute claim shrinks by the same ratio.
func (l *ShareLedger) ShrinkProRata(units decimal.Decimal) error {
	if l.Units.LessThan(units) {
		return ErrLedgerUnderflow
	}
	l.Units = l.Units.Sub(units)
	return nil
}

// TotalBalances sums all per-holder share balances. Equals Shares at every
// observable point; exposed for invariant checks.
func (l *ShareLedger) TotalBalances() decimal.Decimal {
	sum := decimal.Zero
	for _, b := range l.Balances {
		sum = sum.Add(b)
	}
	return sum
}

// Clone returns a deep copy.
func (l *ShareLedger) Clone() ShareLedger {
	c := ShareLedger{
		Units:    l.Units,
		Shares:   l.Shares,
		Balances: make(map[string]decimal.Decimal, len(l.Balances)),
	}
	for k, v := range l.Balances {
		c.Balances[k] = v
	}
	return c
}
