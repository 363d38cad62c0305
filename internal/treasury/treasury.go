// Package treasury defines the currency-transfer collaborator: an atomic
// debit/credit ledger of native balances. The market engine never holds
// currency itself; it instructs the treasury after its own state is
// committed, so a failed or reentrant transfer can never observe stale
// market state.
package treasury

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientFunds is returned when a debit exceeds the account
	// balance.
	ErrInsufficientFunds = errors.New("treasury: insufficient funds")

	// ErrNonPositiveTransfer is returned for zero or negative amounts.
	ErrNonPositiveTransfer = errors.New("treasury: transfer amount must be positive")
)

// Treasury is the atomic currency transfer primitive.
type Treasury interface {
	// Debit removes amount from the account, failing atomically if the
	// balance is insufficient.
	Debit(ctx context.Context, account string, amount decimal.Decimal) error

	// Credit adds amount to the account.
	Credit(ctx context.Context, account string, amount decimal.Decimal) error

	// BalanceOf returns the account's current balance.
	BalanceOf(ctx context.Context, account string) (decimal.Decimal, error)
}

// MemoryTreasury implements Treasury with in-memory balances. Used for
// testing and single-node deployments; production deployments supply the
// host ledger's transfer primitive instead.
type MemoryTreasury struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
}

// NewMemoryTreasury creates an empty in-memory treasury.
func NewMemoryTreasury() *MemoryTreasury {
	return &MemoryTreasury{balances: make(map[string]decimal.Decimal)}
}

func (t *MemoryTreasury) Debit(_ context.Context, account string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveTransfer
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	bal := t.balances[account]
	if bal.LessThan(amount) {
		return ErrInsufficientFunds
	}
	t.balances[account] = bal.Sub(amount)
	return nil
}

func (t *MemoryTreasury) Credit(_ context.Context, account string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveTransfer
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.balances[account] = t.balances[account].Add(amount)
	return nil
}

func (t *MemoryTreasury) BalanceOf(_ context.Context, account string) (decimal.Decimal, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[account], nil
}
