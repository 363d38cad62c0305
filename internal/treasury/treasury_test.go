package treasury

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func d(i int64) decimal.Decimal {
	return decimal.NewFromInt(i)
}

func TestMemoryTreasury_DebitCredit(t *testing.T) {
	ts := NewMemoryTreasury()
	ctx := context.Background()

	if err := ts.Credit(ctx, "alice", d(100)); err != nil {
		t.Fatal(err)
	}
	if err := ts.Debit(ctx, "alice", d(40)); err != nil {
		t.Fatal(err)
	}

	bal, err := ts.BalanceOf(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if !bal.Equal(d(60)) {
		t.Errorf("balance = %s, want 60", bal)
	}
}

func TestMemoryTreasury_InsufficientFunds(t *testing.T) {
	ts := NewMemoryTreasury()
	ctx := context.Background()

	if err := ts.Credit(ctx, "alice", d(10)); err != nil {
		t.Fatal(err)
	}
	if err := ts.Debit(ctx, "alice", d(11)); err != ErrInsufficientFunds {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
	// A failed debit must not touch the balance.
	bal, _ := ts.BalanceOf(ctx, "alice")
	if !bal.Equal(d(10)) {
		t.Errorf("balance = %s, want 10", bal)
	}
}

func TestMemoryTreasury_NonPositiveTransfer(t *testing.T) {
	ts := NewMemoryTreasury()
	ctx := context.Background()

	if err := ts.Credit(ctx, "alice", d(0)); err != ErrNonPositiveTransfer {
		t.Errorf("credit zero: expected ErrNonPositiveTransfer, got %v", err)
	}
	if err := ts.Debit(ctx, "alice", d(-5)); err != ErrNonPositiveTransfer {
		t.Errorf("debit negative: expected ErrNonPositiveTransfer, got %v", err)
	}
}
