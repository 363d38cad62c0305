package bucket

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(i int64) decimal.Decimal {
	return decimal.NewFromInt(i)
}

func TestMint_Bootstrap(t *testing.T) {
	l := NewShareLedger()
	minted, err := l.Mint("alice", d(1000))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if !minted.Equal(d(1000)) {
		t.Errorf("minted = %s, want 1000", minted)
	}
	if !l.Units.Equal(d(1000)) || !l.Shares.Equal(d(1000)) {
		t.Errorf("units = %s, shares = %s, want 1000/1000", l.Units, l.Shares)
	}
	abs, err := l.AbsoluteOf("alice")
	if err != nil {
		t.Fatal(err)
	}
	if !abs.Equal(d(1000)) {
		t.Errorf("absolute = %s, want 1000", abs)
	}
}

func TestMint_PreservesOtherHolders(t *testing.T) {
	l := NewShareLedger()
	if _, err := l.Mint("alice", d(1000)); err != nil {
		t.Fatal(err)
	}
	// Double the ledger units for bob: alice's absolute claim must not move.
	if _, err := l.Mint("bob", d(1000)); err != nil {
		t.Fatal(err)
	}
	aliceAbs, _ := l.AbsoluteOf("alice")
	bobAbs, _ := l.AbsoluteOf("bob")
	if !aliceAbs.Equal(d(1000)) {
		t.Errorf("alice absolute = %s, want 1000", aliceAbs)
	}
	if !bobAbs.Equal(d(1000)) {
		t.Errorf("bob absolute = %s, want 1000", bobAbs)
	}
	if !l.TotalBalances().Equal(l.Shares) {
		t.Errorf("balance sum %s != shares %s", l.TotalBalances(), l.Shares)
	}
}

func TestBurn_RoundTrip(t *testing.T) {
	l := NewShareLedger()
	if _, err := l.Mint("alice", d(1000)); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Mint("bob", d(500)); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Burn("bob", d(500)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if _, ok := l.Balances["bob"]; ok {
		t.Error("bob should be deleted after burning full claim")
	}
	aliceAbs, _ := l.AbsoluteOf("alice")
	if !aliceAbs.Equal(d(1000)) {
		t.Errorf("alice absolute = %s after bob's burn, want 1000", aliceAbs)
	}
	if !l.Units.Equal(d(1000)) {
		t.Errorf("units = %s, want 1000", l.Units)
	}
}

func TestBurn_InsufficientClaim(t *testing.T) {
	l := NewShareLedger()
	if _, err := l.Mint("alice", d(100)); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Burn("alice", d(101)); err != ErrInsufficientShares {
		t.Errorf("expected ErrInsufficientShares, got %v", err)
	}
	if _, err := l.Burn("nobody", d(1)); err != ErrInsufficientShares {
		t.Errorf("expected ErrInsufficientShares for unknown holder, got %v", err)
	}
}

func TestBurnShares_TracksRatioDrift(t *testing.T) {
	l := NewShareLedger()
	if _, err := l.Mint("alice", d(600)); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Mint("bob", d(400)); err != nil {
		t.Fatal(err)
	}
	// A pro-rata shrink drops the units-per-share ratio below one; bob's
	// 400 shares are now worth 360 units and must still burn whole.
	if err := l.ShrinkProRata(d(100)); err != nil {
		t.Fatal(err)
	}

	units, err := l.BurnShares("bob", d(400))
	if err != nil {
		t.Fatalf("burn shares: %v", err)
	}
	if !units.Equal(d(360)) {
		t.Errorf("units removed = %s, want 360", units)
	}
	if _, ok := l.Balances["bob"]; ok {
		t.Error("bob should be deleted after burning full share balance")
	}
	aliceAbs, _ := l.AbsoluteOf("alice")
	if !aliceAbs.Equal(d(540)) {
		t.Errorf("alice absolute = %s after bob's exit, want 540", aliceAbs)
	}
	if !l.TotalBalances().Equal(l.Shares) {
		t.Errorf("balance sum %s != shares %s", l.TotalBalances(), l.Shares)
	}
}

func TestBurnShares_InsufficientBalance(t *testing.T) {
	l := NewShareLedger()
	if _, err := l.Mint("alice", d(100)); err != nil {
		t.Fatal(err)
	}
	if _, err := l.BurnShares("alice", d(101)); err != ErrInsufficientShares {
		t.Errorf("expected ErrInsufficientShares, got %v", err)
	}
}

func TestGrowShrinkProRata(t *testing.T) {
	l := NewShareLedger()
	if _, err := l.Mint("alice", d(600)); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Mint("bob", d(400)); err != nil {
		t.Fatal(err)
	}

	l.GrowProRata(d(1000))
	aliceAbs, _ := l.AbsoluteOf("alice")
	bobAbs, _ := l.AbsoluteOf("bob")
	if !aliceAbs.Equal(d(1200)) || !bobAbs.Equal(d(800)) {
		t.Errorf("after grow: alice %s bob %s, want 1200/800", aliceAbs, bobAbs)
	}

	if err := l.ShrinkProRata(d(1000)); err != nil {
		t.Fatalf("shrink: %v", err)
	}
	aliceAbs, _ = l.AbsoluteOf("alice")
	bobAbs, _ = l.AbsoluteOf("bob")
	if !aliceAbs.Equal(d(600)) || !bobAbs.Equal(d(400)) {
		t.Errorf("after shrink: alice %s bob %s, want 600/400", aliceAbs, bobAbs)
	}
}

func TestShrinkProRata_Underflow(t *testing.T) {
	l := NewShareLedger()
	if _, err := l.Mint("alice", d(100)); err != nil {
		t.Fatal(err)
	}
	if err := l.ShrinkProRata(d(101)); err != ErrLedgerUnderflow {
		t.Errorf("expected ErrLedgerUnderflow, got %v", err)
	}
}

func TestRemove_FullClaim(t *testing.T) {
	l := NewShareLedger()
	if _, err := l.Mint("alice", d(700)); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Mint("bob", d(300)); err != nil {
		t.Fatal(err)
	}
	removed, err := l.Remove("alice")
	if err != nil {
		t.Fatal(err)
	}
	if !removed.Equal(d(700)) {
		t.Errorf("removed = %s, want 700", removed)
	}
	bobAbs, _ := l.AbsoluteOf("bob")
	if !bobAbs.Equal(d(300)) {
		t.Errorf("bob absolute = %s after alice removed, want 300", bobAbs)
	}
	if !l.TotalBalances().Equal(l.Shares) {
		t.Errorf("balance sum %s != shares %s", l.TotalBalances(), l.Shares)
	}
}

func TestAbsoluteOf_EmptyLedger(t *testing.T) {
	l := NewShareLedger()
	abs, err := l.AbsoluteOf("nobody")
	if err != nil {
		t.Fatal(err)
	}
	if !abs.IsZero() {
		t.Errorf("absolute = %s, want 0", abs)
	}
}

func TestClone_Independent(t *testing.T) {
	l := NewShareLedger()
	if _, err := l.Mint("alice", d(100)); err != nil {
		t.Fatal(err)
	}
	c := l.Clone()
	if _, err := c.Mint("bob", d(100)); err != nil {
		t.Fatal(err)
	}
	if !l.Units.Equal(d(100)) {
		t.Errorf("original mutated by clone: units = %s", l.Units)
	}
	if _, ok := l.Balances["bob"]; ok {
		t.Error("original balances mutated by clone")
	}
}

func TestBucket_CheckInvariants(t *testing.T) {
	b := New()
	if _, err := b.In.Mint("reserve", d(1000)); err != nil {
		t.Fatal(err)
	}
	b.Amount = d(1000)
	b.Pool = d(500)
	if err := b.CheckInvariants(); err != nil {
		t.Errorf("unexpected invariant failure: %v", err)
	}

	b.Amount = d(999)
	if err := b.CheckInvariants(); err == nil {
		t.Error("expected invariant failure for amount != in + out")
	}
}
