package exposure

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(i int64) decimal.Decimal {
	return decimal.NewFromInt(i)
}

func TestCheckLimit_PerEvent(t *testing.T) {
	l := NewLimiter(d(100), decimal.Zero)
	holdings := map[int64]Holding{
		1: {Provider: "sportsfeed", Out: d(80)},
	}

	if err := l.CheckLimit(1, "sportsfeed", d(20), holdings); err != nil {
		t.Errorf("buy up to the limit should pass, got %v", err)
	}
	if err := l.CheckLimit(1, "sportsfeed", d(21), holdings); err != ErrPerEventLimitExceeded {
		t.Errorf("expected ErrPerEventLimitExceeded, got %v", err)
	}
	// Another event is unaffected by event 1's position.
	if err := l.CheckLimit(2, "sportsfeed", d(100), holdings); err != nil {
		t.Errorf("fresh event up to the limit should pass, got %v", err)
	}
}

func TestCheckLimit_PerProvider(t *testing.T) {
	l := NewLimiter(decimal.Zero, d(200))
	holdings := map[int64]Holding{
		1: {Provider: "sportsfeed", Out: d(90)},
		2: {Provider: "sportsfeed", Out: d(60)},
		3: {Provider: "weatherco", Out: d(500)},
	}

	if err := l.CheckLimit(2, "sportsfeed", d(50), holdings); err != nil {
		t.Errorf("aggregate at the limit should pass, got %v", err)
	}
	if err := l.CheckLimit(2, "sportsfeed", d(51), holdings); err != ErrPerProviderLimitExceeded {
		t.Errorf("expected ErrPerProviderLimitExceeded, got %v", err)
	}
	// weatherco's large position never counts against sportsfeed.
	if err := l.CheckLimit(4, "sportsfeed", d(50), holdings); err != nil {
		t.Errorf("cross-provider holdings must not be aggregated, got %v", err)
	}
}

func TestCheckLimit_Disabled(t *testing.T) {
	l := NewLimiter(decimal.Zero, decimal.Zero)
	holdings := map[int64]Holding{
		1: {Provider: "sportsfeed", Out: d(1_000_000)},
	}
	if err := l.CheckLimit(1, "sportsfeed", d(1_000_000), holdings); err != nil {
		t.Errorf("zero limits must disable all checks, got %v", err)
	}
}

func TestCheckLimit_UnknownProvider(t *testing.T) {
	l := NewLimiter(decimal.Zero, d(10))
	if err := l.CheckLimit(1, "", d(100), nil); err != nil {
		t.Errorf("empty provider must skip the provider check, got %v", err)
	}
}
