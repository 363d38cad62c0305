package numeric

import (
	"testing"

	"github.com/shopspring/decimal"
)

func di(i int64) decimal.Decimal {
	return decimal.NewFromInt(i)
}

func TestDiv_Truncates(t *testing.T) {
	tests := []struct {
		a, b, want int64
	}{
		{10, 3, 3},
		{9, 3, 3},
		{1, 2, 0},
		{999999999, 1000000000, 0},
		{1000000001, 1000000000, 1},
		{0, 5, 0},
	}
	for _, tt := range tests {
		got, err := Div(di(tt.a), di(tt.b))
		if err != nil {
			t.Fatalf("Div(%d, %d): unexpected error %v", tt.a, tt.b, err)
		}
		if !got.Equal(di(tt.want)) {
			t.Errorf("Div(%d, %d) = %s, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDiv_ZeroDenominator(t *testing.T) {
	if _, err := Div(di(1), di(0)); err != ErrDivideByZero {
		t.Errorf("expected ErrDivideByZero, got %v", err)
	}
}

func TestDiv_FractionalDenominator(t *testing.T) {
	// A denominator strictly between zero and one has integer value zero;
	// it must surface as the typed error rather than a big.Int panic.
	half := decimal.New(5, -1)
	if _, err := Div(di(1), half); err != ErrDivideByZero {
		t.Errorf("Div by 0.5: expected ErrDivideByZero, got %v", err)
	}
	if _, err := MulDiv(di(3), di(2), half); err != ErrDivideByZero {
		t.Errorf("MulDiv by 0.5: expected ErrDivideByZero, got %v", err)
	}
}

func TestMulDiv_ExactProduct(t *testing.T) {
	// 10^9 * 10^4 / (10^9 + 10^6): the product exceeds float64's exact
	// integer range, so the intermediate must not lose precision.
	got, err := MulDiv(di(1_000_000_000), di(10_000), di(1_001_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(di(9990)) {
		t.Errorf("MulDiv = %s, want 9990", got)
	}
}

func TestMulDiv_Truncates(t *testing.T) {
	got, err := MulDiv(di(7), di(3), di(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(di(10)) {
		t.Errorf("MulDiv(7,3,2) = %s, want 10", got)
	}
}

func TestMulDiv_ZeroDenominator(t *testing.T) {
	if _, err := MulDiv(di(1), di(1), di(0)); err != ErrDivideByZero {
		t.Errorf("expected ErrDivideByZero, got %v", err)
	}
}
