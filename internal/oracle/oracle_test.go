package oracle

import (
	"errors"
	"testing"
	"time"
)

func TestParseRef_Valid(t *testing.T) {
	ref, err := ParseRef("FRX-sportsfeed-UEFA2026F-20260530")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Provider != "sportsfeed" {
		t.Errorf("provider = %q, want sportsfeed", ref.Provider)
	}
	if ref.Feed != "UEFA2026F" {
		t.Errorf("feed = %q, want UEFA2026F", ref.Feed)
	}
	want := time.Date(2026, 5, 30, 0, 0, 0, 0, time.UTC)
	if !ref.Settles.Equal(want) {
		t.Errorf("settles = %s, want %s", ref.Settles, want)
	}
}

func TestParseRef_Invalid(t *testing.T) {
	bad := []string{
		"",
		"FRX-sportsfeed-UEFA2026F",          // missing date
		"FRX-Sportsfeed-UEFA2026F-20260530", // uppercase provider
		"frx-sportsfeed-UEFA2026F-20260530", // lowercase prefix
		"FRX-sportsfeed-UEFA-2026F-20260530",
		"FRX-sportsfeed-UEFA2026F-2026053",  // short date
		"FRX-sportsfeed-UEFA2026F-20261340", // impossible month
	}
	for _, s := range bad {
		if _, err := ParseRef(s); !errors.Is(err, ErrInvalidRef) {
			t.Errorf("ParseRef(%q): expected ErrInvalidRef, got %v", s, err)
		}
	}
}

func TestProvider(t *testing.T) {
	if got := Provider("FRX-weatherco-NYCRAIN-20260101"); got != "weatherco" {
		t.Errorf("provider = %q, want weatherco", got)
	}
	if got := Provider("not-a-ref"); got != "" {
		t.Errorf("provider = %q for malformed ref, want empty", got)
	}
}
