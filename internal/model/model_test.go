package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func newTestEvent() *Event {
	ev := &Event{ID: 1, Name: "test"}
	for i := range ev.Spaces {
		ev.Spaces[i].ID = i + 1
		ev.Spaces[i].Withdrawn = make(map[string]bool)
		ev.Spaces[i].Bucket.In.Balances = map[string]decimal.Decimal{}
		ev.Spaces[i].Bucket.Out.Balances = map[string]decimal.Decimal{}
		ev.Spaces[i].Bucket.Liquidity = map[string]decimal.Decimal{}
	}
	return ev
}

func TestSpaceAndOpposing(t *testing.T) {
	ev := newTestEvent()

	if got := ev.Space(SpaceOne); got == nil || got.ID != 1 {
		t.Errorf("Space(1) = %v", got)
	}
	if got := ev.Space(SpaceTwo); got == nil || got.ID != 2 {
		t.Errorf("Space(2) = %v", got)
	}
	if got := ev.Space(0); got != nil {
		t.Errorf("Space(0) = %v, want nil", got)
	}
	if got := ev.Space(3); got != nil {
		t.Errorf("Space(3) = %v, want nil", got)
	}

	if got := ev.Opposing(SpaceOne); got == nil || got.ID != 2 {
		t.Errorf("Opposing(1) = %v", got)
	}
	if got := ev.Opposing(SpaceTwo); got == nil || got.ID != 1 {
		t.Errorf("Opposing(2) = %v", got)
	}
}

func TestEventClone_Independent(t *testing.T) {
	ev := newTestEvent()
	ev.Spaces[0].Withdrawn["alice"] = true
	ev.Spaces[0].Bucket.In.Balances["alice"] = decimal.NewFromInt(5)

	c := ev.Clone()
	c.Spaces[0].Withdrawn["bob"] = true
	c.Spaces[0].Bucket.In.Balances["bob"] = decimal.NewFromInt(9)
	c.Resolved = true

	if ev.Resolved {
		t.Error("clone's resolved flag leaked into the original")
	}
	if ev.Spaces[0].Withdrawn["bob"] {
		t.Error("clone's withdrawn map shared with the original")
	}
	if _, ok := ev.Spaces[0].Bucket.In.Balances["bob"]; ok {
		t.Error("clone's balances map shared with the original")
	}
	if !c.Spaces[0].Withdrawn["alice"] {
		t.Error("clone lost the original withdrawn entry")
	}
}
