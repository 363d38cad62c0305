package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fracton/market-engine/internal/model"
)

func testEvent(name string) *model.Event {
	ev := &model.Event{Name: name, OracleRef: "FRX-sportsfeed-TEST-20260101"}
	for i := range ev.Spaces {
		ev.Spaces[i] = model.ResultSpace{
			ContentID: name,
			ID:        i + 1,
			Withdrawn: make(map[string]bool),
		}
	}
	return ev
}

func TestMemoryStore_AssignsSequentialIDs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		ev := testEvent("e")
		if err := s.CreateEvent(ctx, ev); err != nil {
			t.Fatal(err)
		}
		if ev.ID != int64(i) {
			t.Errorf("event id = %d, want %d", ev.ID, i)
		}
	}

	events, err := s.ListEvents(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("listed %d events, want 3", len(events))
	}
	for i, ev := range events {
		if ev.ID != int64(i+1) {
			t.Errorf("listed event %d has id %d", i, ev.ID)
		}
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ev := testEvent("original")
	if err := s.CreateEvent(ctx, ev); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetEvent(ctx, ev.ID)
	if err != nil {
		t.Fatal(err)
	}
	got.Name = "mutated"
	got.Spaces[0].Withdrawn["alice"] = true

	again, err := s.GetEvent(ctx, ev.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.Name != "original" {
		t.Errorf("stored name = %q, want original", again.Name)
	}
	if again.Spaces[0].Withdrawn["alice"] {
		t.Error("withdrawn map shared with caller copy")
	}
}

func TestMemoryStore_UpdateUnknownEvent(t *testing.T) {
	s := NewMemoryStore()
	ev := testEvent("e")
	ev.ID = 42
	if err := s.UpdateEvent(context.Background(), ev); err != ErrEventNotFound {
		t.Errorf("expected ErrEventNotFound, got %v", err)
	}
}

func TestMemoryStore_GetUnknownEvent(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.GetEvent(context.Background(), 7); err != ErrEventNotFound {
		t.Errorf("expected ErrEventNotFound, got %v", err)
	}
}

func TestMemoryStore_RecordQueries(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	recs := []model.Record{
		{ID: "a", EventID: 1, Kind: model.RecordEventCreated, Actor: "owner"},
		{ID: "b", EventID: 1, Kind: model.RecordTrade, Actor: "alice", Amount: decimal.NewFromInt(5)},
		{ID: "c", EventID: 2, Kind: model.RecordTrade, Actor: "alice"},
	}
	for i := range recs {
		if err := s.InsertRecord(ctx, &recs[i]); err != nil {
			t.Fatal(err)
		}
	}

	byEvent, err := s.RecordsByEvent(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(byEvent) != 2 || byEvent[0].ID != "a" || byEvent[1].ID != "b" {
		t.Errorf("records by event = %+v, want a then b", byEvent)
	}

	byActor, err := s.RecordsByActor(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(byActor) != 2 || byActor[0].ID != "b" || byActor[1].ID != "c" {
		t.Errorf("records by actor = %+v, want b then c", byActor)
	}
}
