package market

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fracton/market-engine/internal/engine"
	"github.com/fracton/market-engine/internal/metrics"
	"github.com/fracton/market-engine/internal/model"
)

// WithdrawRequest is the JSON body for POST /events/{eventID}/withdraw.
type WithdrawRequest struct {
	Actor       string `json:"actor"`
	ResultSpace int    `json:"result_space"`
}

// Withdraw handles POST /api/v1/events/{eventID}/withdraw. The withdrawal
// flag and ledger decrement are committed before the payout is credited,
// so a repeated or reentrant call observes the consumed state and fails
// with the already-withdrawn violation.
func (s *Service) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.loadEvent(w, r)
	if !ok {
		return
	}

	payout, err := engine.WithdrawWins(s.capability(r, req.Actor), ev, req.ResultSpace)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if err := s.store.UpdateEvent(ctx, ev); err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if payout.IsPositive() {
		if err := s.treasury.Credit(ctx, req.Actor, payout); err != nil {
			writeError(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	s.appendRecord(ctx, &model.Record{
		EventID:     ev.ID,
		Kind:        model.RecordWithdrawal,
		ResultSpace: req.ResultSpace,
		Actor:       req.Actor,
		Value:       payout,
		Timestamp:   time.Now().UTC(),
	})
	metrics.WithdrawalsTotal.Inc()

	slog.Info("winnings withdrawn",
		"event", ev.ID,
		"space", req.ResultSpace,
		"actor", req.Actor,
		"payout", payout.String(),
	)

	if s.hub != nil {
		s.hub.Broadcast(WSMessage{
			Type:        "withdrawal",
			EventID:     ev.ID,
			ResultSpace: req.ResultSpace,
			Actor:       req.Actor,
			Value:       payout.String(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(PayoutResponse{EventID: ev.ID, Actor: req.Actor, Payout: payout})
}

// GetPositions handles GET /api/v1/positions/{holder}: the holder's claims
// across all events, converted to absolute fraction units.
func (s *Service) GetPositions(w http.ResponseWriter, r *http.Request) {
	holder := chi.URLParam(r, "holder")

	events, err := s.store.ListEvents(r.Context())
	if err != nil {
		writeError(w, "failed to load positions", http.StatusInternalServerError)
		return
	}

	positions := []model.Position{}
	for i := range events {
		ev := &events[i]
		for j := range ev.Spaces {
			b := &ev.Spaces[j].Bucket
			in, err := b.In.AbsoluteOf(holder)
			if err != nil {
				writeError(w, err.Error(), http.StatusInternalServerError)
				return
			}
			out, err := b.Out.AbsoluteOf(holder)
			if err != nil {
				writeError(w, err.Error(), http.StatusInternalServerError)
				return
			}
			liq, err := b.LiquidityClaimOf(holder)
			if err != nil {
				writeError(w, err.Error(), http.StatusInternalServerError)
				return
			}
			if in.IsZero() && out.IsZero() && liq.IsZero() {
				continue
			}
			positions = append(positions, model.Position{
				EventID:     ev.ID,
				ResultSpace: ev.Spaces[j].ID,
				Holder:      holder,
				InUnits:     in,
				OutUnits:    out,
				Liquidity:   liq,
				Cost:        b.Cost,
				Odd:         b.Odd,
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(positions)
}

// GetRecords handles GET /api/v1/events/{eventID}/records: the append-only
// operation log for one event, for external indexers.
func (s *Service) GetRecords(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.loadEvent(w, r)
	if !ok {
		return
	}

	records, err := s.store.RecordsByEvent(r.Context(), ev.ID)
	if err != nil {
		writeError(w, "failed to load records", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []model.Record{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// GetActorRecords handles GET /api/v1/actors/{actor}/records: one actor's
// operation log across all events, oldest first.
func (s *Service) GetActorRecords(w http.ResponseWriter, r *http.Request) {
	actor := chi.URLParam(r, "actor")

	records, err := s.store.RecordsByActor(r.Context(), actor)
	if err != nil {
		writeError(w, "failed to load records", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []model.Record{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}
