// Package market provides the HTTP handlers and orchestration for the
// fraction-pool prediction market: event lifecycle, liquidity, trading,
// in/out transfers, and settlement. Handlers decode requests, build a
// capability for the caller, drive the engine against a copy of the
// committed event state, and persist only on success.
//
// All monetary values use shopspring/decimal — never float64 for money.
package market

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fracton/market-engine/internal/engine"
	"github.com/fracton/market-engine/internal/exposure"
	"github.com/fracton/market-engine/internal/metrics"
	"github.com/fracton/market-engine/internal/model"
	"github.com/fracton/market-engine/internal/oracle"
	"github.com/fracton/market-engine/internal/store"
	"github.com/fracton/market-engine/internal/treasury"
)

// Service handles market operations. A mutex serializes state-changing
// operations (single-instance), mirroring the atomic whole-transaction
// execution the accounting assumes. For horizontal scaling, replace with
// distributed locking or database-level optimistic concurrency.
type Service struct {
	store      store.Store
	treasury   treasury.Treasury
	limiter    *exposure.Limiter
	ownerToken string

	mu     sync.Mutex
	paused bool

	hub *WSHub // optional WebSocket hub for real-time broadcasts
}

// NewService creates a new market service. Pass nil for hub if WebSocket
// broadcasting is not needed. An empty ownerToken disables privileged
// operations entirely.
func NewService(st store.Store, ts treasury.Treasury, limiter *exposure.Limiter, ownerToken string, hub *WSHub) *Service {
	return &Service{
		store:      st,
		treasury:   ts,
		limiter:    limiter,
		ownerToken: ownerToken,
		hub:        hub,
	}
}

// capability builds the engine capability for a request: the pause flag,
// the caller identity, and the owner verdict from the bearer token.
func (s *Service) capability(r *http.Request, actor string) engine.Capability {
	return engine.Capability{
		Actor:  actor,
		Owner:  s.isOwner(r),
		Paused: s.paused,
	}
}

// isOwner checks the Authorization bearer token against the configured
// owner token using a constant-time comparison.
func (s *Service) isOwner(r *http.Request) bool {
	if s.ownerToken == "" {
		return false
	}
	auth := r.Header.Get("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return false
	}
	token := strings.TrimSpace(parts[1])
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.ownerToken)) == 1
}

// --- Request/Response types ---

// CreateEventRequest is the JSON body for POST /events.
type CreateEventRequest struct {
	Actor      string          `json:"actor"`
	Name       string          `json:"name"`
	OracleRef  string          `json:"oracle_ref"`
	ContentIDs []string        `json:"content_ids"`
	Deposit    decimal.Decimal `json:"deposit"`
}

// ResolveRequest is the JSON body for POST /events/{eventID}/resolve.
type ResolveRequest struct {
	Actor  string `json:"actor"`
	Result int    `json:"result"`
}

// LiquidityRequest is the JSON body for liquidity operations.
type LiquidityRequest struct {
	Actor   string          `json:"actor"`
	Deposit decimal.Decimal `json:"deposit,omitempty"`
}

// PayoutResponse reports a currency payout.
type PayoutResponse struct {
	EventID int64           `json:"event_id"`
	Actor   string          `json:"actor"`
	Payout  decimal.Decimal `json:"payout"`
}

// PauseRequest is the JSON body for POST /admin/pause.
type PauseRequest struct {
	Paused bool `json:"paused"`
}

// --- Event lifecycle handlers ---

// CreateEvent handles POST /api/v1/events (privileged).
func (s *Service) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// The engine stores the oracle reference opaquely; format validation
	// happens here at the boundary.
	parsed, err := oracle.ParseRef(req.OracleRef)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, err := engine.CreateEvent(s.capability(r, req.Actor), req.ContentIDs, req.OracleRef, req.Name, req.Deposit)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	if err := s.treasury.Debit(ctx, req.Actor, req.Deposit); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}
	if err := s.store.CreateEvent(ctx, ev); err != nil {
		s.treasury.Credit(ctx, req.Actor, req.Deposit) // refund
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.appendRecord(ctx, &model.Record{
		EventID:   ev.ID,
		Kind:      model.RecordEventCreated,
		Actor:     req.Actor,
		Amount:    ev.Spaces[0].Bucket.Amount,
		Cost:      ev.Spaces[0].Bucket.Cost,
		Value:     req.Deposit,
		Timestamp: time.Now().UTC(),
	})
	metrics.OpenEvents.Inc()

	slog.Info("event created",
		"id", ev.ID,
		"name", req.Name,
		"oracle_provider", parsed.Provider,
		"deposit", req.Deposit.String(),
	)

	if s.hub != nil {
		s.hub.Broadcast(WSMessage{
			Type:    "event_created",
			EventID: ev.ID,
			Cost:    ev.Spaces[0].Bucket.Cost.String(),
			Odd:     ev.Spaces[0].Bucket.Odd.String(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ev)
}

// ResolveEvent handles POST /api/v1/events/{eventID}/resolve (privileged).
func (s *Service) ResolveEvent(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
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

	if err := engine.Resolve(s.capability(r, req.Actor), ev, req.Result); err != nil {
		writeEngineError(w, err)
		return
	}
	if err := s.store.UpdateEvent(ctx, ev); err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.appendRecord(ctx, &model.Record{
		EventID:     ev.ID,
		Kind:        model.RecordEventResolved,
		ResultSpace: req.Result,
		Actor:       req.Actor,
		Timestamp:   time.Now().UTC(),
	})
	metrics.OpenEvents.Dec()

	slog.Info("event resolved", "id", ev.ID, "result", req.Result)

	if s.hub != nil {
		s.hub.Broadcast(WSMessage{
			Type:        "event_resolved",
			EventID:     ev.ID,
			ResultSpace: req.Result,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ev)
}

// GetEvent handles GET /api/v1/events/{eventID}.
func (s *Service) GetEvent(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.loadEvent(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ev)
}

// ListEvents handles GET /api/v1/events.
func (s *Service) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.ListEvents(r.Context())
	if err != nil {
		writeError(w, "failed to list events", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}

// GetOdds handles GET /api/v1/events/{eventID}/odds.
func (s *Service) GetOdds(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.loadEvent(w, r)
	if !ok {
		return
	}

	type sideQuote struct {
		Cost   decimal.Decimal `json:"cost"`
		Odd    decimal.Decimal `json:"odd"`
		Pool   decimal.Decimal `json:"pool"`
		Amount decimal.Decimal `json:"amount"`
	}
	resp := map[string]sideQuote{}
	for i := range ev.Spaces {
		b := ev.Spaces[i].Bucket
		resp[strconv.Itoa(ev.Spaces[i].ID)] = sideQuote{
			Cost: b.Cost, Odd: b.Odd, Pool: b.Pool, Amount: b.Amount,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// --- Liquidity handlers ---

// AddLiquidity handles POST /api/v1/events/{eventID}/liquidity.
func (s *Service) AddLiquidity(w http.ResponseWriter, r *http.Request) {
	var req LiquidityRequest
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

	if err := engine.AddLiquidity(s.capability(r, req.Actor), ev, req.Deposit); err != nil {
		writeEngineError(w, err)
		return
	}
	if err := s.treasury.Debit(ctx, req.Actor, req.Deposit); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}
	if err := s.store.UpdateEvent(ctx, ev); err != nil {
		s.treasury.Credit(ctx, req.Actor, req.Deposit) // refund
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.appendRecord(ctx, &model.Record{
		EventID:   ev.ID,
		Kind:      model.RecordLiquidityAdded,
		Actor:     req.Actor,
		Value:     req.Deposit,
		Timestamp: time.Now().UTC(),
	})

	slog.Info("liquidity added", "event", ev.ID, "actor", req.Actor, "deposit", req.Deposit.String())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ev)
}

// RemoveLiquidity handles POST /api/v1/events/{eventID}/liquidity/remove.
// The caller's full liquidity position on both sides is burned and paid
// out. State is committed before the currency leaves the treasury.
func (s *Service) RemoveLiquidity(w http.ResponseWriter, r *http.Request) {
	var req LiquidityRequest
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

	payout, err := engine.RemoveLiquidity(s.capability(r, req.Actor), ev)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if err := s.store.UpdateEvent(ctx, ev); err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	// Committed state no longer carries the position: pay out last.
	if payout.IsPositive() {
		if err := s.treasury.Credit(ctx, req.Actor, payout); err != nil {
			writeError(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	s.appendRecord(ctx, &model.Record{
		EventID:   ev.ID,
		Kind:      model.RecordLiquidityRemoved,
		Actor:     req.Actor,
		Value:     payout,
		Timestamp: time.Now().UTC(),
	})

	slog.Info("liquidity removed", "event", ev.ID, "actor", req.Actor, "payout", payout.String())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(PayoutResponse{EventID: ev.ID, Actor: req.Actor, Payout: payout})
}

// --- Admin ---

// SetPaused handles POST /api/v1/admin/pause (privileged). Engages or
// releases the kill-switch carried into every capability.
func (s *Service) SetPaused(w http.ResponseWriter, r *http.Request) {
	var req PauseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !s.isOwner(r) {
		writeError(w, engine.ErrNotOwner.Error(), http.StatusForbidden)
		return
	}

	s.mu.Lock()
	s.paused = req.Paused
	s.mu.Unlock()

	slog.Warn("pause state changed", "paused", req.Paused)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"paused": req.Paused})
}

// --- Shared helpers ---

// loadEvent parses {eventID} and loads the event, writing the error
// response itself on failure.
func (s *Service) loadEvent(w http.ResponseWriter, r *http.Request) (*model.Event, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		writeError(w, "invalid event id", http.StatusBadRequest)
		return nil, false
	}
	ev, err := s.store.GetEvent(r.Context(), id)
	if err != nil {
		writeError(w, "event not found", http.StatusNotFound)
		return nil, false
	}
	return ev, true
}

// appendRecord assigns an id and appends to the immutable log. Log append
// failures are reported but do not abort the already-committed operation.
func (s *Service) appendRecord(ctx context.Context, rec *model.Record) {
	rec.ID = uuid.New().String()
	if err := s.store.InsertRecord(ctx, rec); err != nil {
		slog.Error("record append failed", "event", rec.EventID, "kind", rec.Kind, "err", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeEngineError maps an engine failure onto an HTTP status through the
// violation taxonomy.
func writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrPaused):
		status = http.StatusServiceUnavailable
	case errors.Is(err, engine.ErrNotOwner):
		status = http.StatusForbidden
	default:
		switch engine.KindOf(err) {
		case engine.KindPrecondition:
			status = http.StatusBadRequest
		case engine.KindEconomic, engine.KindState:
			status = http.StatusConflict
		}
	}
	writeError(w, err.Error(), status)
}
