package market

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fracton/market-engine/internal/engine"
	"github.com/fracton/market-engine/internal/exposure"
	"github.com/fracton/market-engine/internal/metrics"
	"github.com/fracton/market-engine/internal/model"
	"github.com/fracton/market-engine/internal/oracle"
)

// TradeRequest is the JSON body for POST /trade/buy and /trade/sell.
type TradeRequest struct {
	Actor       string          `json:"actor"`
	EventID     int64           `json:"event_id"`
	ResultSpace int             `json:"result_space"`
	Amount      decimal.Decimal `json:"amount"`            // fraction units
	Deposit     decimal.Decimal `json:"deposit,omitempty"` // buy only; must equal amount × cost
}

// TransferRequest is the JSON body for POST /fractions/pull and /push.
type TransferRequest struct {
	Actor       string          `json:"actor"`
	EventID     int64           `json:"event_id"`
	ResultSpace int             `json:"result_space"`
	Amount      decimal.Decimal `json:"amount"`
}

// QuoteResponse is the read-only pre-trade quote.
type QuoteResponse struct {
	EventID        int64           `json:"event_id"`
	ResultSpace    int             `json:"result_space"`
	Amount         decimal.Decimal `json:"amount"`
	Cost           decimal.Decimal `json:"cost"`
	MarketValue    decimal.Decimal `json:"market_value"`
	SlippageOnBuy  decimal.Decimal `json:"slippage_on_buy"`
	SlippageOnSell decimal.Decimal `json:"slippage_on_sell"`
}

// Buy handles POST /api/v1/trade/buy.
func (s *Service) Buy(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Actor == "" {
		writeError(w, "actor is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ev, err := s.store.GetEvent(ctx, req.EventID)
	if err != nil {
		writeError(w, "event not found", http.StatusNotFound)
		return
	}

	// Exposure limits are checked against committed holdings before the
	// engine mutates anything.
	if s.limiter != nil {
		holdings, err := s.outHoldings(ctx, req.Actor)
		if err != nil {
			writeError(w, "failed to check exposure limits", http.StatusInternalServerError)
			return
		}
		provider := oracle.Provider(ev.OracleRef)
		if err := s.limiter.CheckLimit(ev.ID, provider, req.Amount, holdings); err != nil {
			metrics.ExposureRejections.Inc()
			writeError(w, err.Error(), http.StatusConflict)
			return
		}
	}

	result, err := engine.Buy(s.capability(r, req.Actor), ev, req.ResultSpace, req.Amount, req.Deposit)
	if err != nil {
		if errors.Is(err, engine.ErrExcessiveSlippage) {
			metrics.SlippageRejections.Inc()
		}
		writeEngineError(w, err)
		return
	}

	if err := s.treasury.Debit(ctx, req.Actor, result.MarketValue); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}
	if err := s.store.UpdateEvent(ctx, ev); err != nil {
		s.treasury.Credit(ctx, req.Actor, result.MarketValue) // refund
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.recordTrade(ctx, result)
	metrics.TradesTotal.WithLabelValues(model.SideBuy).Inc()
	metrics.TradeLatency.WithLabelValues(model.SideBuy).Observe(time.Since(start).Seconds())

	slog.Info("trade executed",
		"event", ev.ID,
		"space", req.ResultSpace,
		"side", model.SideBuy,
		"actor", req.Actor,
		"amount", req.Amount.String(),
		"value", result.MarketValue.String(),
		"new_cost", result.NewCost.String(),
	)
	s.broadcastTrade(result)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// Sell handles POST /api/v1/trade/sell. State is committed before the
// proceeds are credited.
func (s *Service) Sell(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Actor == "" {
		writeError(w, "actor is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ev, err := s.store.GetEvent(ctx, req.EventID)
	if err != nil {
		writeError(w, "event not found", http.StatusNotFound)
		return
	}

	result, err := engine.Sell(s.capability(r, req.Actor), ev, req.ResultSpace, req.Amount)
	if err != nil {
		if errors.Is(err, engine.ErrExcessiveSlippage) {
			metrics.SlippageRejections.Inc()
		}
		writeEngineError(w, err)
		return
	}

	if err := s.store.UpdateEvent(ctx, ev); err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := s.treasury.Credit(ctx, req.Actor, result.MarketValue); err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.recordTrade(ctx, result)
	metrics.TradesTotal.WithLabelValues(model.SideSell).Inc()
	metrics.TradeLatency.WithLabelValues(model.SideSell).Observe(time.Since(start).Seconds())

	slog.Info("trade executed",
		"event", ev.ID,
		"space", req.ResultSpace,
		"side", model.SideSell,
		"actor", req.Actor,
		"amount", req.Amount.String(),
		"value", result.MarketValue.String(),
		"new_cost", result.NewCost.String(),
	)
	s.broadcastTrade(result)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// Quote handles GET /api/v1/trade/quote?event_id=&result_space=&amount=.
// Read-only: usable for pre-trade quoting without side effects.
func (s *Service) Quote(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.ParseInt(r.URL.Query().Get("event_id"), 10, 64)
	if err != nil {
		writeError(w, "invalid event_id", http.StatusBadRequest)
		return
	}
	spaceID, err := strconv.Atoi(r.URL.Query().Get("result_space"))
	if err != nil {
		writeError(w, "invalid result_space", http.StatusBadRequest)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(r.URL.Query().Get("amount")))
	if err != nil || !amount.IsPositive() {
		writeError(w, "invalid amount", http.StatusBadRequest)
		return
	}

	ev, err := s.store.GetEvent(r.Context(), eventID)
	if err != nil {
		writeError(w, "event not found", http.StatusNotFound)
		return
	}

	mv, err := engine.FractionsCost(ev, spaceID, amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	slipBuy, err := engine.SlippageOnBuy(ev, spaceID, amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	// A sell that would drain the pool quotes as unbounded; report the
	// ceiling so callers see it as untradable.
	slipSell, err := engine.SlippageOnSell(ev, spaceID, amount)
	if err != nil {
		slipSell = decimal.NewFromInt(100)
	}

	rs := ev.Space(spaceID)
	resp := QuoteResponse{
		EventID:        eventID,
		ResultSpace:    spaceID,
		Amount:         amount,
		Cost:           rs.Bucket.Cost,
		MarketValue:    mv,
		SlippageOnBuy:  slipBuy,
		SlippageOnSell: slipSell,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// PullFractions handles POST /api/v1/fractions/pull.
func (s *Service) PullFractions(w http.ResponseWriter, r *http.Request) {
	s.transfer(w, r, engine.PullFractions, "fractions pulled")
}

// PushFractions handles POST /api/v1/fractions/push.
func (s *Service) PushFractions(w http.ResponseWriter, r *http.Request) {
	s.transfer(w, r, engine.PushFractions, "fractions pushed")
}

// transfer runs one in/out claim movement. No currency moves, so there is
// no treasury step.
func (s *Service) transfer(
	w http.ResponseWriter,
	r *http.Request,
	op func(engine.Capability, *model.Event, int, decimal.Decimal) error,
	logMsg string,
) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, err := s.store.GetEvent(ctx, req.EventID)
	if err != nil {
		writeError(w, "event not found", http.StatusNotFound)
		return
	}

	if err := op(s.capability(r, req.Actor), ev, req.ResultSpace, req.Amount); err != nil {
		writeEngineError(w, err)
		return
	}
	if err := s.store.UpdateEvent(ctx, ev); err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info(logMsg,
		"event", ev.ID,
		"space", req.ResultSpace,
		"actor", req.Actor,
		"amount", req.Amount.String(),
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ev.Space(req.ResultSpace))
}

// outHoldings gathers the actor's committed out-pool positions per event,
// tagged with each event's oracle provider, for the exposure limiter.
func (s *Service) outHoldings(ctx context.Context, actor string) (map[int64]exposure.Holding, error) {
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}

	holdings := make(map[int64]exposure.Holding)
	for i := range events {
		ev := &events[i]
		total := decimal.Zero
		for j := range ev.Spaces {
			abs, err := ev.Spaces[j].Bucket.Out.AbsoluteOf(actor)
			if err != nil {
				return nil, err
			}
			total = total.Add(abs)
		}
		if total.IsPositive() {
			holdings[ev.ID] = exposure.Holding{
				Provider: oracle.Provider(ev.OracleRef),
				Out:      total,
			}
		}
	}
	return holdings, nil
}

// recordTrade appends the immutable trade record: event, side, amount,
// pre-trade cost, and actor.
func (s *Service) recordTrade(ctx context.Context, res *engine.TradeResult) {
	s.appendRecord(ctx, &model.Record{
		EventID:     res.EventID,
		Kind:        model.RecordTrade,
		ResultSpace: res.ResultSpace,
		Actor:       res.Actor,
		Side:        res.Side,
		Amount:      res.Amount,
		Cost:        res.PreCost,
		Value:       res.MarketValue,
		Timestamp:   time.Now().UTC(),
	})
}

func (s *Service) broadcastTrade(res *engine.TradeResult) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(WSMessage{
		Type:        "trade_executed",
		EventID:     res.EventID,
		ResultSpace: res.ResultSpace,
		Side:        res.Side,
		Actor:       res.Actor,
		Amount:      res.Amount.String(),
		Cost:        res.NewCost.String(),
		Odd:         res.NewOdd.String(),
		Value:       res.MarketValue.String(),
	})
}
