package engine

import (
	"github.com/shopspring/decimal"

	"github.com/fracton/market-engine/internal/model"
	"github.com/fracton/market-engine/internal/pricing"
)

// TradeResult reports the execution of a buy or sell.
type TradeResult struct {
	EventID     int64           `json:"event_id"`
	ResultSpace int             `json:"result_space"`
	Side        string          `json:"side"`
	Actor       string          `json:"actor"`
	Amount      decimal.Decimal `json:"amount"`       // fraction units traded
	PreCost     decimal.Decimal `json:"pre_cost"`     // cost before mutation
	MarketValue decimal.Decimal `json:"market_value"` // currency moved
	Slippage    decimal.Decimal `json:"slippage"`
	NewCost     decimal.Decimal `json:"new_cost"`
	NewOdd      decimal.Decimal `json:"new_odd"`
}

// Buy executes a purchase of fractionAmount on the given result space.
// The accompanying deposit must equal fractionAmount × cost exactly, with
// cost read before any mutation. The purchased fractions move from the
// liquidity-backed in-pool to the caller's tradable out-pool; the deposit
// grows the pool and both sides are repriced.
func Buy(cap Capability, ev *model.Event, spaceID int, fractionAmount, deposit decimal.Decimal) (*TradeResult, error) {
	if err := cap.gate(false); err != nil {
		return nil, err
	}
	if err := requireOpen(ev); err != nil {
		return nil, err
	}
	if err := requireUnits(fractionAmount); err != nil {
		return nil, err
	}
	rs := ev.Space(spaceID)
	if rs == nil {
		return nil, ErrInvalidResultSpace
	}
	b := &rs.Bucket

	preCost := b.Cost
	marketValue := pricing.MarketValue(fractionAmount, preCost)
	if !deposit.Equal(marketValue) {
		return nil, ErrValueMismatch
	}

	slip, err := pricing.SlippageOnBuy(marketValue, b.Pool)
	if err != nil {
		return nil, err
	}
	if slip.GreaterThanOrEqual(pricing.SlippageCeiling) {
		return nil, ErrExcessiveSlippage
	}

	if b.In.Units.LessThan(fractionAmount) {
		return nil, ErrInsufficientInventory
	}

	// The in-pool holders collectively sell fractionAmount to the buyer:
	// their claims shrink pro rata while the pool absorbs the deposit.
	if err := b.In.ShrinkProRata(fractionAmount); err != nil {
		return nil, err
	}
	if _, err := b.Out.Mint(cap.Actor, fractionAmount); err != nil {
		return nil, err
	}
	b.Pool = b.Pool.Add(marketValue)

	if err := reprice(ev); err != nil {
		return nil, err
	}

	return &TradeResult{
		EventID:     ev.ID,
		ResultSpace: spaceID,
		Side:        model.SideBuy,
		Actor:       cap.Actor,
		Amount:      fractionAmount,
		PreCost:     preCost,
		MarketValue: marketValue,
		Slippage:    slip,
		NewCost:     b.Cost,
		NewOdd:      b.Odd,
	}, nil
}

// Sell burns fractionAmount of the caller's tradable position and pays out
// its market value. The sold fractions return to the liquidity-backed
// in-pool (growing every in-holder's claim pro rata), the pool shrinks by
// the market value, and both sides are repriced. The caller is credited
// marketValue in currency by the service layer after state is committed.
func Sell(cap Capability, ev *model.Event, spaceID int, fractionAmount decimal.Decimal) (*TradeResult, error) {
	if err := cap.gate(false); err != nil {
		return nil, err
	}
	if err := requireOpen(ev); err != nil {
		return nil, err
	}
	if err := requireUnits(fractionAmount); err != nil {
		return nil, err
	}
	rs := ev.Space(spaceID)
	if rs == nil {
		return nil, ErrInvalidResultSpace
	}
	b := &rs.Bucket

	absOut, err := b.Out.AbsoluteOf(cap.Actor)
	if err != nil {
		return nil, err
	}
	if absOut.LessThan(fractionAmount) {
		return nil, ErrInsufficientOutBalance
	}

	preCost := b.Cost
	marketValue := pricing.MarketValue(fractionAmount, preCost)

	slip, err := pricing.SlippageOnSell(marketValue, b.Pool)
	if err != nil {
		// A sell that would drain the pool has unbounded price impact.
		return nil, ErrExcessiveSlippage
	}
	if slip.GreaterThanOrEqual(pricing.SlippageCeiling) {
		return nil, ErrExcessiveSlippage
	}

	if _, err := b.Out.Burn(cap.Actor, fractionAmount); err != nil {
		return nil, err
	}
	b.In.GrowProRata(fractionAmount)
	b.Pool = b.Pool.Sub(marketValue)

	if err := reprice(ev); err != nil {
		return nil, err
	}

	return &TradeResult{
		EventID:     ev.ID,
		ResultSpace: spaceID,
		Side:        model.SideSell,
		Actor:       cap.Actor,
		Amount:      fractionAmount,
		PreCost:     preCost,
		MarketValue: marketValue,
		Slippage:    slip,
		NewCost:     b.Cost,
		NewOdd:      b.Odd,
	}, nil
}

// FractionsCost quotes the currency value of buying fractionAmount at the
// current cost. Read-only.
func FractionsCost(ev *model.Event, spaceID int, fractionAmount decimal.Decimal) (decimal.Decimal, error) {
	rs := ev.Space(spaceID)
	if rs == nil {
		return decimal.Decimal{}, ErrInvalidResultSpace
	}
	return pricing.MarketValue(fractionAmount, rs.Bucket.Cost), nil
}

// SlippageOnBuy quotes the slippage a buy of fractionAmount would incur.
// Read-only.
func SlippageOnBuy(ev *model.Event, spaceID int, fractionAmount decimal.Decimal) (decimal.Decimal, error) {
	rs := ev.Space(spaceID)
	if rs == nil {
		return decimal.Decimal{}, ErrInvalidResultSpace
	}
	mv := pricing.MarketValue(fractionAmount, rs.Bucket.Cost)
	return pricing.SlippageOnBuy(mv, rs.Bucket.Pool)
}

// SlippageOnSell quotes the slippage a sell of fractionAmount would incur.
// Read-only.
func SlippageOnSell(ev *model.Event, spaceID int, fractionAmount decimal.Decimal) (decimal.Decimal, error) {
	rs := ev.Space(spaceID)
	if rs == nil {
		return decimal.Decimal{}, ErrInvalidResultSpace
	}
	mv := pricing.MarketValue(fractionAmount, rs.Bucket.Cost)
	return pricing.SlippageOnSell(mv, rs.Bucket.Pool)
}
