// Package exposure enforces position limits on tradable fraction holdings.
//
// Events fed by the same oracle provider tend to settle on correlated
// inputs, so a holder buying heavily across one provider's events carries
// aggregated risk. The limiter caps both the out-pool position in a single
// event and the aggregate across all events sharing a provider.
package exposure

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrPerEventLimitExceeded is returned when a buy would push the
	// holder's out-pool position in one event beyond the per-event maximum.
	ErrPerEventLimitExceeded = errors.New("exposure: per-event position limit exceeded")

	// ErrPerProviderLimitExceeded is returned when a buy would push the
	// holder's aggregate out-pool position across one oracle provider's
	// events beyond the provider maximum.
	ErrPerProviderLimitExceeded = errors.New("exposure: per-provider exposure limit exceeded")
)

// Holding is a holder's current out-pool position in one event.
type Holding struct {
	Provider string
	Out      decimal.Decimal
}

// Limiter enforces per-event and per-provider exposure limits.
// A zero limit disables the corresponding check.
type Limiter struct {
	// MaxPerEvent is the maximum out-pool position in any single event.
	MaxPerEvent decimal.Decimal

	// MaxPerProvider is the maximum aggregate out-pool position across
	// all events resolved by the same oracle provider.
	MaxPerProvider decimal.Decimal
}

// NewLimiter creates a limiter with the given event and provider limits.
func NewLimiter(maxPerEvent, maxPerProvider decimal.Decimal) *Limiter {
	return &Limiter{
		MaxPerEvent:    maxPerEvent,
		MaxPerProvider: maxPerProvider,
	}
}

// CheckLimit validates whether buying delta more fraction units in
// targetEvent respects the limits, given the holder's existing out-pool
// holdings per event id.
func (l *Limiter) CheckLimit(
	targetEvent int64,
	provider string,
	delta decimal.Decimal,
	holdings map[int64]Holding,
) error {
	newPosition := holdings[targetEvent].Out.Add(delta)

	if l.MaxPerEvent.IsPositive() && newPosition.GreaterThan(l.MaxPerEvent) {
		return ErrPerEventLimitExceeded
	}

	if !l.MaxPerProvider.IsPositive() || provider == "" {
		return nil
	}

	totalProvider := newPosition
	for eventID, h := range holdings {
		if eventID == targetEvent {
			continue // already counted via newPosition above
		}
		if h.Provider == provider {
			totalProvider = totalProvider.Add(h.Out)
		}
	}

	if totalProvider.GreaterThan(l.MaxPerProvider) {
		return ErrPerProviderLimitExceeded
	}

	return nil
}
