package engine

import (
	"errors"

	"github.com/fracton/market-engine/internal/bucket"
	"github.com/fracton/market-engine/internal/numeric"
	"github.com/fracton/market-engine/internal/pricing"
)

// Every operation aborts whole: an error means no state change.
var (
	// Precondition violations.
	ErrPaused                  = errors.New("engine: system is paused")
	ErrNotOwner                = errors.New("engine: caller is not the owner")
	ErrMissingActor            = errors.New("engine: missing actor identity")
	ErrInvalidResultSpaceCount = errors.New("engine: event requires exactly two result spaces")
	ErrNonPositiveAmount       = errors.New("engine: amount must be positive")
	ErrNonIntegerAmount        = errors.New("engine: amount must be integer base units")
	ErrEventResolved           = errors.New("engine: event already resolved")
	ErrEventOpen               = errors.New("engine: event not yet resolved")
	ErrInvalidResultSpace      = errors.New("engine: result space id must be 1 or 2")
	ErrNoLiquidityPosition     = errors.New("engine: no liquidity position on both sides")

	// Economic violations.
	ErrNonPositiveInitialCost      = errors.New("engine: initial fraction cost truncates to zero")
	ErrDepositTooSmall             = errors.New("engine: deposit too small to mint fractions")
	ErrValueMismatch               = errors.New("engine: deposit does not equal market value")
	ErrExcessiveSlippage           = errors.New("engine: slippage ceiling exceeded")
	ErrInsufficientInventory       = errors.New("engine: insufficient liquidity-backed supply")
	ErrInsufficientOutBalance      = errors.New("engine: insufficient tradable balance")
	ErrInsufficientPullableBalance = errors.New("engine: insufficient pullable balance")

	// State violations.
	ErrAlreadyResolved  = errors.New("engine: event was already resolved")
	ErrNotWinningSide   = errors.New("engine: result space did not win")
	ErrAlreadyWithdrawn = errors.New("engine: winnings already withdrawn")
)

// Kind classifies an operation failure for callers that map errors onto
// transport-level responses.
type Kind int

const (
	KindUnknown Kind = iota
	KindPrecondition
	KindEconomic
	KindState
	KindArithmetic
)

// KindOf returns the violation class of err.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrPaused),
		errors.Is(err, ErrNotOwner),
		errors.Is(err, ErrMissingActor),
		errors.Is(err, ErrInvalidResultSpaceCount),
		errors.Is(err, ErrNonPositiveAmount),
		errors.Is(err, ErrNonIntegerAmount),
		errors.Is(err, ErrEventResolved),
		errors.Is(err, ErrEventOpen),
		errors.Is(err, ErrInvalidResultSpace),
		errors.Is(err, ErrNoLiquidityPosition):
		return KindPrecondition

	case errors.Is(err, ErrNonPositiveInitialCost),
		errors.Is(err, ErrDepositTooSmall),
		errors.Is(err, ErrValueMismatch),
		errors.Is(err, ErrExcessiveSlippage),
		errors.Is(err, ErrInsufficientInventory),
		errors.Is(err, ErrInsufficientOutBalance),
		errors.Is(err, ErrInsufficientPullableBalance),
		errors.Is(err, bucket.ErrInsufficientShares):
		return KindEconomic

	case errors.Is(err, ErrAlreadyResolved),
		errors.Is(err, ErrNotWinningSide),
		errors.Is(err, ErrAlreadyWithdrawn):
		return KindState

	case errors.Is(err, numeric.ErrDivideByZero),
		errors.Is(err, pricing.ErrEmptyPool),
		errors.Is(err, bucket.ErrLedgerUnderflow):
		return KindArithmetic
	}
	return KindUnknown
}
