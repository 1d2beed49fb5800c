package ledger

import (
	"errors"

	"poolLedger/internal/clmath"
)

var (
	ErrUnknownPool        = errors.New("event for uninitialized pool")
	ErrPoolExists         = errors.New("pool already initialized")
	ErrUnknownPosition    = errors.New("withdrawal from unknown position")
	ErrReserveUnderflow   = errors.New("reserve would become negative")
	ErrLiquidityUnderflow = errors.New("liquidity would become negative")
	ErrStaleEvent         = errors.New("event at or before cursor")
	ErrPoolHalted         = errors.New("pool halted")
	ErrInvalidEvent       = errors.New("invalid event")
	ErrTickMismatch       = errors.New("tick inconsistent with sqrt price")
)

// Outcome labels reported per applied event.
const (
	OutcomeApplied = "applied"
	OutcomeStale   = "stale"
	OutcomeSkipped = "skipped"
	OutcomeHalted  = "halted"
	OutcomeDomain  = "domain_error"
	OutcomeInvalid = "invalid"
)

// IsDomainError reports errors raised by the range math. They halt the pool.
func IsDomainError(err error) bool {
	return errors.Is(err, clmath.ErrTickOutOfRange) ||
		errors.Is(err, clmath.ErrSqrtPriceOutOfRange) ||
		errors.Is(err, clmath.ErrInvalidRange) ||
		errors.Is(err, clmath.ErrSqrtPriceZero) ||
		errors.Is(err, clmath.ErrNegativeLiquidity) ||
		errors.Is(err, ErrTickMismatch)
}

// IsOrderingViolation reports events that reference state the fold has not
// produced (or would drive negative). They are skipped.
func IsOrderingViolation(err error) bool {
	return errors.Is(err, ErrUnknownPool) ||
		errors.Is(err, ErrPoolExists) ||
		errors.Is(err, ErrUnknownPosition) ||
		errors.Is(err, ErrReserveUnderflow) ||
		errors.Is(err, ErrLiquidityUnderflow)
}

// Outcome classifies an Apply result.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeApplied
	case errors.Is(err, ErrStaleEvent):
		return OutcomeStale
	case errors.Is(err, ErrPoolHalted):
		return OutcomeHalted
	case IsDomainError(err):
		return OutcomeDomain
	case IsOrderingViolation(err):
		return OutcomeSkipped
	default:
		return OutcomeInvalid
	}
}
