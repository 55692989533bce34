package models

import (
	"errors"
	"fmt"
)

var (
	// ErrCoinNotFound means the query resolved to no coin or the coin's data could not be fetched.
	ErrCoinNotFound = errors.New("coin not found")

	// ErrRateLimited means the market data provider refused the call for quota reasons.
	ErrRateLimited = errors.New("market data rate limited")

	// ErrMarketData is any other market data failure.
	ErrMarketData = errors.New("market data unavailable")

	ErrEmptyMessage     = errors.New("message is empty")
	ErrHoldingNotFound  = errors.New("holding not found")
	ErrStatsUnavailable = errors.New("event stats not configured")
)

// MarketDataError describes a failed market data call.
// Err is one of the sentinels above, Cause the underlying failure.
type MarketDataError struct {
	Op     string
	Query  string
	Status int
	Err    error
	Cause  error
}

func (e *MarketDataError) Error() string {
	msg := fmt.Sprintf("%s %q: %v", e.Op, e.Query, e.Err)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *MarketDataError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}
