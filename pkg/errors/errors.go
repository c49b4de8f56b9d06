// Package errors provides common, reusable error values and helpers.
package errors

import (
	"errors"
	"fmt"
)

// Record errors
var (
	ErrForecastNotFound = errors.New("forecast not found")
	ErrStakeNotFound    = errors.New("stake not found")
	ErrTradeNotFound    = errors.New("trade not found")
	ErrVersionConflict  = errors.New("record version conflict")
)

// Flow errors
var (
	ErrAmountBelowMinimum = errors.New("amount below minimum stake")
	ErrUserRejected       = errors.New("transaction rejected by user")
	ErrPriceUnavailable   = errors.New("oracle price update unavailable")
	ErrBridgeUnavailable  = errors.New("bridge sdk not initialized")
	ErrFlowBusy           = errors.New("another flow is already in progress")
)

// Chain errors
var (
	ErrChainNotConfigured = errors.New("chain rpc not configured")
	ErrTxReverted         = errors.New("transaction reverted")
)

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
