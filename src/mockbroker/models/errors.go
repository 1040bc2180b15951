package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotConnected             = fmt.Errorf("mock account is not connected")
	ErrUnsupportedPlaybackSpeed = fmt.Errorf("unsupported playback speed")
	ErrInvalidOrder             = fmt.Errorf("invalid order")
	ErrInvalidPrice             = fmt.Errorf("invalid order: price must be greater than 0")
	ErrInvalidQuantity          = fmt.Errorf("invalid order: quantity must be greater than 0")
	ErrDailyCapExceeded         = fmt.Errorf("daily notional cap exceeded")
	ErrInsufficientBalance      = fmt.Errorf("insufficient balance")
	ErrInsufficientInventory    = fmt.Errorf("insufficient inventory")
	ErrOrderNotFound            = fmt.Errorf("order not found")
	ErrOrderAlreadyFilled       = fmt.Errorf("order already filled")
	ErrOrderAlreadyCancelled    = fmt.Errorf("order already cancelled")
	ErrNoHistoricalData         = fmt.Errorf("no historical data available")
)

// ProviderError is returned by historical data sources. The cache converts it
// into an empty series and never hands it to callers of the engine.
type ProviderError struct {
	Source string
	Symbol string
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed for %s: %v", e.Source, e.Symbol, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewProviderError(source, symbol string, err error) *ProviderError {
	return &ProviderError{Source: source, Symbol: symbol, Err: err}
}

// PersistenceError is returned by state stores when the account document
// cannot be read or written.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func NewPersistenceError(op, path string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Path: path, Err: err}
}

func IsPersistenceError(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}
