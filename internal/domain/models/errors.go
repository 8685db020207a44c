package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientHistory means fewer bars than the longest required lookback.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrInvalidConfiguration means a strategy or classifier setting is out of range.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrDataUnavailable means the price history could not be retrieved.
	ErrDataUnavailable = errors.New("data unavailable")
)

// InsufficientHistoryError reports how many bars were available and required.
type InsufficientHistoryError struct {
	Have int
	Need int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history: have %d bars, need %d", e.Have, e.Need)
}

func (e *InsufficientHistoryError) Is(target error) bool {
	return target == ErrInsufficientHistory
}

// ConfigError reports a rejected configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration: %s", e.Reason)
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// DataUnavailableError carries the symbol, period and the original cause.
type DataUnavailableError struct {
	Symbol string
	Period string
	Cause  error
}

func (e *DataUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("no price data for %s (%s): %v", e.Symbol, e.Period, e.Cause)
	}
	return fmt.Sprintf("no price data for %s (%s)", e.Symbol, e.Period)
}

func (e *DataUnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Cause
}
