package entities

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("entity not found")
	ErrInvalidCurrency  = errors.New("invalid currency code")
	ErrInvalidAmount    = errors.New("amount must be non-negative")
	ErrCacheUnavailable = errors.New("rate cache is not available")
	ErrUpstream         = errors.New("external api connection error")
	ErrRedisTimeout     = errors.New("timeout waiting for Redis message")
	ErrRedisCanceled    = errors.New("redis subscription canceled")
)

// InvalidCurrencyError names the first code that failed catalog validation.
type InvalidCurrencyError struct {
	Code string
}

func NewInvalidCurrency(code string) *InvalidCurrencyError {
	return &InvalidCurrencyError{Code: code}
}

func (e *InvalidCurrencyError) Error() string {
	return fmt.Sprintf("invalid currency code %q provided", e.Code)
}

func (e *InvalidCurrencyError) Is(target error) bool {
	return target == ErrInvalidCurrency
}
