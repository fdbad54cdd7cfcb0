package domain

import "errors"

var (
	ErrQuotaExhausted    = errors.New("quota_exhausted")
	ErrInsufficientFunds = errors.New("insufficient_funds")
	ErrOfferEmpty        = errors.New("offer has no items to grant")
	ErrNotCurrency       = errors.New("offer currency does not resolve to a currency product")
	ErrInvalidAmount     = errors.New("amount must be positive")
)
