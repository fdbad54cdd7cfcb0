package domain

import "errors"

var (
	ErrEmptyItems       = errors.New("order must have at least one item")
	ErrOfferNotFound    = errors.New("offer not found for one or more order items")
	ErrOrderNotFound    = errors.New("order not found")
	ErrNotPending       = errors.New("order is not in a payable state")
	ErrNotPaid          = errors.New("order has not been paid")
	ErrAlreadyRefunded  = errors.New("order has already been refunded")
	ErrAlreadyCancelled = errors.New("order has already been cancelled")
)
