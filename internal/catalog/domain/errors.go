package domain

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOfferNotFound   = errors.New("offer not found")
	ErrSharedNamespace = errors.New("product_key and sku share one namespace and must not collide")
	ErrNotCurrency     = errors.New("product is not designated as currency")
)
