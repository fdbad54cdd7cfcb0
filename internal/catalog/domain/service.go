package domain

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
)

// Service exposes read-only catalog operations plus the minimal admin
// writes needed to enforce the shared-namespace invariant at creation
// time (spec §9 Design Note: "enforced both at write time ... and
// indirectly by EXCHANGE").
type Service interface {
	GetProduct(ctx context.Context, key string) (*Product, error)
	// GetProductAnyStatus resolves a product_key regardless of is_active,
	// for internal callers (CONSUME on already-granted quota, EXCHANGE's
	// currency resolution) that must not be blocked by a later deactivation.
	GetProductAnyStatus(ctx context.Context, key string) (*Product, error)
	ListActiveProducts(ctx context.Context) ([]Product, error)

	GetActiveOffer(ctx context.Context, sku string) (*Offer, error)
	// GetOfferAnyStatus returns an active offer if one exists, otherwise
	// falls back to an inactive offer with the same SKU (spec §4.4 CREATE).
	GetOfferAnyStatus(ctx context.Context, sku string) (*Offer, error)
	// ListOffersPreservingOrder resolves each sku in order, omitting any
	// that do not match an active offer, without raising an error.
	ListOffersPreservingOrder(ctx context.Context, skus []string) ([]Offer, error)
	ListActiveOffers(ctx context.Context) ([]Offer, error)
	// GetOfferByID resolves by primary key regardless of status, for
	// internal callers (Order CONFIRM re-granting an already-purchased
	// offer) that must not be blocked by a later deactivation.
	GetOfferByID(ctx context.Context, id snowflake.ID) (*Offer, error)

	CreateProduct(ctx context.Context, p *Product) error
	CreateOffer(ctx context.Context, o *Offer, items []OfferItem) (*Offer, error)
}

// Normalize upper-cases a caller-supplied key/SKU per spec §6's
// normalization rule. Idempotent and commutative with lookup.
func Normalize(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// DeriveKeyFromName produces a namespace key for a product whose caller
// did not supply one explicitly, e.g. demo fixtures and admin CSV
// imports that only carry a display name.
func DeriveKeyFromName(name string) string {
	return Normalize(slug.Make(name))
}
