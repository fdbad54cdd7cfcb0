package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the storage adapter slice the catalog service owns.
// Catalog tables are read-mostly (spec §5); writes go through the admin
// path and are not coordinated with live traffic.
type Repository interface {
	FindProductByKey(ctx context.Context, db *gorm.DB, key string) (*Product, error)
	ListActiveProducts(ctx context.Context, db *gorm.DB) ([]Product, error)
	InsertProduct(ctx context.Context, db *gorm.DB, p *Product) error

	FindOfferBySKU(ctx context.Context, db *gorm.DB, sku string, activeOnly bool) (*Offer, error)
	FindOfferByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Offer, error)
	ListOffersBySKUs(ctx context.Context, db *gorm.DB, skus []string) ([]Offer, error)
	ListActiveOffers(ctx context.Context, db *gorm.DB) ([]Offer, error)
	InsertOffer(ctx context.Context, db *gorm.DB, o *Offer) error
	InsertOfferItem(ctx context.Context, db *gorm.DB, item *OfferItem) error

	// ExistsInSharedNamespace reports whether key is already taken by a
	// Product's product_key or an Offer's sku, enforcing the disjoint
	// namespace invariant of spec §3.
	ExistsInSharedNamespace(ctx context.Context, db *gorm.DB, key string) (bool, error)
}
