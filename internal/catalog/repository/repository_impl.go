// Package repository is the catalog's storage adapter, grounded on
// internal/product/repository in smallbiznis-valora (raw-SQL reads behind
// an interface-driven Repository).
package repository

import (
	"context"
	"errors"

	catalogdomain "github.com/railzway/billing/internal/catalog/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

// Provide constructs the catalog Repository for fx wiring.
func Provide() catalogdomain.Repository {
	return &repo{}
}

func (r *repo) FindProductByKey(ctx context.Context, db *gorm.DB, key string) (*catalogdomain.Product, error) {
	var p catalogdomain.Product
	if err := db.WithContext(ctx).Where("product_key = ?", key).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repo) ListActiveProducts(ctx context.Context, db *gorm.DB) ([]catalogdomain.Product, error) {
	var products []catalogdomain.Product
	if err := db.WithContext(ctx).Where("is_active = ?", true).Order("product_key").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repo) InsertProduct(ctx context.Context, db *gorm.DB, p *catalogdomain.Product) error {
	return db.WithContext(ctx).Create(p).Error
}

func (r *repo) FindOfferBySKU(ctx context.Context, db *gorm.DB, sku string, activeOnly bool) (*catalogdomain.Offer, error) {
	stmt := db.WithContext(ctx).Preload("Items").Preload("Items.Product").Where("sku = ?", sku)
	if activeOnly {
		stmt = stmt.Where("is_active = ?", true)
	}
	var offer catalogdomain.Offer
	if err := stmt.First(&offer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &offer, nil
}

func (r *repo) FindOfferByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*catalogdomain.Offer, error) {
	var offer catalogdomain.Offer
	if err := db.WithContext(ctx).Preload("Items").Preload("Items.Product").Where("id = ?", id).First(&offer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &offer, nil
}

func (r *repo) ListOffersBySKUs(ctx context.Context, db *gorm.DB, skus []string) ([]catalogdomain.Offer, error) {
	if len(skus) == 0 {
		return nil, nil
	}
	var offers []catalogdomain.Offer
	if err := db.WithContext(ctx).Preload("Items").Preload("Items.Product").
		Where("sku IN ? AND is_active = ?", skus, true).Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *repo) ListActiveOffers(ctx context.Context, db *gorm.DB) ([]catalogdomain.Offer, error) {
	var offers []catalogdomain.Offer
	if err := db.WithContext(ctx).Preload("Items").Preload("Items.Product").
		Where("is_active = ?", true).Order("sku").Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *repo) InsertOffer(ctx context.Context, db *gorm.DB, o *catalogdomain.Offer) error {
	return db.WithContext(ctx).Omit("Items").Create(o).Error
}

func (r *repo) InsertOfferItem(ctx context.Context, db *gorm.DB, item *catalogdomain.OfferItem) error {
	return db.WithContext(ctx).Create(item).Error
}

func (r *repo) ExistsInSharedNamespace(ctx context.Context, db *gorm.DB, key string) (bool, error) {
	var productCount int64
	if err := db.WithContext(ctx).Model(&catalogdomain.Product{}).Where("product_key = ?", key).Count(&productCount).Error; err != nil {
		return false, err
	}
	if productCount > 0 {
		return true, nil
	}

	var offerCount int64
	if err := db.WithContext(ctx).Model(&catalogdomain.Offer{}).Where("sku = ?", key).Count(&offerCount).Error; err != nil {
		return false, err
	}
	return offerCount > 0, nil
}
