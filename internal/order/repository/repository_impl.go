// Package repository is the order storage adapter, grounded on
// internal/product/repository's raw-GORM-calls-behind-an-interface shape.
package repository

import (
	"context"
	"errors"

	orderdomain "github.com/railzway/billing/internal/order/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

// Provide constructs the order Repository for fx wiring.
func Provide() orderdomain.Repository {
	return &repo{}
}

func (r *repo) InsertOrder(ctx context.Context, db *gorm.DB, o *orderdomain.Order) error {
	return db.WithContext(ctx).Omit("Items").Create(o).Error
}

func (r *repo) InsertOrderItem(ctx context.Context, db *gorm.DB, item *orderdomain.OrderItem) error {
	return db.WithContext(ctx).Create(item).Error
}

func (r *repo) FindOrderByID(ctx context.Context, db *gorm.DB, id snowflake.ID, lock bool) (*orderdomain.Order, error) {
	stmt := db.WithContext(ctx).Where("id = ?", id)
	if lock {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var o orderdomain.Order
	if err := stmt.First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *repo) SaveOrder(ctx context.Context, db *gorm.DB, o *orderdomain.Order) error {
	return db.WithContext(ctx).Model(&orderdomain.Order{}).
		Where("id = ?", o.ID).
		Updates(map[string]any{
			"status":         o.Status,
			"payment_id":     o.PaymentID,
			"payment_method": o.PaymentMethod,
			"paid_at":        o.PaidAt,
			"metadata":       o.Metadata,
		}).Error
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]orderdomain.OrderItem, error) {
	var items []orderdomain.OrderItem
	if err := db.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
