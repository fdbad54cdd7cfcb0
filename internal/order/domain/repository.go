package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the order storage adapter.
type Repository interface {
	InsertOrder(ctx context.Context, db *gorm.DB, o *Order) error
	InsertOrderItem(ctx context.Context, db *gorm.DB, item *OrderItem) error

	// FindOrderByID optionally row-locks, for CONFIRM/REFUND/CANCEL's
	// serialization requirement.
	FindOrderByID(ctx context.Context, db *gorm.DB, id snowflake.ID, lock bool) (*Order, error)
	SaveOrder(ctx context.Context, db *gorm.DB, o *Order) error

	ListItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]OrderItem, error)
}
