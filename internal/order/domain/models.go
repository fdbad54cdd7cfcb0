package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Status tracks an Order's lifecycle (spec §4.4).
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusRefunded  Status = "REFUNDED"
	StatusCancelled Status = "CANCELLED"
)

// Order is a purchase of one or more Offers by a user (spec §3/§4.4).
type Order struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID        snowflake.ID      `gorm:"column:user_id;not null;index" json:"user_id"`
	TotalAmount   decimal.Decimal   `gorm:"column:total_amount;type:numeric(20,6);not null" json:"total_amount"`
	Currency      string            `gorm:"column:currency;not null;default:''" json:"currency"`
	Status        Status            `gorm:"column:status;not null" json:"status"`
	PaymentMethod string            `gorm:"column:payment_method;not null;default:''" json:"payment_method,omitempty"`
	PaymentID     *string           `gorm:"column:payment_id" json:"payment_id,omitempty"`
	Metadata      datatypes.JSONMap `gorm:"column:metadata;type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	Items         []OrderItem       `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt     time.Time         `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	PaidAt        *time.Time        `gorm:"column:paid_at" json:"paid_at,omitempty"`
}

func (Order) TableName() string { return "orders" }

// OrderItem is one purchased Offer line within an Order.
type OrderItem struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrderID   snowflake.ID    `gorm:"column:order_id;not null;index" json:"order_id"`
	OfferID   snowflake.ID    `gorm:"column:offer_id;not null" json:"offer_id"`
	Quantity  int64           `gorm:"column:quantity;not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(20,6);not null" json:"price"`
	CreatedAt time.Time       `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (OrderItem) TableName() string { return "order_items" }
