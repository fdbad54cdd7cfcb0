package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ProductType distinguishes how a Product's quota behaves.
type ProductType string

const (
	ProductTypePeriod    ProductType = "PERIOD"
	ProductTypeQuantity  ProductType = "QUANTITY"
	ProductTypeUnlimited ProductType = "UNLIMITED"
)

func (t ProductType) Valid() bool {
	switch t {
	case ProductTypePeriod, ProductTypeQuantity, ProductTypeUnlimited:
		return true
	default:
		return false
	}
}

// PeriodUnit is the unit in which an OfferItem's grant duration is expressed.
type PeriodUnit string

const (
	PeriodHours   PeriodUnit = "HOURS"
	PeriodDays    PeriodUnit = "DAYS"
	PeriodMonths  PeriodUnit = "MONTHS"
	PeriodYears   PeriodUnit = "YEARS"
	PeriodForever PeriodUnit = "FOREVER"
)

func (u PeriodUnit) Valid() bool {
	switch u {
	case PeriodHours, PeriodDays, PeriodMonths, PeriodYears, PeriodForever:
		return true
	default:
		return false
	}
}

// Product is the unit of accounting (spec §3).
type Product struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	ProductKey *string           `gorm:"column:product_key;uniqueIndex" json:"product_key,omitempty"`
	Name       string            `gorm:"column:name;not null" json:"name"`
	ProductType ProductType      `gorm:"column:product_type;not null" json:"product_type"`
	IsActive   bool              `gorm:"column:is_active;not null" json:"is_active"`
	IsCurrency bool              `gorm:"column:is_currency;not null;default:false" json:"is_currency"`
	Metadata   datatypes.JSONMap `gorm:"column:metadata;type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// Offer is a sellable bundle (spec §3).
type Offer struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	SKU       string            `gorm:"column:sku;not null;uniqueIndex" json:"sku"`
	Name      string            `gorm:"column:name;not null" json:"name"`
	Price     decimal.Decimal   `gorm:"column:price;type:numeric(20,6);not null" json:"price"`
	Currency  string            `gorm:"column:currency;not null;default:''" json:"currency"`
	IsActive  bool              `gorm:"column:is_active;not null" json:"is_active"`
	Metadata  datatypes.JSONMap `gorm:"column:metadata;type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	Items     []OfferItem       `gorm:"foreignKey:OfferID" json:"items,omitempty"`
	CreatedAt time.Time         `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Offer) TableName() string { return "offers" }

// OfferItem composes a Product into an Offer with a grant duration.
type OfferItem struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OfferID     snowflake.ID `gorm:"column:offer_id;not null;index" json:"offer_id"`
	ProductID   snowflake.ID `gorm:"column:product_id;not null" json:"product_id"`
	Product     *Product     `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity    int64        `gorm:"column:quantity;not null" json:"quantity"`
	PeriodUnit  PeriodUnit   `gorm:"column:period_unit;not null" json:"period_unit"`
	PeriodValue *int64       `gorm:"column:period_value" json:"period_value,omitempty"`
	CreatedAt   time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (OfferItem) TableName() string { return "offer_items" }
