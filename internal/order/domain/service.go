package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// ItemInput is one requested {sku, quantity} line for CREATE, with an
// optional caller-supplied price override (spec §4.4: "price frozen at
// offer.price unless caller supplies one").
type ItemInput struct {
	SKU      string
	Quantity int64
	Price    *decimal.Decimal
}

// Service is the order lifecycle: CREATE/CONFIRM/REFUND/CANCEL, composing
// the ledger's GRANT/REVOKE through the ledger package's own interface
// (spec §4.4). It never writes QuotaBatch/Transaction directly.
type Service interface {
	Create(ctx context.Context, userID snowflake.ID, items []ItemInput, metadata map[string]any) (*Order, error)
	Confirm(ctx context.Context, orderID snowflake.ID, paymentID, paymentMethod string) (*Order, error)
	Refund(ctx context.Context, orderID snowflake.ID, reason string) (*Order, error)
	Cancel(ctx context.Context, orderID snowflake.ID, reason string) (*Order, error)
	Get(ctx context.Context, orderID snowflake.ID) (*Order, error)
}
