package domain

import (
	"context"
	"time"

	catalogdomain "github.com/railzway/billing/internal/catalog/domain"
	"github.com/bwmarrin/snowflake"
)

// ConsumeResult is the reply contract of CONSUME (spec §4.3.2), shared
// between a freshly-debited call and an idempotent replay.
type ConsumeResult struct {
	TransactionID string
	Remaining     int64
	Metadata      map[string]any
	Replayed      bool
}

// Service is the ledger core: the five balance-changing primitives of
// spec §4.3, each wrapped in one database transaction with row-locks on
// the affected QuotaBatches.
type Service interface {
	// Grant implements GRANT(user, offer, source, source_trace?, metadata?).
	// offer must have its Items preloaded. orderItemID is the source_trace
	// when invoked from an Order; multiplier scales each item's quantity
	// (the order line's own quantity).
	Grant(ctx context.Context, userID snowflake.ID, offer *catalogdomain.Offer, orderItemID *snowflake.ID, multiplier int64, source string, metadata map[string]any) ([]QuotaBatch, error)

	// Consume implements CONSUME(user, product_key, amount, action_type, ...).
	Consume(ctx context.Context, userID snowflake.ID, productKey string, amount int64, actionType string, actionID, idempotencyKey *string, metadata map[string]any) (*ConsumeResult, error)

	// Expire implements EXPIRE(): sweeps all ACTIVE batches whose
	// expires_at has passed into EXPIRED, returning the count updated.
	Expire(ctx context.Context) (int64, error)

	// Revoke implements REVOKE(order, reason): zeroes every ACTIVE batch
	// linked to the order's OrderItems, debiting the remainder.
	Revoke(ctx context.Context, orderID snowflake.ID, reason string) (int64, error)

	// Exchange implements EXCHANGE(user, offer, metadata?): consumes
	// offer.currency as a product key for int(offer.price), then grants
	// offer, all inside one transaction.
	Exchange(ctx context.Context, userID snowflake.ID, offer *catalogdomain.Offer, metadata map[string]any) ([]QuotaBatch, error)

	// GetBalance implements GET_BALANCE(user, product_key).
	GetBalance(ctx context.Context, userID snowflake.ID, productKey string) (int64, error)

	// GetWallet implements GET_WALLET(user): product_key -> total.
	GetWallet(ctx context.Context, userID snowflake.ID) (map[string]int64, error)

	// ListActiveBatches backs GET /user-products and GET /wallet/batches,
	// optionally narrowed to one product_key.
	ListActiveBatches(ctx context.Context, userID snowflake.ID, productKey *string) ([]QuotaBatch, error)

	// ListTransactions backs GET /wallet/transactions: history filterable by
	// product_key/action_type/date_from, newest-first, capped at 100.
	ListTransactions(ctx context.Context, userID snowflake.ID, productKey, actionType string, dateFrom *time.Time) ([]Transaction, error)
}
