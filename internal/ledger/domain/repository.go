package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// Repository is the ledger's storage adapter. All reads that feed a
// balance-changing decision take a lock flag so the service can request
// SELECT ... FOR UPDATE for the five primitives while readers stay
// lock-free (spec §4.3 concurrency contract).
type Repository interface {
	// FindActiveBatches returns ACTIVE, non-expired batches for
	// (userID, productID) ordered by created_at ascending, id tie-break.
	FindActiveBatches(ctx context.Context, db *gorm.DB, userID, productID snowflake.ID, now time.Time, lock bool) ([]QuotaBatch, error)

	// FindActiveBatchesByOrderItems returns ACTIVE batches linked to any
	// of the given order item ids, for REVOKE.
	FindActiveBatchesByOrderItems(ctx context.Context, db *gorm.DB, orderItemIDs []snowflake.ID, lock bool) ([]QuotaBatch, error)

	InsertBatch(ctx context.Context, db *gorm.DB, b *QuotaBatch) error
	SaveBatch(ctx context.Context, db *gorm.DB, b *QuotaBatch) error

	InsertTransaction(ctx context.Context, db *gorm.DB, t *Transaction) error

	// FindTransactionByIdempotencyKey looks up a prior Transaction for the
	// idempotency replay check of CONSUME step 1.
	FindTransactionByIdempotencyKey(ctx context.Context, db *gorm.DB, userID snowflake.ID, actionType, idempotencyKey string) (*Transaction, error)

	// SumActiveRemaining returns the ACTIVE non-expired remaining quantity
	// for (userID, productID), for GET_BALANCE.
	SumActiveRemaining(ctx context.Context, db *gorm.DB, userID, productID snowflake.ID, now time.Time) (int64, error)

	// SumWallet returns product_id -> remaining total across ACTIVE
	// non-expired batches for userID, for GET_WALLET.
	SumWallet(ctx context.Context, db *gorm.DB, userID snowflake.ID, now time.Time) (map[snowflake.ID]int64, error)

	// ExpireActiveBatches marks every ACTIVE batch with expires_at <= now
	// as EXPIRED in one update, returning the number of rows affected.
	ExpireActiveBatches(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)

	FindBatchByID(ctx context.Context, db *gorm.DB, id ulid.ULID) (*QuotaBatch, error)

	// ListActiveBatches returns every ACTIVE non-expired batch for userID,
	// optionally narrowed to one productID, newest-created last within each
	// product (FIFO order), for GET /user-products and GET /wallet/batches.
	ListActiveBatches(ctx context.Context, db *gorm.DB, userID snowflake.ID, productID *snowflake.ID, now time.Time) ([]QuotaBatch, error)

	// ListTransactions returns userID's Transaction history, newest first,
	// filtered by the given TransactionFilter and capped at filter.Limit.
	ListTransactions(ctx context.Context, db *gorm.DB, userID snowflake.ID, filter TransactionFilter) ([]Transaction, error)
}

// TransactionFilter narrows GET /wallet/transactions (spec §6).
type TransactionFilter struct {
	ProductID  *snowflake.ID
	ActionType string
	DateFrom   *time.Time
	Limit      int
}
