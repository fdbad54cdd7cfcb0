// Package repository is the ledger's storage adapter, grounded on
// internal/ledger/repository in smallbiznis-valora (raw-SQL inserts behind
// row-locked reads) but retargeted at QuotaBatch/Transaction instead of
// LedgerEntry/LedgerEntryLine.
package repository

import (
	"context"
	"errors"
	"time"

	ledgerdomain "github.com/railzway/billing/internal/ledger/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

// Provide constructs the ledger Repository for fx wiring.
func Provide() ledgerdomain.Repository {
	return &repo{}
}

func (r *repo) FindActiveBatches(ctx context.Context, db *gorm.DB, userID, productID snowflake.ID, now time.Time, lock bool) ([]ledgerdomain.QuotaBatch, error) {
	stmt := db.WithContext(ctx).
		Where("user_id = ? AND product_id = ? AND state = ?", userID, productID, ledgerdomain.BatchActive).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("created_at ASC, id ASC")
	if lock {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var batches []ledgerdomain.QuotaBatch
	if err := stmt.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *repo) FindActiveBatchesByOrderItems(ctx context.Context, db *gorm.DB, orderItemIDs []snowflake.ID, lock bool) ([]ledgerdomain.QuotaBatch, error) {
	if len(orderItemIDs) == 0 {
		return nil, nil
	}
	stmt := db.WithContext(ctx).
		Where("order_item_id IN ? AND state = ?", orderItemIDs, ledgerdomain.BatchActive).
		Order("created_at ASC, id ASC")
	if lock {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var batches []ledgerdomain.QuotaBatch
	if err := stmt.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *repo) InsertBatch(ctx context.Context, db *gorm.DB, b *ledgerdomain.QuotaBatch) error {
	return db.WithContext(ctx).Create(b).Error
}

func (r *repo) SaveBatch(ctx context.Context, db *gorm.DB, b *ledgerdomain.QuotaBatch) error {
	return db.WithContext(ctx).Model(&ledgerdomain.QuotaBatch{}).
		Where("id = ?", b.ID).
		Updates(map[string]any{
			"remaining_quantity": b.RemainingQuantity,
			"state":              b.State,
		}).Error
}

func (r *repo) InsertTransaction(ctx context.Context, db *gorm.DB, t *ledgerdomain.Transaction) error {
	return db.WithContext(ctx).Create(t).Error
}

func (r *repo) FindTransactionByIdempotencyKey(ctx context.Context, db *gorm.DB, userID snowflake.ID, actionType, idempotencyKey string) (*ledgerdomain.Transaction, error) {
	var t ledgerdomain.Transaction
	err := db.WithContext(ctx).
		Where("user_id = ? AND action_type = ? AND idempotency_key = ?", userID, actionType, idempotencyKey).
		Order("created_at ASC").
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *repo) SumActiveRemaining(ctx context.Context, db *gorm.DB, userID, productID snowflake.ID, now time.Time) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&ledgerdomain.QuotaBatch{}).
		Where("user_id = ? AND product_id = ? AND state = ?", userID, productID, ledgerdomain.BatchActive).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Select("COALESCE(SUM(remaining_quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repo) SumWallet(ctx context.Context, db *gorm.DB, userID snowflake.ID, now time.Time) (map[snowflake.ID]int64, error) {
	type row struct {
		ProductID snowflake.ID
		Total     int64
	}
	var rows []row
	err := db.WithContext(ctx).Model(&ledgerdomain.QuotaBatch{}).
		Where("user_id = ? AND state = ?", userID, ledgerdomain.BatchActive).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Select("product_id, COALESCE(SUM(remaining_quantity), 0) AS total").
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[snowflake.ID]int64, len(rows))
	for _, r := range rows {
		out[r.ProductID] = r.Total
	}
	return out, nil
}

func (r *repo) ExpireActiveBatches(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Model(&ledgerdomain.QuotaBatch{}).
		Where("state = ? AND expires_at IS NOT NULL AND expires_at <= ?", ledgerdomain.BatchActive, now).
		Update("state", ledgerdomain.BatchExpired)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repo) FindBatchByID(ctx context.Context, db *gorm.DB, id ulid.ULID) (*ledgerdomain.QuotaBatch, error) {
	var b ledgerdomain.QuotaBatch
	if err := db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *repo) ListActiveBatches(ctx context.Context, db *gorm.DB, userID snowflake.ID, productID *snowflake.ID, now time.Time) ([]ledgerdomain.QuotaBatch, error) {
	stmt := db.WithContext(ctx).
		Where("user_id = ? AND state = ?", userID, ledgerdomain.BatchActive).
		Where("expires_at IS NULL OR expires_at > ?", now)
	if productID != nil {
		stmt = stmt.Where("product_id = ?", *productID)
	}
	var batches []ledgerdomain.QuotaBatch
	if err := stmt.Order("created_at ASC, id ASC").Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *repo) ListTransactions(ctx context.Context, db *gorm.DB, userID snowflake.ID, filter ledgerdomain.TransactionFilter) ([]ledgerdomain.Transaction, error) {
	stmt := db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.ProductID != nil {
		stmt = stmt.Where("quota_batch_id IN (?)", db.Model(&ledgerdomain.QuotaBatch{}).Select("id").Where("product_id = ?", *filter.ProductID))
	}
	if filter.ActionType != "" {
		stmt = stmt.Where("action_type = ?", filter.ActionType)
	}
	if filter.DateFrom != nil {
		stmt = stmt.Where("created_at >= ?", *filter.DateFrom)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	var txns []ledgerdomain.Transaction
	if err := stmt.Order("created_at DESC, id DESC").Limit(limit).Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
