// Package service implements the ledger core: GRANT, CONSUME, EXPIRE,
// REVOKE, EXCHANGE. Grounded on internal/ledger/service in
// smallbiznis-valora for the transaction-wrapped, row-locked,
// fx.In-parameterized shape; the accounting model itself (FIFO
// single-entry batches instead of a double-entry chart of accounts) is
// grounded on original_source/billable/services/transaction_service.py.
package service

import (
	"context"
	"fmt"
	"time"

	catalogdomain "github.com/railzway/billing/internal/catalog/domain"
	"github.com/railzway/billing/internal/clock"
	"github.com/railzway/billing/internal/events"
	ledgerdomain "github.com/railzway/billing/internal/ledger/domain"
	"github.com/railzway/billing/internal/observability/metrics"
	"github.com/railzway/billing/pkg/idgen"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	IDs     *idgen.ULIDGenerator
	Repo    ledgerdomain.Repository
	Catalog catalogdomain.Service
	Bus     *events.Bus
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	ids     *idgen.ULIDGenerator
	repo    ledgerdomain.Repository
	catalog catalogdomain.Service
	bus     *events.Bus
	metrics *metrics.Metrics
}

// New constructs the ledger Service for fx wiring.
func New(p Params) ledgerdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("ledger.service"),
		clock:   p.Clock,
		ids:     p.IDs,
		repo:    p.Repo,
		catalog: p.Catalog,
		bus:     p.Bus,
		metrics: p.Metrics,
	}
}

// recordOp times a ledger primitive and records its outcome, grounded on
// the obsmetrics.Metrics.RecordLedgerEntry call site in the teacher's own
// ledger service.
func (s *Service) recordOp(operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.metrics.RecordLedgerOp(operation, outcome, time.Since(start))
}

// Grant implements spec §4.3.1. offer.Items must already be preloaded.
func (s *Service) Grant(ctx context.Context, userID snowflake.ID, offer *catalogdomain.Offer, orderItemID *snowflake.ID, multiplier int64, source string, metadata map[string]any) (result []ledgerdomain.QuotaBatch, err error) {
	start := time.Now()
	defer func() { s.recordOp("grant", start, err) }()

	if offer == nil || len(offer.Items) == 0 {
		return nil, ledgerdomain.ErrOfferEmpty
	}
	if multiplier <= 0 {
		multiplier = 1
	}

	var created []ledgerdomain.QuotaBatch
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		batches, err := s.grantTx(ctx, tx, userID, offer, orderItemID, multiplier, source, metadata)
		if err != nil {
			return err
		}
		created = batches
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, b := range created {
		s.bus.Publish(ctx, events.Event{
			Type: events.TransactionCreated,
			Payload: map[string]any{
				"user_id":        userID.String(),
				"quota_batch_id": b.ID.String(),
				"action_type":    source,
				"direction":      string(ledgerdomain.DirectionCredit),
				"amount":         b.InitialQuantity,
			},
		})
	}
	return created, nil
}

func (s *Service) grantTx(ctx context.Context, tx *gorm.DB, userID snowflake.ID, offer *catalogdomain.Offer, orderItemID *snowflake.ID, multiplier int64, source string, metadata map[string]any) ([]ledgerdomain.QuotaBatch, error) {
	now := s.clock.Now()
	batches := make([]ledgerdomain.QuotaBatch, 0, len(offer.Items))

	for _, item := range offer.Items {
		var periodValue int64
		if item.PeriodValue != nil {
			periodValue = *item.PeriodValue
		}
		exp := expiresAt(now, item.PeriodUnit, periodValue)

		total := item.Quantity * multiplier

		batch := ledgerdomain.QuotaBatch{
			ID:                s.ids.New(now),
			UserID:            userID,
			ProductID:         item.ProductID,
			SourceOfferID:     &offer.ID,
			OrderItemID:       orderItemID,
			InitialQuantity:   total,
			RemainingQuantity: total,
			ValidFrom:         now,
			ExpiresAt:         exp,
			State:             ledgerdomain.BatchActive,
			Metadata:          datatypes.JSONMap{},
			CreatedAt:         now,
		}
		if err := s.repo.InsertBatch(ctx, tx, &batch); err != nil {
			return nil, err
		}

		txMetadata := cloneMetadata(metadata)
		txn := ledgerdomain.Transaction{
			ID:           s.ids.New(now),
			UserID:       userID,
			QuotaBatchID: batch.ID,
			Amount:       total,
			Direction:    ledgerdomain.DirectionCredit,
			ActionType:   source,
			Metadata:     datatypes.JSONMap(txMetadata),
			CreatedAt:    now,
		}
		if err := s.repo.InsertTransaction(ctx, tx, &txn); err != nil {
			return nil, err
		}

		batches = append(batches, batch)
	}
	return batches, nil
}

// Consume implements spec §4.3.2.
func (s *Service) Consume(ctx context.Context, userID snowflake.ID, productKey string, amount int64, actionType string, actionID, idempotencyKey *string, metadata map[string]any) (out *ledgerdomain.ConsumeResult, err error) {
	start := time.Now()
	defer func() { s.recordOp("consume", start, err) }()

	if amount <= 0 {
		return nil, ledgerdomain.ErrInvalidAmount
	}
	productKey = catalogdomain.Normalize(productKey)

	var result *ledgerdomain.ConsumeResult
	var emitted []ledgerdomain.Transaction

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if idempotencyKey != nil && *idempotencyKey != "" {
			existing, err := s.repo.FindTransactionByIdempotencyKey(ctx, tx, userID, actionType, *idempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				batch, err := s.repo.FindBatchByID(ctx, tx, existing.QuotaBatchID)
				if err != nil {
					return err
				}
				remaining := int64(0)
				if batch != nil {
					remaining, err = s.repo.SumActiveRemaining(ctx, tx, userID, batch.ProductID, s.clock.Now())
					if err != nil {
						return err
					}
				}
				result = &ledgerdomain.ConsumeResult{
					TransactionID: existing.ID.String(),
					Remaining:     remaining,
					Metadata:      existing.Metadata,
					Replayed:      true,
				}
				return nil
			}
		}

		product, err := s.catalog.GetProductAnyStatus(ctx, productKey)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		batches, err := s.repo.FindActiveBatches(ctx, tx, userID, product.ID, now, true)
		if err != nil {
			return err
		}
		if len(batches) == 0 {
			return ledgerdomain.ErrQuotaExhausted
		}

		var totalAvailable int64
		for _, b := range batches {
			totalAvailable += b.RemainingQuantity
		}
		if totalAvailable == 0 {
			return ledgerdomain.ErrQuotaExhausted
		}
		if totalAvailable < amount {
			return ledgerdomain.ErrInsufficientFunds
		}

		needed := amount
		for i := range batches {
			if needed <= 0 {
				break
			}
			b := &batches[i]
			take := min64(b.RemainingQuantity, needed)
			b.RemainingQuantity -= take
			needed -= take
			if b.RemainingQuantity == 0 {
				b.State = ledgerdomain.BatchExhausted
			}
			if err := s.repo.SaveBatch(ctx, tx, b); err != nil {
				return err
			}

			txMetadata := cloneMetadata(metadata)
			if idempotencyKey != nil {
				txMetadata["idempotency_key"] = *idempotencyKey
			}
			txn := ledgerdomain.Transaction{
				ID:             s.ids.New(now),
				UserID:         userID,
				QuotaBatchID:   b.ID,
				Amount:         take,
				Direction:      ledgerdomain.DirectionDebit,
				ActionType:     actionType,
				ActionID:       actionID,
				IdempotencyKey: idempotencyKey,
				Metadata:       datatypes.JSONMap(txMetadata),
				CreatedAt:      now,
			}
			if err := s.repo.InsertTransaction(ctx, tx, &txn); err != nil {
				return err
			}
			emitted = append(emitted, txn)
		}

		remaining, err := s.repo.SumActiveRemaining(ctx, tx, userID, product.ID, now)
		if err != nil {
			return err
		}

		last := emitted[len(emitted)-1]
		result = &ledgerdomain.ConsumeResult{
			TransactionID: last.ID.String(),
			Remaining:     remaining,
			Metadata:      last.Metadata,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, txn := range emitted {
		payload := map[string]any{
			"user_id":        userID.String(),
			"quota_batch_id": txn.QuotaBatchID.String(),
			"action_type":    txn.ActionType,
			"direction":      string(ledgerdomain.DirectionDebit),
			"amount":         txn.Amount,
		}
		s.bus.Publish(ctx, events.Event{Type: events.TransactionCreated, Payload: payload})
		s.bus.Publish(ctx, events.Event{Type: events.QuotaConsumed, Payload: payload})
	}
	return result, nil
}

// Expire implements spec §4.3.3.
func (s *Service) Expire(ctx context.Context) (int64, error) {
	return s.repo.ExpireActiveBatches(ctx, s.db, s.clock.Now())
}

// Revoke implements spec §4.3.4.
func (s *Service) Revoke(ctx context.Context, orderID snowflake.ID, reason string) (revoked int64, err error) {
	start := time.Now()
	defer func() { s.recordOp("revoke", start, err) }()

	var published []map[string]any
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var orderItemIDs []snowflake.ID
		if err := tx.WithContext(ctx).Table("order_items").Where("order_id = ?", orderID).Pluck("id", &orderItemIDs).Error; err != nil {
			return err
		}
		if len(orderItemIDs) == 0 {
			return nil
		}

		batches, err := s.repo.FindActiveBatchesByOrderItems(ctx, tx, orderItemIDs, true)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		for i := range batches {
			b := &batches[i]
			if b.RemainingQuantity > 0 {
				txn := ledgerdomain.Transaction{
					ID:           s.ids.New(now),
					UserID:       b.UserID,
					QuotaBatchID: b.ID,
					Amount:       b.RemainingQuantity,
					Direction:    ledgerdomain.DirectionDebit,
					ActionType:   reason,
					Metadata:     datatypes.JSONMap{"reason": "order_refunded"},
					CreatedAt:    now,
				}
				if err := s.repo.InsertTransaction(ctx, tx, &txn); err != nil {
					return err
				}
				published = append(published, map[string]any{
					"user_id":        b.UserID.String(),
					"quota_batch_id": b.ID.String(),
					"action_type":    reason,
					"direction":      string(ledgerdomain.DirectionDebit),
					"amount":         txn.Amount,
				})
			}
			b.RemainingQuantity = 0
			b.State = ledgerdomain.BatchRevoked
			if err := s.repo.SaveBatch(ctx, tx, b); err != nil {
				return err
			}
			revoked++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, p := range published {
		s.bus.Publish(ctx, events.Event{Type: events.TransactionCreated, Payload: p})
	}
	return revoked, nil
}

// Exchange implements spec §4.3.5: CONSUME the offer's currency, then
// GRANT the offer, both inside the same transaction. If CONSUME fails,
// the whole exchange aborts and no grant is issued.
func (s *Service) Exchange(ctx context.Context, userID snowflake.ID, offer *catalogdomain.Offer, metadata map[string]any) (out []ledgerdomain.QuotaBatch, err error) {
	start := time.Now()
	defer func() { s.recordOp("exchange", start, err) }()

	currencyKey := catalogdomain.Normalize(offer.Currency)
	currencyProduct, err := s.catalog.GetProductAnyStatus(ctx, currencyKey)
	if err != nil {
		return nil, err
	}
	if !currencyProduct.IsCurrency {
		return nil, catalogdomain.ErrNotCurrency
	}

	price := offer.Price.IntPart()
	txMetadata := cloneMetadata(metadata)
	txMetadata["price"] = price

	var granted []ledgerdomain.QuotaBatch
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.consumeTx(ctx, tx, userID, currencyProduct.ID, price, "exchange", nil, nil, nil); err != nil {
			return err
		}
		batches, err := s.grantTx(ctx, tx, userID, offer, nil, 1, "exchange", txMetadata)
		if err != nil {
			return err
		}
		granted = batches
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, b := range granted {
		s.bus.Publish(ctx, events.Event{
			Type: events.TransactionCreated,
			Payload: map[string]any{
				"user_id":        userID.String(),
				"quota_batch_id": b.ID.String(),
				"action_type":    "exchange",
				"direction":      string(ledgerdomain.DirectionCredit),
				"amount":         b.InitialQuantity,
			},
		})
	}
	return granted, nil
}

// consumeTx is Exchange's inline CONSUME: same FIFO/lock contract as
// Consume, minus the idempotency replay (exchange calls never carry a
// caller idempotency key) and minus post-commit publication, since
// Exchange publishes once for the whole composite operation's grant leg.
func (s *Service) consumeTx(ctx context.Context, tx *gorm.DB, userID, productID snowflake.ID, amount int64, actionType string, actionID, idempotencyKey *string, metadata map[string]any) error {
	now := s.clock.Now()
	batches, err := s.repo.FindActiveBatches(ctx, tx, userID, productID, now, true)
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		return ledgerdomain.ErrQuotaExhausted
	}
	var totalAvailable int64
	for _, b := range batches {
		totalAvailable += b.RemainingQuantity
	}
	if totalAvailable == 0 {
		return ledgerdomain.ErrQuotaExhausted
	}
	if totalAvailable < amount {
		return ledgerdomain.ErrInsufficientFunds
	}

	needed := amount
	for i := range batches {
		if needed <= 0 {
			break
		}
		b := &batches[i]
		take := min64(b.RemainingQuantity, needed)
		b.RemainingQuantity -= take
		needed -= take
		if b.RemainingQuantity == 0 {
			b.State = ledgerdomain.BatchExhausted
		}
		if err := s.repo.SaveBatch(ctx, tx, b); err != nil {
			return err
		}

		txn := ledgerdomain.Transaction{
			ID:           s.ids.New(now),
			UserID:       userID,
			QuotaBatchID: b.ID,
			Amount:       take,
			Direction:    ledgerdomain.DirectionDebit,
			ActionType:   actionType,
			ActionID:     actionID,
			Metadata:     datatypes.JSONMap(cloneMetadata(metadata)),
			CreatedAt:    now,
		}
		if err := s.repo.InsertTransaction(ctx, tx, &txn); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) GetBalance(ctx context.Context, userID snowflake.ID, productKey string) (int64, error) {
	product, err := s.catalog.GetProductAnyStatus(ctx, productKey)
	if err != nil {
		return 0, err
	}
	return s.repo.SumActiveRemaining(ctx, s.db, userID, product.ID, s.clock.Now())
}

func (s *Service) GetWallet(ctx context.Context, userID snowflake.ID) (map[string]int64, error) {
	totals, err := s.repo.SumWallet(ctx, s.db, userID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(totals))
	for productID, total := range totals {
		key, err := s.productKeyByID(ctx, productID)
		if err != nil {
			return nil, err
		}
		out[key] = total
	}
	return out, nil
}

// ListActiveBatches backs GET /user-products and GET /wallet/batches.
func (s *Service) ListActiveBatches(ctx context.Context, userID snowflake.ID, productKey *string) ([]ledgerdomain.QuotaBatch, error) {
	var productID *snowflake.ID
	if productKey != nil && *productKey != "" {
		product, err := s.catalog.GetProductAnyStatus(ctx, catalogdomain.Normalize(*productKey))
		if err != nil {
			return nil, err
		}
		productID = &product.ID
	}
	return s.repo.ListActiveBatches(ctx, s.db, userID, productID, s.clock.Now())
}

// ListTransactions backs GET /wallet/transactions.
func (s *Service) ListTransactions(ctx context.Context, userID snowflake.ID, productKey, actionType string, dateFrom *time.Time) ([]ledgerdomain.Transaction, error) {
	filter := ledgerdomain.TransactionFilter{ActionType: actionType, DateFrom: dateFrom, Limit: 100}
	if productKey != "" {
		product, err := s.catalog.GetProductAnyStatus(ctx, catalogdomain.Normalize(productKey))
		if err != nil {
			return nil, err
		}
		filter.ProductID = &product.ID
	}
	return s.repo.ListTransactions(ctx, s.db, userID, filter)
}

func (s *Service) productKeyByID(ctx context.Context, productID snowflake.ID) (string, error) {
	var row struct {
		ProductKey *string
	}
	if err := s.db.WithContext(ctx).Table("products").Select("product_key").Where("id = ?", productID).Take(&row).Error; err != nil {
		return "", err
	}
	if row.ProductKey == nil {
		return fmt.Sprintf("product:%s", productID.String()), nil
	}
	return *row.ProductKey, nil
}

func cloneMetadata(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
