// Package service implements the order lifecycle CREATE/CONFIRM/REFUND/
// CANCEL, grounded on original_source/billable/services/order_service.py
// and expressed in the teacher's fx.In-parameterized service shape.
package service

import (
	"context"

	catalogdomain "github.com/railzway/billing/internal/catalog/domain"
	"github.com/railzway/billing/internal/clock"
	"github.com/railzway/billing/internal/events"
	ledgerdomain "github.com/railzway/billing/internal/ledger/domain"
	orderdomain "github.com/railzway/billing/internal/order/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
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
	GenID   *snowflake.Node
	Repo    orderdomain.Repository
	Catalog catalogdomain.Service
	Ledger  ledgerdomain.Service
	Bus     *events.Bus
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	genID   *snowflake.Node
	repo    orderdomain.Repository
	catalog catalogdomain.Service
	ledger  ledgerdomain.Service
	bus     *events.Bus
}

// New constructs the order Service for fx wiring.
func New(p Params) orderdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("order.service"),
		clock:   p.Clock,
		genID:   p.GenID,
		repo:    p.Repo,
		catalog: p.Catalog,
		ledger:  p.Ledger,
		bus:     p.Bus,
	}
}

// Create implements spec §4.4 CREATE.
func (s *Service) Create(ctx context.Context, userID snowflake.ID, items []orderdomain.ItemInput, metadata map[string]any) (*orderdomain.Order, error) {
	if len(items) == 0 {
		return nil, orderdomain.ErrEmptyItems
	}

	type resolved struct {
		offer    *catalogdomain.Offer
		quantity int64
		price    decimal.Decimal
	}
	lines := make([]resolved, 0, len(items))
	total := decimal.Zero
	currency := ""

	for _, item := range items {
		offer, err := s.catalog.GetOfferAnyStatus(ctx, item.SKU)
		if err != nil {
			return nil, orderdomain.ErrOfferNotFound
		}
		price := offer.Price
		if item.Price != nil {
			price = *item.Price
		}
		if currency == "" {
			currency = offer.Currency
		}
		total = total.Add(price.Mul(decimal.NewFromInt(item.Quantity)))
		lines = append(lines, resolved{offer: offer, quantity: item.Quantity, price: price})
	}

	order := &orderdomain.Order{
		ID:          s.genID.Generate(),
		UserID:      userID,
		TotalAmount: total,
		Currency:    currency,
		Status:      orderdomain.StatusPending,
		Metadata:    datatypes.JSONMap(metadata),
		CreatedAt:   s.clock.Now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertOrder(ctx, tx, order); err != nil {
			return err
		}
		for _, line := range lines {
			item := &orderdomain.OrderItem{
				ID:        s.genID.Generate(),
				OrderID:   order.ID,
				OfferID:   line.offer.ID,
				Quantity:  line.quantity,
				Price:     line.price,
				CreatedAt: order.CreatedAt,
			}
			if err := s.repo.InsertOrderItem(ctx, tx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Confirm implements spec §4.4 CONFIRM: idempotent if already PAID.
func (s *Service) Confirm(ctx context.Context, orderID snowflake.ID, paymentID, paymentMethod string) (*orderdomain.Order, error) {
	var out *orderdomain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindOrderByID(ctx, tx, orderID, true)
		if err != nil {
			return err
		}
		if order == nil {
			return orderdomain.ErrOrderNotFound
		}
		if order.Status == orderdomain.StatusPaid {
			out = order
			return nil
		}
		if order.Status != orderdomain.StatusPending {
			return orderdomain.ErrNotPending
		}

		items, err := s.repo.ListItems(ctx, tx, order.ID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		order.Status = orderdomain.StatusPaid
		order.PaidAt = &now
		order.PaymentID = &paymentID
		order.PaymentMethod = paymentMethod
		if err := s.repo.SaveOrder(ctx, tx, order); err != nil {
			return err
		}

		for i := range items {
			item := items[i]
			offer, err := s.catalog.GetOfferByID(ctx, item.OfferID)
			if err != nil {
				return err
			}
			itemID := item.ID
			if _, err := s.ledger.Grant(ctx, order.UserID, offer, &itemID, item.Quantity, "purchase", nil); err != nil {
				return err
			}
		}

		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.Event{
		Type: events.OrderConfirmed,
		Payload: map[string]any{
			"order_id": out.ID.String(),
			"user_id":  out.UserID.String(),
		},
	})
	return out, nil
}

// Refund implements spec §4.4 REFUND.
func (s *Service) Refund(ctx context.Context, orderID snowflake.ID, reason string) (*orderdomain.Order, error) {
	var out *orderdomain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindOrderByID(ctx, tx, orderID, true)
		if err != nil {
			return err
		}
		if order == nil {
			return orderdomain.ErrOrderNotFound
		}
		if order.Status == orderdomain.StatusRefunded {
			out = order
			return nil
		}
		if order.Status != orderdomain.StatusPaid {
			return orderdomain.ErrNotPaid
		}

		order.Status = orderdomain.StatusRefunded
		meta := cloneMetadata(order.Metadata)
		meta["refund_reason"] = reason
		order.Metadata = datatypes.JSONMap(meta)
		if err := s.repo.SaveOrder(ctx, tx, order); err != nil {
			return err
		}
		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.ledger.Revoke(ctx, orderID, "refund"); err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel implements spec §4.4 CANCEL: PENDING -> CANCELLED only, never
// touches the ledger.
func (s *Service) Cancel(ctx context.Context, orderID snowflake.ID, reason string) (*orderdomain.Order, error) {
	var out *orderdomain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindOrderByID(ctx, tx, orderID, true)
		if err != nil {
			return err
		}
		if order == nil {
			return orderdomain.ErrOrderNotFound
		}
		if order.Status == orderdomain.StatusCancelled {
			out = order
			return nil
		}
		if order.Status != orderdomain.StatusPending {
			return orderdomain.ErrAlreadyCancelled
		}

		order.Status = orderdomain.StatusCancelled
		meta := cloneMetadata(order.Metadata)
		meta["cancel_reason"] = reason
		order.Metadata = datatypes.JSONMap(meta)
		if err := s.repo.SaveOrder(ctx, tx, order); err != nil {
			return err
		}
		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, orderID snowflake.ID) (*orderdomain.Order, error) {
	order, err := s.repo.FindOrderByID(ctx, s.db, orderID, false)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, orderdomain.ErrOrderNotFound
	}
	items, err := s.repo.ListItems(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func cloneMetadata(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
