package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	catalogdomain "github.com/railzway/billing/internal/catalog/domain"
	catalogrepository "github.com/railzway/billing/internal/catalog/repository"
	catalogservice "github.com/railzway/billing/internal/catalog/service"
	"github.com/railzway/billing/internal/clock"
	"github.com/railzway/billing/internal/events"
	ledgerdomain "github.com/railzway/billing/internal/ledger/domain"
	ledgerrepository "github.com/railzway/billing/internal/ledger/repository"
	ledgerservice "github.com/railzway/billing/internal/ledger/service"
	orderdomain "github.com/railzway/billing/internal/order/domain"
	"github.com/railzway/billing/internal/order/repository"
	"github.com/railzway/billing/pkg/db"
	"github.com/railzway/billing/pkg/idgen"
)

type testHarness struct {
	order   orderdomain.Service
	ledger  ledgerdomain.Service
	catalog catalogdomain.Service
	node    *snowflake.Node
	clock   *clock.FakeClock
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err, "failed to open db")
	if err := conn.AutoMigrate(
		&catalogdomain.Product{}, &catalogdomain.Offer{}, &catalogdomain.OfferItem{},
		&ledgerdomain.QuotaBatch{}, &ledgerdomain.Transaction{},
		&orderdomain.Order{}, &orderdomain.OrderItem{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	require.NoError(t, err, "failed to create snowflake node")

	catalog := catalogservice.New(catalogservice.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  catalogrepository.Provide(),
	})

	fakeClock := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	bus := events.New(zap.NewNop())

	ledger := ledgerservice.New(ledgerservice.Params{
		DB:      conn,
		Log:     zap.NewNop(),
		Clock:   fakeClock,
		IDs:     idgen.NewULIDGenerator(),
		Repo:    ledgerrepository.Provide(),
		Catalog: catalog,
		Bus:     bus,
	})

	order := New(Params{
		DB:      conn,
		Log:     zap.NewNop(),
		Clock:   fakeClock,
		GenID:   node,
		Repo:    repository.Provide(),
		Catalog: catalog,
		Ledger:  ledger,
		Bus:     bus,
	})

	return &testHarness{order: order, ledger: ledger, catalog: catalog, node: node, clock: fakeClock}
}

func (h *testHarness) mustCreateProduct(t *testing.T, key string) *catalogdomain.Product {
	t.Helper()
	k := key
	if err := h.catalog.CreateProduct(context.Background(), &catalogdomain.Product{
		ProductKey:  &k,
		Name:        key,
		ProductType: catalogdomain.ProductTypeQuantity,
		IsActive:    true,
	}); err != nil {
		t.Fatalf("create product %s: %v", key, err)
	}
	p, err := h.catalog.GetProductAnyStatus(context.Background(), key)
	if err != nil {
		t.Fatalf("get product %s: %v", key, err)
	}
	return p
}

// TestBundleOrder is scenario 2: two offers, one bought twice, confirmed
// with a payment id.
func TestBundleOrder(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	userID := h.node.Generate()

	tokens := h.mustCreateProduct(t, "TOKENS")
	premium := h.mustCreateProduct(t, "PREMIUM")
	internal := h.mustCreateProduct(t, "INTERNAL")

	thirty := int64(30)
	starter, err := h.catalog.CreateOffer(ctx, &catalogdomain.Offer{
		SKU: "PACK_STARTER", Name: "Starter", Price: decimal.NewFromInt(0), IsActive: true,
	}, []catalogdomain.OfferItem{
		{ProductID: tokens.ID, Quantity: 100, PeriodUnit: catalogdomain.PeriodForever},
		{ProductID: premium.ID, Quantity: 1, PeriodUnit: catalogdomain.PeriodDays, PeriodValue: &thirty},
	})
	require.NoError(t, err, "create PACK_STARTER")

	credits, err := h.catalog.CreateOffer(ctx, &catalogdomain.Offer{
		SKU: "OFF_CREDITS_100", Name: "Credits", Price: decimal.NewFromInt(0), IsActive: true,
	}, []catalogdomain.OfferItem{
		{ProductID: internal.ID, Quantity: 100, PeriodUnit: catalogdomain.PeriodForever},
	})
	require.NoError(t, err, "create OFF_CREDITS_100")
	_ = credits

	order, err := h.order.Create(ctx, userID, []orderdomain.ItemInput{
		{SKU: starter.SKU, Quantity: 1},
		{SKU: "OFF_CREDITS_100", Quantity: 2},
	}, nil)
	require.NoError(t, err, "create order")

	confirmed, err := h.order.Confirm(ctx, order.ID, "PAY-1", "card")
	require.NoError(t, err, "confirm")
	if confirmed.Status != orderdomain.StatusPaid {
		t.Fatalf("expected order PAID, got %s", confirmed.Status)
	}

	wallet, err := h.ledger.GetWallet(ctx, userID)
	require.NoError(t, err, "get wallet")
	if wallet["TOKENS"] != 100 {
		t.Fatalf("expected TOKENS 100, got %d", wallet["TOKENS"])
	}
	if wallet["PREMIUM"] != 1 {
		t.Fatalf("expected PREMIUM 1, got %d", wallet["PREMIUM"])
	}
	if wallet["INTERNAL"] != 200 {
		t.Fatalf("expected INTERNAL 200, got %d", wallet["INTERNAL"])
	}

	batches, err := h.ledger.ListActiveBatches(ctx, userID, nil)
	require.NoError(t, err, "list active batches")
	if len(batches) != 4 {
		t.Fatalf("expected 4 batches, got %d", len(batches))
	}
}

// TestRefundAfterPartialUse is scenario 3: consume some TOKENS, then
// refund, leaving an empty wallet and REVOKED batches.
func TestRefundAfterPartialUse(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	userID := h.node.Generate()

	tokens := h.mustCreateProduct(t, "TOKENS")

	offer, err := h.catalog.CreateOffer(ctx, &catalogdomain.Offer{
		SKU: "TOKENS_100", Name: "Tokens", Price: decimal.NewFromInt(0), IsActive: true,
	}, []catalogdomain.OfferItem{
		{ProductID: tokens.ID, Quantity: 100, PeriodUnit: catalogdomain.PeriodForever},
	})
	require.NoError(t, err, "create offer")

	order, err := h.order.Create(ctx, userID, []orderdomain.ItemInput{{SKU: offer.SKU, Quantity: 1}}, nil)
	require.NoError(t, err, "create order")
	if _, err := h.order.Confirm(ctx, order.ID, "PAY-2", "card"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if _, err := h.ledger.Consume(ctx, userID, "TOKENS", 20, "use", nil, nil, nil); err != nil {
		t.Fatalf("consume: %v", err)
	}

	refunded, err := h.order.Refund(ctx, order.ID, "refund")
	require.NoError(t, err, "refund")
	if refunded.Status != orderdomain.StatusRefunded {
		t.Fatalf("expected order REFUNDED, got %s", refunded.Status)
	}

	wallet, err := h.ledger.GetWallet(ctx, userID)
	require.NoError(t, err, "get wallet")
	if len(wallet) != 0 {
		t.Fatalf("expected an empty wallet after refund, got %+v", wallet)
	}

	batches, err := h.ledger.ListActiveBatches(ctx, userID, nil)
	require.NoError(t, err, "list active batches")
	if len(batches) != 0 {
		t.Fatalf("expected no remaining active batches after refund, got %d", len(batches))
	}
}

func TestConfirmIsIdempotent(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	userID := h.node.Generate()

	tokens := h.mustCreateProduct(t, "TOKENS")
	offer, err := h.catalog.CreateOffer(ctx, &catalogdomain.Offer{
		SKU: "TOKENS_10", Name: "Tokens", Price: decimal.NewFromInt(0), IsActive: true,
	}, []catalogdomain.OfferItem{{ProductID: tokens.ID, Quantity: 10, PeriodUnit: catalogdomain.PeriodForever}})
	require.NoError(t, err, "create offer")

	order, err := h.order.Create(ctx, userID, []orderdomain.ItemInput{{SKU: offer.SKU, Quantity: 1}}, nil)
	require.NoError(t, err, "create order")

	if _, err := h.order.Confirm(ctx, order.ID, "PAY-3", "card"); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	if _, err := h.order.Confirm(ctx, order.ID, "PAY-3", "card"); err != nil {
		t.Fatalf("second confirm should be a no-op, got error: %v", err)
	}

	wallet, err := h.ledger.GetWallet(ctx, userID)
	require.NoError(t, err, "get wallet")
	if wallet["TOKENS"] != 10 {
		t.Fatalf("expected a repeat confirm not to double-grant, wallet=%+v", wallet)
	}
}

func TestCancelOnlyAllowedFromPending(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	userID := h.node.Generate()

	tokens := h.mustCreateProduct(t, "TOKENS")
	offer, err := h.catalog.CreateOffer(ctx, &catalogdomain.Offer{
		SKU: "TOKENS_5", Name: "Tokens", Price: decimal.NewFromInt(0), IsActive: true,
	}, []catalogdomain.OfferItem{{ProductID: tokens.ID, Quantity: 5, PeriodUnit: catalogdomain.PeriodForever}})
	require.NoError(t, err, "create offer")

	order, err := h.order.Create(ctx, userID, []orderdomain.ItemInput{{SKU: offer.SKU, Quantity: 1}}, nil)
	require.NoError(t, err, "create order")
	if _, err := h.order.Confirm(ctx, order.ID, "PAY-4", "card"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if _, err := h.order.Cancel(ctx, order.ID, "changed mind"); err != orderdomain.ErrAlreadyCancelled {
		t.Fatalf("expected cancel of a PAID order to fail, got %v", err)
	}
}
