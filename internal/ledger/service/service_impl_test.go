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
	"github.com/railzway/billing/internal/ledger/repository"
	"github.com/railzway/billing/pkg/db"
	"github.com/railzway/billing/pkg/idgen"
)

type testHarness struct {
	svc     ledgerdomain.Service
	catalog catalogdomain.Service
	clock   *clock.FakeClock
	node    *snowflake.Node
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err, "failed to open db")
	if err := conn.AutoMigrate(
		&catalogdomain.Product{}, &catalogdomain.Offer{}, &catalogdomain.OfferItem{},
		&ledgerdomain.QuotaBatch{}, &ledgerdomain.Transaction{},
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

	ledgerSvc := New(Params{
		DB:      conn,
		Log:     zap.NewNop(),
		Clock:   fakeClock,
		IDs:     idgen.NewULIDGenerator(),
		Repo:    repository.Provide(),
		Catalog: catalog,
		Bus:     events.New(zap.NewNop()),
	})

	return &testHarness{svc: ledgerSvc, catalog: catalog, clock: fakeClock, node: node}
}

func (h *testHarness) mustCreateProduct(t *testing.T, key string, productType catalogdomain.ProductType, isCurrency bool) *catalogdomain.Product {
	t.Helper()
	k := key
	if err := h.catalog.CreateProduct(context.Background(), &catalogdomain.Product{
		ProductKey:  &k,
		Name:        key,
		ProductType: productType,
		IsActive:    true,
		IsCurrency:  isCurrency,
	}); err != nil {
		t.Fatalf("create product %s: %v", key, err)
	}
	p, err := h.catalog.GetProductAnyStatus(context.Background(), key)
	if err != nil {
		t.Fatalf("get product %s: %v", key, err)
	}
	return p
}

func (h *testHarness) mustCreateOffer(t *testing.T, sku string, price int64, currency string, items []catalogdomain.OfferItem) *catalogdomain.Offer {
	t.Helper()
	o, err := h.catalog.CreateOffer(context.Background(), &catalogdomain.Offer{
		SKU:      sku,
		Name:     sku,
		Price:    decimal.NewFromInt(price),
		Currency: currency,
		IsActive: true,
	}, items)
	if err != nil {
		t.Fatalf("create offer %s: %v", sku, err)
	}
	return o
}

// TestSimpleFIFO is scenario 1 of the literal end-to-end properties:
// three ACTIVE batches of 10 TOKENS each, 25 single-unit consumes.
func TestSimpleFIFO(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	userID := h.node.Generate()

	product := h.mustCreateProduct(t, "TOKENS", catalogdomain.ProductTypeQuantity, false)
	offer := h.mustCreateOffer(t, "TOKENS_PACK", 0, "", []catalogdomain.OfferItem{
		{ProductID: product.ID, Quantity: 10, PeriodUnit: catalogdomain.PeriodForever},
	})

	for i := 0; i < 3; i++ {
		if _, err := h.svc.Grant(ctx, userID, offer, nil, 1, "grant", nil); err != nil {
			t.Fatalf("grant %d: %v", i, err)
		}
		h.clock.Advance(time.Second)
	}

	for i := 0; i < 25; i++ {
		if _, err := h.svc.Consume(ctx, userID, "TOKENS", 1, "use", nil, nil, nil); err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
	}

	balance, err := h.svc.GetBalance(ctx, userID, "TOKENS")
	require.NoError(t, err, "get balance")
	if balance != 5 {
		t.Fatalf("expected remaining balance 5, got %d", balance)
	}

	batches, err := h.svc.ListActiveBatches(ctx, userID, nil)
	require.NoError(t, err, "list active batches")
	if len(batches) != 1 {
		t.Fatalf("expected exactly one still-active batch, got %d", len(batches))
	}
	if batches[0].RemainingQuantity != 5 {
		t.Fatalf("expected the surviving batch to carry remaining=5, got %d", batches[0].RemainingQuantity)
	}

	txns, err := h.svc.ListTransactions(ctx, userID, "", "", nil)
	require.NoError(t, err, "list transactions")
	debits := 0
	for _, txn := range txns {
		if txn.Direction == ledgerdomain.DirectionDebit {
			debits++
		}
	}
	if debits != 25 {
		t.Fatalf("expected 25 DEBIT transactions, got %d", debits)
	}
}

func TestConsumeExhaustedQuotaFails(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	userID := h.node.Generate()

	product := h.mustCreateProduct(t, "TOKENS", catalogdomain.ProductTypeQuantity, false)
	offer := h.mustCreateOffer(t, "TOKENS_PACK", 0, "", []catalogdomain.OfferItem{
		{ProductID: product.ID, Quantity: 1, PeriodUnit: catalogdomain.PeriodForever},
	})
	if _, err := h.svc.Grant(ctx, userID, offer, nil, 1, "grant", nil); err != nil {
		t.Fatalf("grant: %v", err)
	}

	if _, err := h.svc.Consume(ctx, userID, "TOKENS", 1, "use", nil, nil, nil); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if _, err := h.svc.Consume(ctx, userID, "TOKENS", 1, "use", nil, nil, nil); err != ledgerdomain.ErrQuotaExhausted {
		t.Fatalf("expected ErrQuotaExhausted on the second consume, got %v", err)
	}
}

// TestIdempotentConsume is scenario 5: two CONSUME calls with the same
// idempotency key must produce exactly one DEBIT and both must succeed.
func TestIdempotentConsume(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	userID := h.node.Generate()

	product := h.mustCreateProduct(t, "TOKENS", catalogdomain.ProductTypeQuantity, false)
	offer := h.mustCreateOffer(t, "TOKENS_PACK", 0, "", []catalogdomain.OfferItem{
		{ProductID: product.ID, Quantity: 10, PeriodUnit: catalogdomain.PeriodForever},
	})
	if _, err := h.svc.Grant(ctx, userID, offer, nil, 1, "grant", nil); err != nil {
		t.Fatalf("grant: %v", err)
	}

	key := "K1"
	first, err := h.svc.Consume(ctx, userID, "TOKENS", 1, "use", nil, &key, nil)
	require.NoError(t, err, "first consume")
	second, err := h.svc.Consume(ctx, userID, "TOKENS", 1, "use", nil, &key, nil)
	require.NoError(t, err, "second consume")
	if !second.Replayed {
		t.Fatalf("expected the second call to report a replay")
	}
	if first.TransactionID != second.TransactionID {
		t.Fatalf("expected both calls to report the same transaction id")
	}

	txns, err := h.svc.ListTransactions(ctx, userID, "TOKENS", "use", nil)
	require.NoError(t, err, "list transactions")
	debits := 0
	for _, txn := range txns {
		if txn.Direction == ledgerdomain.DirectionDebit {
			debits++
		}
	}
	if debits != 1 {
		t.Fatalf("expected exactly one DEBIT transaction under key %q, got %d", key, debits)
	}
}

// TestExchange is scenario 4: exchanging currency for a bundle.
func TestExchange(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	userID := h.node.Generate()

	internal := h.mustCreateProduct(t, "INTERNAL", catalogdomain.ProductTypeQuantity, true)
	tokens := h.mustCreateProduct(t, "TOKENS", catalogdomain.ProductTypeQuantity, false)
	premium := h.mustCreateProduct(t, "PREMIUM", catalogdomain.ProductTypeQuantity, false)

	fundingOffer := h.mustCreateOffer(t, "INTERNAL_PACK", 0, "", []catalogdomain.OfferItem{
		{ProductID: internal.ID, Quantity: 500, PeriodUnit: catalogdomain.PeriodForever},
	})
	if _, err := h.svc.Grant(ctx, userID, fundingOffer, nil, 1, "grant", nil); err != nil {
		t.Fatalf("fund internal balance: %v", err)
	}

	bundle := h.mustCreateOffer(t, "BUNDLE", 300, "INTERNAL", []catalogdomain.OfferItem{
		{ProductID: tokens.ID, Quantity: 100, PeriodUnit: catalogdomain.PeriodForever},
		{ProductID: premium.ID, Quantity: 1, PeriodUnit: catalogdomain.PeriodForever},
	})

	if _, err := h.svc.Exchange(ctx, userID, bundle, nil); err != nil {
		t.Fatalf("exchange: %v", err)
	}

	wallet, err := h.svc.GetWallet(ctx, userID)
	require.NoError(t, err, "get wallet")
	if wallet["INTERNAL"] != 200 {
		t.Fatalf("expected INTERNAL remaining 200, got %d", wallet["INTERNAL"])
	}
	if wallet["TOKENS"] != 100 {
		t.Fatalf("expected TOKENS 100, got %d", wallet["TOKENS"])
	}
	if wallet["PREMIUM"] != 1 {
		t.Fatalf("expected PREMIUM 1, got %d", wallet["PREMIUM"])
	}
}

func TestExchangeRejectsNonCurrencyProduct(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	userID := h.node.Generate()

	notCurrency := h.mustCreateProduct(t, "POINTS", catalogdomain.ProductTypeQuantity, false)
	tokens := h.mustCreateProduct(t, "TOKENS", catalogdomain.ProductTypeQuantity, false)
	_ = tokens

	bundle := h.mustCreateOffer(t, "BUNDLE2", 10, "POINTS", []catalogdomain.OfferItem{
		{ProductID: notCurrency.ID, Quantity: 1, PeriodUnit: catalogdomain.PeriodForever},
	})

	if _, err := h.svc.Exchange(ctx, userID, bundle, nil); err != catalogdomain.ErrNotCurrency {
		t.Fatalf("expected ErrNotCurrency, got %v", err)
	}
}

func TestExpireSweepsPastBatches(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	userID := h.node.Generate()

	premium := h.mustCreateProduct(t, "PREMIUM", catalogdomain.ProductTypeQuantity, false)
	offer := h.mustCreateOffer(t, "PREMIUM_30D", 0, "", []catalogdomain.OfferItem{
		{ProductID: premium.ID, Quantity: 1, PeriodUnit: catalogdomain.PeriodDays, PeriodValue: int64Ptr(30)},
	})
	if _, err := h.svc.Grant(ctx, userID, offer, nil, 1, "grant", nil); err != nil {
		t.Fatalf("grant: %v", err)
	}

	h.clock.Advance(31 * 24 * time.Hour)

	n, err := h.svc.Expire(ctx)
	require.NoError(t, err, "expire")
	if n != 1 {
		t.Fatalf("expected exactly one batch expired, got %d", n)
	}

	balance, err := h.svc.GetBalance(ctx, userID, "PREMIUM")
	require.NoError(t, err, "get balance")
	if balance != 0 {
		t.Fatalf("expected zero balance after expiry, got %d", balance)
	}
}

func int64Ptr(v int64) *int64 { return &v }
