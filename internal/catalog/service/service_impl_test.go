package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	catalogdomain "github.com/railzway/billing/internal/catalog/domain"
	"github.com/railzway/billing/internal/catalog/repository"
	"github.com/railzway/billing/pkg/db"
)

func newTestService(t *testing.T) (catalogdomain.Service, *snowflake.Node) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err, "failed to open db")
	if err := conn.AutoMigrate(&catalogdomain.Product{}, &catalogdomain.Offer{}, &catalogdomain.OfferItem{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	require.NoError(t, err, "failed to create snowflake node")

	return New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	}), node
}

func TestCreateProductRejectsSharedNamespaceCollision(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	key := "tokens"
	if err := svc.CreateProduct(ctx, &catalogdomain.Product{
		ProductKey:  &key,
		Name:        "Tokens",
		ProductType: catalogdomain.ProductTypeQuantity,
		IsActive:    true,
	}); err != nil {
		t.Fatalf("create product: %v", err)
	}

	_, err := svc.CreateOffer(ctx, &catalogdomain.Offer{
		SKU:      "TOKENS",
		Name:     "Tokens bundle",
		Price:    decimal.NewFromInt(0),
		IsActive: true,
	}, nil)
	if err != catalogdomain.ErrSharedNamespace {
		t.Fatalf("expected ErrSharedNamespace, got %v", err)
	}
}

func TestGetProductNormalizesKeyAndHidesInactive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	key := "tokens"
	if err := svc.CreateProduct(ctx, &catalogdomain.Product{
		ProductKey:  &key,
		Name:        "Tokens",
		ProductType: catalogdomain.ProductTypeQuantity,
		IsActive:    false,
	}); err != nil {
		t.Fatalf("create product: %v", err)
	}

	if _, err := svc.GetProduct(ctx, "Tokens"); err != catalogdomain.ErrProductNotFound {
		t.Fatalf("expected inactive product to be hidden from GetProduct, got %v", err)
	}

	p, err := svc.GetProductAnyStatus(ctx, "tOkEns")
	require.NoError(t, err, "GetProductAnyStatus")
	if *p.ProductKey != "TOKENS" {
		t.Fatalf("expected normalized product_key TOKENS, got %s", *p.ProductKey)
	}
}

func TestListOffersPreservingOrderSkipsUnknownSKUs(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, sku := range []string{"A", "B"} {
		if _, err := svc.CreateOffer(ctx, &catalogdomain.Offer{
			SKU:      sku,
			Name:     sku,
			Price:    decimal.NewFromInt(0),
			IsActive: true,
		}, nil); err != nil {
			t.Fatalf("create offer %s: %v", sku, err)
		}
	}

	offers, err := svc.ListOffersPreservingOrder(ctx, []string{"b", "missing", "a"})
	require.NoError(t, err, "list offers")
	if len(offers) != 2 {
		t.Fatalf("expected 2 resolved offers, got %d", len(offers))
	}
	if offers[0].SKU != "B" || offers[1].SKU != "A" {
		t.Fatalf("expected order [B, A], got [%s, %s]", offers[0].SKU, offers[1].SKU)
	}
}
