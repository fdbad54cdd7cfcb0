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
	identitydomain "github.com/railzway/billing/internal/identity/domain"
	identityrepository "github.com/railzway/billing/internal/identity/repository"
	identityservice "github.com/railzway/billing/internal/identity/service"
	ledgerdomain "github.com/railzway/billing/internal/ledger/domain"
	ledgerrepository "github.com/railzway/billing/internal/ledger/repository"
	ledgerservice "github.com/railzway/billing/internal/ledger/service"
	referraldomain "github.com/railzway/billing/internal/referral/domain"
	"github.com/railzway/billing/internal/referral/repository"
	"github.com/railzway/billing/pkg/db"
	"github.com/railzway/billing/pkg/idgen"
)

type testHarness struct {
	referral referraldomain.Service
	identity identitydomain.Service
	catalog  catalogdomain.Service
	node     *snowflake.Node
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err, "failed to open db")
	if err := conn.AutoMigrate(
		&identitydomain.User{}, &identitydomain.ExternalIdentity{},
		&catalogdomain.Product{}, &catalogdomain.Offer{}, &catalogdomain.OfferItem{},
		&ledgerdomain.QuotaBatch{}, &ledgerdomain.Transaction{},
		&referraldomain.Referral{}, &referraldomain.TrialHistory{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	require.NoError(t, err, "failed to create snowflake node")

	identity := identityservice.New(identityservice.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  identityrepository.Provide(),
	})

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

	referral := New(Params{
		DB:       conn,
		Log:      zap.NewNop(),
		Clock:    fakeClock,
		GenID:    node,
		Repo:     repository.Provide(),
		Catalog:  catalog,
		Ledger:   ledger,
		Identity: identity,
		Bus:      bus,
	})

	return &testHarness{referral: referral, identity: identity, catalog: catalog, node: node}
}

// TestTrialReusePrevention is scenario 6: granting the same trial sku to
// the same external identity twice must fail the second time.
func TestTrialReusePrevention(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	product := h.mustCreateProduct(t, "TRIAL_CREDITS")
	_, err := h.catalog.CreateOffer(ctx, &catalogdomain.Offer{
		SKU: "TRIAL", Name: "Trial", Price: decimal.NewFromInt(0), IsActive: true,
	}, []catalogdomain.OfferItem{
		{ProductID: product.ID, Quantity: 5, PeriodUnit: catalogdomain.PeriodForever},
	})
	require.NoError(t, err, "create TRIAL offer")

	userID, err := h.identity.ResolveForWrite(ctx, identitydomain.ResolveParams{Provider: "telegram", ExternalID: "X"})
	require.NoError(t, err, "resolve for write")

	identities := []referraldomain.Identity{{Type: "telegram", Value: "X"}}

	if err := h.referral.GrantTrial(ctx, userID, "TRIAL", identities); err != nil {
		t.Fatalf("first trial grant: %v", err)
	}

	err = h.referral.GrantTrial(ctx, userID, "TRIAL", identities)
	if err != referraldomain.ErrTrialAlreadyUsed {
		t.Fatalf("expected ErrTrialAlreadyUsed on repeat grant, got %v", err)
	}
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

func TestCreateReferralRejectsSelfReferral(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	userID, err := h.identity.ResolveForWrite(ctx, identitydomain.ResolveParams{Provider: "telegram", ExternalID: "Y"})
	require.NoError(t, err, "resolve for write")

	_, err = h.referral.CreateReferral(ctx, referraldomain.CreateReferralParams{
		ReferrerID: &userID,
		RefereeID:  &userID,
	})
	if err != referraldomain.ErrSelfReferral {
		t.Fatalf("expected ErrSelfReferral, got %v", err)
	}
}

func TestCreateReferralIsIdempotentOnRepeat(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	referrer, err := h.identity.ResolveForWrite(ctx, identitydomain.ResolveParams{Provider: "telegram", ExternalID: "ref"})
	require.NoError(t, err, "resolve referrer")
	referee, err := h.identity.ResolveForWrite(ctx, identitydomain.ResolveParams{Provider: "telegram", ExternalID: "refee"})
	require.NoError(t, err, "resolve referee")

	first, err := h.referral.CreateReferral(ctx, referraldomain.CreateReferralParams{ReferrerID: &referrer, RefereeID: &referee})
	require.NoError(t, err, "first create referral")
	if !first.Created {
		t.Fatalf("expected first call to report Created=true")
	}

	second, err := h.referral.CreateReferral(ctx, referraldomain.CreateReferralParams{ReferrerID: &referrer, RefereeID: &referee})
	require.NoError(t, err, "second create referral")
	if second.Created {
		t.Fatalf("expected the repeat call to report Created=false")
	}

	stats, err := h.referral.GetStats(ctx, referrer)
	require.NoError(t, err, "get stats")
	if stats.TotalReferred != 1 {
		t.Fatalf("expected exactly one referral counted, got %d", stats.TotalReferred)
	}
}
