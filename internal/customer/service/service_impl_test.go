package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	customerdomain "github.com/railzway/billing/internal/customer/domain"
	"github.com/railzway/billing/internal/customer/repository"
	"github.com/railzway/billing/internal/events"
	identitydomain "github.com/railzway/billing/internal/identity/domain"
	identityrepository "github.com/railzway/billing/internal/identity/repository"
	identityservice "github.com/railzway/billing/internal/identity/service"
	ledgerdomain "github.com/railzway/billing/internal/ledger/domain"
	orderdomain "github.com/railzway/billing/internal/order/domain"
	referraldomain "github.com/railzway/billing/internal/referral/domain"
	"github.com/railzway/billing/pkg/db"
)

type testHarness struct {
	customer customerdomain.Service
	identity identitydomain.Service
	node     *snowflake.Node
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err, "failed to open db")
	if err := conn.AutoMigrate(&identitydomain.User{}, &identitydomain.ExternalIdentity{},
		&orderdomain.Order{}, &ledgerdomain.QuotaBatch{}, &ledgerdomain.Transaction{}, &referraldomain.Referral{}); err != nil {
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

	customer := New(Params{
		DB:   conn,
		Log:  zap.NewNop(),
		Repo: repository.Provide(),
		Bus:  events.New(zap.NewNop()),
	})

	return &testHarness{customer: customer, identity: identity, node: node}
}

func TestMergeRejectsSameUser(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	userID, err := h.identity.ResolveForWrite(ctx, identitydomain.ResolveParams{Provider: "telegram", ExternalID: "a"})
	require.NoError(t, err, "resolve")

	if _, err := h.customer.Merge(ctx, userID, userID); err != customerdomain.ErrSameUser {
		t.Fatalf("expected ErrSameUser, got %v", err)
	}
}

func TestMergeRejectsUnknownUser(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	targetID, err := h.identity.ResolveForWrite(ctx, identitydomain.ResolveParams{Provider: "telegram", ExternalID: "known"})
	require.NoError(t, err, "resolve")

	unknown := h.node.Generate()
	if _, err := h.customer.Merge(ctx, targetID, unknown); err != customerdomain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestMergeMovesIdentities(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	targetID, err := h.identity.ResolveForWrite(ctx, identitydomain.ResolveParams{Provider: "telegram", ExternalID: "target"})
	require.NoError(t, err, "resolve target")
	sourceID, err := h.identity.ResolveForWrite(ctx, identitydomain.ResolveParams{Provider: "web", ExternalID: "source"})
	require.NoError(t, err, "resolve source")

	stats, err := h.customer.Merge(ctx, targetID, sourceID)
	require.NoError(t, err, "merge")
	if stats.MovedIdentities != 1 {
		t.Fatalf("expected exactly one identity moved, got %d", stats.MovedIdentities)
	}

	merged, err := h.identity.ResolveForRead(ctx, identitydomain.ResolveParams{Provider: "web", ExternalID: "source"})
	require.NoError(t, err, "resolve moved identity")
	if merged != targetID {
		t.Fatalf("expected the moved identity to resolve to the target user, got %v want %v", merged, targetID)
	}
}

func TestMergeAbortsOnIdentityProviderConflict(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	targetID, err := h.identity.ResolveForWrite(ctx, identitydomain.ResolveParams{Provider: "telegram", ExternalID: "T1"})
	require.NoError(t, err, "resolve target")
	sourceID, err := h.identity.ResolveForWrite(ctx, identitydomain.ResolveParams{Provider: "telegram", ExternalID: "T2"})
	require.NoError(t, err, "resolve source")

	if _, err := h.customer.Merge(ctx, targetID, sourceID); err != customerdomain.ErrIdentityConflict {
		t.Fatalf("expected ErrIdentityConflict when both users hold different external ids for the same provider, got %v", err)
	}
}
