package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	identitydomain "github.com/railzway/billing/internal/identity/domain"
	"github.com/railzway/billing/internal/identity/repository"
	referraldomain "github.com/railzway/billing/internal/referral/domain"
	"github.com/railzway/billing/pkg/db"
)

func newTestService(t *testing.T) identitydomain.Service {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err, "failed to open db")
	if err := conn.AutoMigrate(&identitydomain.User{}, &identitydomain.ExternalIdentity{}, &referraldomain.TrialHistory{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	require.NoError(t, err, "failed to create snowflake node")

	return New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func TestIdentifyCreatesUserAndIdentityOnFirstContact(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.Identify(context.Background(), "telegram", "tg-1", map[string]any{"lang": "en"})
	require.NoError(t, err, "identify")
	if !res.CreatedUser || !res.CreatedIdentity {
		t.Fatalf("expected both user and identity to be created, got %+v", res)
	}
	if !res.TrialEligible {
		t.Fatalf("expected a brand new identity to be trial eligible")
	}
}

func TestIdentifyIsIdempotentOnRepeat(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Identify(ctx, "telegram", "tg-1", nil)
	require.NoError(t, err, "identify")

	second, err := svc.Identify(ctx, "telegram", "tg-1", nil)
	require.NoError(t, err, "identify repeat")
	if second.CreatedUser || second.CreatedIdentity {
		t.Fatalf("expected repeat identify not to create anything, got %+v", second)
	}
	if second.UserID != first.UserID {
		t.Fatalf("expected the same user id on repeat identify, got %v vs %v", first.UserID, second.UserID)
	}
}

func TestIdentifyRejectsEmptyExternalID(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Identify(context.Background(), "telegram", "  ", nil); err != identitydomain.ErrEmptyExternalID {
		t.Fatalf("expected ErrEmptyExternalID, got %v", err)
	}
}

func TestResolveForReadNeverCreates(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ResolveForRead(context.Background(), identitydomain.ResolveParams{
		Provider:   "telegram",
		ExternalID: "unknown",
	})
	if err != identitydomain.ErrIdentityNotFound {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}
}

func TestResolveForWriteCreatesMissingIdentity(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// No identity exists yet for (telegram, tg-2); ResolveForWrite must
	// create it together with a linked user.
	if _, err := svc.GetIdentity(ctx, "telegram", "tg-2"); err != identitydomain.ErrIdentityNotFound {
		t.Fatalf("expected no identity yet, got %v", err)
	}

	userID, err := svc.ResolveForWrite(ctx, identitydomain.ResolveParams{
		Provider:   "telegram",
		ExternalID: "tg-2",
	})
	require.NoError(t, err, "resolve for write")
	if userID == 0 {
		t.Fatalf("expected a non-zero user id")
	}

	readBack, err := svc.ResolveForRead(ctx, identitydomain.ResolveParams{Provider: "telegram", ExternalID: "tg-2"})
	require.NoError(t, err, "resolve for read after write")
	if readBack != userID {
		t.Fatalf("expected resolve for read to return the same user id, got %v vs %v", readBack, userID)
	}
}

func TestBackfillIdentitiesOnEmptyTableReturnsZero(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// BackfillIdentities re-resolves already-unlinked rows; a fresh DB has
	// none, so the count should be zero without error.
	n, err := svc.BackfillIdentities(ctx, 10)
	require.NoError(t, err, "backfill")
	if n != 0 {
		t.Fatalf("expected zero rows backfilled on an empty table, got %d", n)
	}
}
