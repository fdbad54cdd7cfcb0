package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// ResolveParams identifies a caller either by local user id or by an
// external (provider, external_id) pair. Exactly one resolution path is
// used: if UserID is set it takes precedence.
type ResolveParams struct {
	UserID     *snowflake.ID
	Provider   string
	ExternalID string
}

// IdentifyResult is the response to the write-path /identify call.
type IdentifyResult struct {
	UserID         snowflake.ID
	IdentityID     snowflake.ID
	CreatedUser    bool
	CreatedIdentity bool
	TrialEligible  bool
	Metadata       map[string]any
}

// Service resolves (provider, external_id) pairs to local user ids. It is
// the only component permitted to materialize a User row.
type Service interface {
	// Identify performs write-path resolution: upserts the identity and
	// creates a user if none is linked yet. Used by POST /identify.
	Identify(ctx context.Context, provider, externalID string, profile map[string]any) (*IdentifyResult, error)

	// ResolveForWrite resolves params for a mutating endpoint: creates the
	// user if the identity exists but is unlinked, or creates both identity
	// and user if neither exists. Fails with ErrEmptyExternalID on a blank
	// external id.
	ResolveForWrite(ctx context.Context, params ResolveParams) (snowflake.ID, error)

	// ResolveForRead resolves params for a read-only endpoint: never
	// creates, returns ErrIdentityNotFound if nothing is linked.
	ResolveForRead(ctx context.Context, params ResolveParams) (snowflake.ID, error)

	// GetIdentity looks up an ExternalIdentity row without resolving to a
	// user. Never creates.
	GetIdentity(ctx context.Context, provider, externalID string) (*ExternalIdentity, error)

	// BackfillIdentities re-resolves every ExternalIdentity row whose
	// user_id is still null against the write path, materializing a user
	// for each. Returns the count of rows linked. Supplemented admin
	// maintenance operation (POST /admin/identities/backfill).
	BackfillIdentities(ctx context.Context, limit int) (int, error)
}
