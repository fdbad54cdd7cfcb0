package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
)

// Identity is one (type, value) pair to hash and check/record against
// TrialHistory. The caller assembles the set for a user; the HTTP layer
// passes the user's own id plus the external identity named on the
// request.
type Identity struct {
	Type  string
	Value string
}

// CreateReferralParams selects one of the two assignment modes described
// in spec §4.5. If ReferrerID/RefereeID are set, local-id mode is used.
// Otherwise Provider+ReferrerExternalID+RefereeExternalID is used, which
// is lookup-only: a missing identity fails with ErrIdentityNotFound
// rather than creating a user.
type CreateReferralParams struct {
	ReferrerID *snowflake.ID
	RefereeID  *snowflake.ID

	Provider           string
	ReferrerExternalID string
	RefereeExternalID  string

	Metadata map[string]any
}

// CreateReferralResult reports whether this call created the row (for the
// idempotent-duplicate case, Created is false on a repeat call).
type CreateReferralResult struct {
	Referral *Referral
	Created  bool
}

// Stats summarizes a referrer's referral activity. RefereeIDs is a
// pq.StringArray rather than a plain []string so the same field shape
// round-trips if this summary is ever persisted to a reporting table on
// Postgres, matching api_key_auth.go's Scopes convention.
type Stats struct {
	ReferrerID     snowflake.ID
	TotalReferred  int64
	BonusesGranted int64
	RefereeIDs     pq.StringArray
}

// Service implements referral assignment and the trial-reuse guard
// described in spec §4.5.
type Service interface {
	// CreateReferral resolves referrer/referee per the selected mode,
	// rejects self-referral, and is idempotent on a repeat (referrer,
	// referee) pair. Publishes referral_attached on first creation only.
	CreateReferral(ctx context.Context, params CreateReferralParams) (*CreateReferralResult, error)

	// GetStats returns referral counts for a referrer.
	GetStats(ctx context.Context, referrerID snowflake.ID) (*Stats, error)

	// GrantTrial checks identities against TrialHistory, grants the named
	// offer to userID on first use, records one TrialHistory row per
	// identity, and publishes trial_activated. Fails with
	// ErrTrialAlreadyUsed if any identity was already used.
	GrantTrial(ctx context.Context, userID snowflake.ID, sku string, identities []Identity) error
}
