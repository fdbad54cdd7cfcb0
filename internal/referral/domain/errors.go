package domain

import "errors"

var (
	// ErrSelfReferral is returned when referrer and referee resolve to the
	// same user.
	ErrSelfReferral = errors.New("a user cannot refer themself")
	// ErrIdentityNotFound is returned by the external-id mode, which is
	// lookup-only: a missing identity fails the call rather than creating
	// a user (spec §4.5).
	ErrIdentityNotFound = errors.New("referral identity not found")
	// ErrTrialAlreadyUsed is returned when any supplied identity already
	// has a TrialHistory row.
	ErrTrialAlreadyUsed = errors.New("trial_already_used")
	// ErrTrialOfferNotFound is returned when the named trial SKU does not
	// resolve to an offer.
	ErrTrialOfferNotFound = errors.New("trial offer not found")
	// ErrNoIdentities is returned when a trial grant call supplies no
	// identities to hash and record.
	ErrNoIdentities = errors.New("at least one identity is required for a trial grant")
)
