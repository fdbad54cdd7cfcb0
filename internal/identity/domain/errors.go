package domain

import "errors"

var (
	// ErrEmptyExternalID is returned when a caller supplies a blank or
	// whitespace-only external_id to the write path.
	ErrEmptyExternalID = errors.New("external_id must not be empty")
	// ErrIdentityNotFound is returned by the read path when no identity or
	// linked user exists for the given provider/external_id. A supplied
	// user_id is returned as given, without a lookup.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrResolveParamsRequired is returned when neither a user id nor an
	// external id/provider pair is supplied to a resolve call.
	ErrResolveParamsRequired = errors.New("user_id or external_id is required")
)
