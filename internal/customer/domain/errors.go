package domain

import "errors"

var (
	// ErrSameUser is returned when target and source are the same user.
	ErrSameUser = errors.New("target and source users must be different")
	// ErrUserNotFound is returned when either user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrIdentityConflict is returned when both users hold a different
	// external_id for the same provider — merge_customers' "real conflict"
	// case, which aborts the whole merge rather than silently dropping data.
	ErrIdentityConflict = errors.New("identity conflict: both users have different external ids for the same provider")
)
