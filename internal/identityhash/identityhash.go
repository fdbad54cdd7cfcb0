// Package identityhash computes the canonical trial-identity hash shared
// by the identity resolver's trial_eligible echo and the referral
// package's trial-reuse guard, so the two call sites can never drift.
package identityhash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash returns the SHA-256 hex digest of the lower-cased, trimmed value.
// TrialHistory identity values are lower-cased before hashing — the one
// documented exception to the spec's otherwise case-sensitive storage
// convention.
func Hash(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
