// Package idgen generates time-ordered 128-bit identifiers for ledger rows.
package idgen

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ULIDGenerator produces monotonically increasing ULIDs so that ids
// generated within the same millisecond still sort by generation order —
// the tie-break FIFO consumption relies on (see ledger CONSUME).
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewULIDGenerator returns a process-wide ULID generator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// New returns a new ULID for the given instant.
func (g *ULIDGenerator) New(at time.Time) ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at.UTC()), g.entropy)
}

// NewNow returns a new ULID stamped with the current time.
func (g *ULIDGenerator) NewNow() ulid.ULID {
	return g.New(time.Now())
}
