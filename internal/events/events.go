// Package events implements the billing engine's in-process domain event
// bus: a simple synchronous publish-after-commit, not a durable outbox.
// Subscribers run inline on the publishing goroutine after the enclosing
// database transaction has already committed, so they never observe
// uncommitted ledger state; they must not mutate ledger state directly,
// only enqueue further work (per the event bus Design Note).
package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Type identifies a domain event.
type Type string

const (
	OrderConfirmed    Type = "order_confirmed"
	TransactionCreated Type = "transaction_created"
	QuotaConsumed      Type = "quota_consumed"
	TrialActivated     Type = "trial_activated"
	ReferralAttached   Type = "referral_attached"
	CustomersMerged    Type = "customers_merged"
)

// Event is the payload handed to subscribers. Shape is grounded on the
// teacher's outbox event model (EventType + opaque payload map), stripped
// of the persistence/dedupe columns an outbox needs but a synchronous bus
// does not.
type Event struct {
	Type    Type
	Payload map[string]any
}

// Handler reacts to a published event. It must not return an error that
// would roll back anything - publication happens strictly after commit.
type Handler func(ctx context.Context, evt Event)

// Bus is a synchronous, in-process publish/subscribe registry.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
	log      *zap.Logger
}

// New constructs an empty Bus.
func New(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[Type][]Handler),
		log:      log.Named("events"),
	}
}

// Subscribe registers a handler for the given event type. Subscriptions are
// typically wired once at startup by fx.Invoke blocks.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// Publish invokes every handler registered for evt.Type, in registration
// order, on the calling goroutine. Callers must only invoke Publish after
// their enclosing transaction has committed.
func (b *Bus) Publish(ctx context.Context, evt Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[evt.Type]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, evt)
	}

	if len(handlers) == 0 {
		b.log.Debug("event published with no subscribers", zap.String("type", string(evt.Type)))
	}
}
