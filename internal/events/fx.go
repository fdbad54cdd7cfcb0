package events

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("events",
	fx.Provide(New),
	fx.Invoke(registerAuditSubscriber),
)

// registerAuditSubscriber wires a structured-logging handler for every
// event type the bus knows about, so operators get a durable trail of
// billing-relevant state changes even before any outbox or webhook
// subscriber exists.
func registerAuditSubscriber(bus *Bus, log *zap.Logger) {
	audit := log.Named("audit")
	handler := func(ctx context.Context, evt Event) {
		fields := make([]zap.Field, 0, len(evt.Payload)+1)
		fields = append(fields, zap.String("event_type", string(evt.Type)))
		for k, v := range evt.Payload {
			fields = append(fields, zap.Any(k, v))
		}
		audit.Info("domain event", fields...)
	}

	for _, t := range []Type{
		OrderConfirmed,
		TransactionCreated,
		QuotaConsumed,
		TrialActivated,
		ReferralAttached,
		CustomersMerged,
	} {
		bus.Subscribe(t, handler)
	}
}
