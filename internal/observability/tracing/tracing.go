// Package tracing wires an OpenTelemetry tracer provider for the HTTP
// surface, grounded on pkg/telemetry/telemetry.go in smallbiznis-valora
// (resource.New + sdktrace.NewTracerProvider, registered as the global
// provider via otel.SetTracerProvider and shut down on fx.Lifecycle
// OnStop), trimmed to a batchless provider since no OTLP exporter ships
// in this module's dependency set (see DESIGN.md's Tracing entry for why
// otlptracegrpc was not pulled in alongside it).
package tracing

import (
	"context"

	"github.com/railzway/billing/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the process-wide TracerProvider.
var Module = fx.Options(
	fx.Provide(NewTracerProvider),
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)

// NewTracerProvider builds a resource-tagged TracerProvider and installs
// it as the global provider gin's middleware pulls from.
func NewTracerProvider(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*sdktrace.TracerProvider, error) {
	res, err := sdkresource.New(context.Background(),
		sdkresource.WithAttributes(
			attribute.String("service.name", cfg.AppName),
			attribute.String("service.version", cfg.AppVersion),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down tracer provider")
			return tp.Shutdown(ctx)
		},
	})

	log.Info("tracing initialized", zap.String("endpoint", cfg.OTLPEndpoint))
	return tp, nil
}
