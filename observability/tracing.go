// Package observability provides injector middleware that exports
// Prometheus metrics and OpenTelemetry spans for service resolution.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/xraph/injector"
)

// TracerName is the instrumentation name used for spans.
const TracerName = "github.com/xraph/injector"

// Tracing is a resolve middleware that opens one span per resolve.
// Nested resolves performed by factories become child spans, so a
// trace shows the dependency walk.
type Tracing struct {
	tracer oteltrace.Tracer
}

// NewTracing creates tracing middleware. A nil provider uses the global one.
func NewTracing(provider oteltrace.TracerProvider) *Tracing {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}

	return &Tracing{
		tracer: provider.Tracer(TracerName),
	}
}

// BeforeResolve implements injector.Middleware.
func (t *Tracing) BeforeResolve(ctx context.Context, key injector.TypeKey) (context.Context, error) {
	ctx, _ = t.tracer.Start(ctx, "injector.resolve",
		oteltrace.WithAttributes(attribute.String("injector.key", key.Name())),
	)

	return ctx, nil
}

// AfterResolve implements injector.Middleware.
func (t *Tracing) AfterResolve(ctx context.Context, _ injector.TypeKey, instance any, err error) error {
	span := oteltrace.SpanFromContext(ctx)
	defer span.End()

	span.SetAttributes(attribute.String("injector.outcome", Outcome(err)))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil
	}

	if instance != nil {
		span.SetAttributes(attribute.String("injector.type", fmt.Sprintf("%T", instance)))
	}

	return nil
}
