package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "contentforge"

// EnvironmentAttr is the span attribute naming an environment.
func EnvironmentAttr(id string) attribute.KeyValue {
	return attribute.String("environment.id", id)
}

// StartEnvironmentSpan starts a span for an environment lifecycle operation.
// id may be empty when the environment does not exist yet.
func StartEnvironmentSpan(ctx context.Context, name, id string) (context.Context, trace.Span) {
	var opts []trace.SpanStartOption
	if id != "" {
		opts = append(opts, trace.WithAttributes(EnvironmentAttr(id)))
	}
	return otel.Tracer(tracerName).Start(ctx, name, opts...)
}

// StartCopySpan starts a span for copying content between two environments.
func StartCopySpan(ctx context.Context, from, to string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "content.copy",
		trace.WithAttributes(
			attribute.String("copy.from", from),
			attribute.String("copy.to", to),
		),
	)
}
