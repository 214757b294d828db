package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/linguaspark/linguaspark-go/internal/domain"
)

// TracerName is the instrumentation scope of every span in this module.
const TracerName = "linguaspark"

// Tracer returns the module tracer from the global provider. With no SDK
// installed the spans are no-ops.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// InitPropagator sets up the global text map propagator.
// Hosts that forward trace context across processes call this once.
func InitPropagator() {
	otel.SetTextMapPropagator(propagation.TraceContext{})
}

// StartPair starts a span tagged with the language pair.
func StartPair(ctx context.Context, name string, pair domain.LanguagePair, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("linguaspark.from", pair.From),
		attribute.String("linguaspark.to", pair.To),
	)
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err (if any) on span and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if code := domain.CodeOf(err); code != "" {
			span.SetAttributes(attribute.String("linguaspark.error_code", string(code)))
		}
	}
	span.End()
}

// TraceID extracts the trace ID from the active span.
// Returns empty string if there is none.
func TraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}

// SpanID extracts the span ID from the active span.
func SpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasSpanID() {
		return span.SpanContext().SpanID().String()
	}
	return ""
}
