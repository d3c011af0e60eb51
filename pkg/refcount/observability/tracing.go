package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationName scopes the tracer and meter.
const instrumentationName = "github.com/randalmurphal/refcount"

// Span and event names.
const (
	SpanReclaim    = "refcount.reclaim"
	SpanViolation  = "refcount.violation"
	EventViolation = "violation"
)

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartReclaimSpan starts a span around a reclamation action.
	StartReclaimSpan(ctx context.Context, registry, identity string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// RecordViolation records a violation event. The event is added to the
	// span active in ctx when it is recording; otherwise a short
	// refcount.violation span carries it.
	RecordViolation(ctx context.Context, registry, kind, identity string, count int64)
}

type otelSpanManager struct {
	tracer trace.Tracer
}

// NewSpanManager returns a SpanManager on the global tracer provider.
// The provider is resolved on every span, so it may be set later.
func NewSpanManager() SpanManager {
	return &otelSpanManager{tracer: otel.Tracer(instrumentationName)}
}

// NewSpanManagerFor returns a SpanManager on the given tracer provider.
func NewSpanManagerFor(tp trace.TracerProvider) SpanManager {
	return &otelSpanManager{tracer: tp.Tracer(instrumentationName)}
}

func (m *otelSpanManager) StartReclaimSpan(ctx context.Context, registry, identity string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, SpanReclaim,
		trace.WithAttributes(
			attribute.String("refcount.registry", registry),
			attribute.String("refcount.identity", identity),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (m *otelSpanManager) RecordViolation(ctx context.Context, registry, kind, identity string, count int64) {
	event := trace.WithAttributes(
		attribute.String("refcount.registry", registry),
		attribute.String("refcount.violation", kind),
		attribute.String("refcount.identity", identity),
		attribute.Int64("refcount.count", count),
	)

	if parent := trace.SpanFromContext(ctx); parent.IsRecording() {
		parent.AddEvent(EventViolation, event)
		return
	}

	_, span := m.tracer.Start(ctx, SpanViolation, trace.WithSpanKind(trace.SpanKindInternal))
	span.AddEvent(EventViolation, event)
	span.SetStatus(codes.Error, kind)
	span.End()
}
