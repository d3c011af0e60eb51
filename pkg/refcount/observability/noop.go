package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	_ MetricsRecorder = NoopMetrics{}
	_ SpanManager     = NoopSpanManager{}
)

// NoopMetrics discards all measurements. It is the default when metrics are off.
type NoopMetrics struct{}

func (NoopMetrics) RecordIncrement(context.Context, string, bool) {}
func (NoopMetrics) RecordDecrement(context.Context, string) {}
func (NoopMetrics) RecordReclaim(context.Context, string, time.Duration, error) {}
func (NoopMetrics) RecordViolation(context.Context, string, string) {}

// NoopSpanManager creates non-recording spans. It is the default when
// tracing is off; registries check for it to skip formatting identities.
type NoopSpanManager struct{}

func (NoopSpanManager) StartReclaimSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noop.Span{}
}

func (NoopSpanManager) EndSpanWithError(trace.Span, error) {}
func (NoopSpanManager) RecordViolation(context.Context, string, string, string, int64) {}
