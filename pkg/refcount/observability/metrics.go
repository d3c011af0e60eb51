package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records registry metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordIncrement records an increment. created is true when the
	// increment started a new lifecycle.
	RecordIncrement(ctx context.Context, registry string, created bool)

	// RecordDecrement records a decrement that found a tracked entry.
	RecordDecrement(ctx context.Context, registry string)

	// RecordReclaim records a reclamation with its duration and error status.
	RecordReclaim(ctx context.Context, registry string, duration time.Duration, err error)

	// RecordViolation records a protocol violation of the given kind.
	RecordViolation(ctx context.Context, registry, kind string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	increments     metric.Int64Counter
	decrements     metric.Int64Counter
	live           metric.Int64UpDownCounter
	reclaims       metric.Int64Counter
	reclaimErrors  metric.Int64Counter
	reclaimLatency metric.Float64Histogram
	violations     metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the instruments on the global provider.
// Registries share them and are told apart by the registry attribute.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics(otel.GetMeterProvider().Meter(instrumentationName))
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {

	increments, err := meter.Int64Counter("refcount.increments",
		metric.WithDescription("Number of increments on non-absent identities"),
	)
	if err != nil {
		return nil, err
	}

	decrements, err := meter.Int64Counter("refcount.decrements",
		metric.WithDescription("Number of decrements on tracked identities"),
	)
	if err != nil {
		return nil, err
	}

	live, err := meter.Int64UpDownCounter("refcount.live",
		metric.WithDescription("Number of currently tracked identities"),
	)
	if err != nil {
		return nil, err
	}

	reclaims, err := meter.Int64Counter("refcount.reclaims",
		metric.WithDescription("Number of reclamation actions run"),
	)
	if err != nil {
		return nil, err
	}

	reclaimErrors, err := meter.Int64Counter("refcount.reclaim.errors",
		metric.WithDescription("Number of failed reclamation actions"),
	)
	if err != nil {
		return nil, err
	}

	reclaimLatency, err := meter.Float64Histogram("refcount.reclaim.latency_ms",
		metric.WithDescription("Reclamation action latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	violations, err := meter.Int64Counter("refcount.violations",
		metric.WithDescription("Number of protocol violations"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		increments:     increments,
		decrements:     decrements,
		live:           live,
		reclaims:       reclaims,
		reclaimErrors:  reclaimErrors,
		reclaimLatency: reclaimLatency,
		violations:     violations,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder backed by the global OTel
// meter provider. If instrument creation fails it logs a warning and returns
// a no-op recorder.
//
// Instruments are created once per process, so set the provider first:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// NewMetricsRecorderFor returns a MetricsRecorder with its own instruments
// on the given provider.
func NewMetricsRecorderFor(mp metric.MeterProvider) (MetricsRecorder, error) {
	m, err := newOtelMetrics(mp.Meter(instrumentationName))
	if err != nil {
		return nil, fmt.Errorf("create refcount instruments: %w", err)
	}
	return m, nil
}

func (m *otelMetrics) RecordIncrement(ctx context.Context, registry string, created bool) {
	attrs := metric.WithAttributes(attribute.String("registry", registry))
	m.increments.Add(ctx, 1, attrs)
	if created {
		m.live.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordDecrement(ctx context.Context, registry string) {
	m.decrements.Add(ctx, 1, metric.WithAttributes(attribute.String("registry", registry)))
}

func (m *otelMetrics) RecordReclaim(ctx context.Context, registry string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("registry", registry))

	m.reclaims.Add(ctx, 1, attrs)
	m.live.Add(ctx, -1, attrs)
	m.reclaimLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)

	if err != nil {
		m.reclaimErrors.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordViolation(ctx context.Context, registry, kind string) {
	m.violations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("registry", registry),
		attribute.String("kind", kind),
	))
}
