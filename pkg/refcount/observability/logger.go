// Package observability provides logging, metrics and tracing for reference
// count registries.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/refcount/pkg/refcount/diagnostics"
)

// EnrichLogger adds registry context to a logger.
func EnrichLogger(logger *slog.Logger, registry string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("registry", registry))
}

// LogTracked logs the start of a new lifecycle for an identity.
func LogTracked(logger *slog.Logger, identity string) {
	if logger == nil {
		return
	}
	logger.Debug("identity tracked",
		slog.String("identity", identity),
	)
}

// LogReclaimed logs a successful reclamation.
func LogReclaimed(logger *slog.Logger, identity string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("identity reclaimed",
		slog.String("identity", identity),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogReclaimError logs a failed reclamation action.
func LogReclaimError(logger *slog.Logger, identity string, err error) {
	if logger == nil {
		return
	}
	logger.Error("reclamation failed",
		slog.String("identity", identity),
		slog.String("error", err.Error()),
	)
}

// LogViolation logs a protocol violation.
// Fatal violations (strict mode) are logged at error level, the rest as warnings.
func LogViolation(logger *slog.Logger, kind, identity string, count int64, fatal bool) {
	if logger == nil {
		return
	}
	level := slog.LevelWarn
	msg := "refcount protocol violation"
	if fatal {
		level = slog.LevelError
		msg = "refcount protocol violation, terminating"
	}
	logger.Log(context.Background(), level, msg,
		slog.String("kind", kind),
		slog.String("identity", identity),
		slog.Int64("count", count),
	)
}

// LogReport logs a registry diagnostics report.
// Reports with leaks are logged at warn level.
func LogReport(logger *slog.Logger, r diagnostics.Report) {
	if logger == nil {
		return
	}
	attrs := []any{
		slog.String("report_id", r.ID),
		slog.Int64("created", r.Created),
		slog.Int64("reclaimed", r.Reclaimed),
		slog.Int("leaked", r.Leaked),
		slog.Int64("violations", r.Violations),
		slog.Int("peak_live", r.PeakLive),
	}
	if r.DiagnosticMode {
		attrs = append(attrs,
			slog.Int("retained", r.Retained),
			slog.Float64("mean_residual", r.MeanResidual),
			slog.Int64("max_residual", r.MaxResidual),
		)
	}
	if r.HasLeaks() {
		logger.Warn("registry report: leaked entries", attrs...)
		return
	}
	logger.Info("registry report", attrs...)
}

// LogReportStoreError logs a failure to persist a report (non-fatal).
func LogReportStoreError(logger *slog.Logger, reportID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("report store failed",
		slog.String("report_id", reportID),
		slog.String("error", err.Error()),
	)
}
