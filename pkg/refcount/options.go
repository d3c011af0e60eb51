package refcount

import (
	"log/slog"
	"os"

	"github.com/randalmurphal/refcount/pkg/refcount/config"
	"github.com/randalmurphal/refcount/pkg/refcount/diagnostics"
)

// ExitCodeViolation is the process exit status used by strict mode.
const ExitCodeViolation = 2

// options holds registry configuration collected from Option values.
type options struct {
	name        string
	diagnostic  bool
	strict      bool
	metrics     bool
	tracing     bool
	reclaimer   any // Reclaimer[K]; checked in New
	logger      *slog.Logger
	store       diagnostics.Store
	onViolation func(*ViolationError)
	exit        func(code int)
}

// defaultOptions returns the default registry configuration.
func defaultOptions() options {
	return options{
		name:   "default",
		logger: slog.Default(),
		exit:   os.Exit,
	}
}

// Option configures a Registry.
type Option func(*options)

// WithName sets the registry name used in logs, metrics and reports.
// Default: "default"
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithDiagnosticMode keeps reclaimed entries visible at count zero and
// adds residual statistics to reports.
// Default: false
func WithDiagnosticMode(enabled bool) Option {
	return func(o *options) {
		o.diagnostic = enabled
	}
}

// WithStrictMode turns protocol violations into process termination.
// Default: false (violations are logged and tolerated)
func WithStrictMode(enabled bool) Option {
	return func(o *options) {
		o.strict = enabled
	}
}

// WithReclaimer sets the reclamation action.
// Default: DefaultReclaimer
//
// The type parameter must match the registry's identity type:
//
//	heap := alloc.NewHeap()
//	reg := refcount.New[alloc.Handle](refcount.WithReclaimer[alloc.Handle](heap))
func WithReclaimer[K comparable](r Reclaimer[K]) Option {
	return func(o *options) {
		if r != nil {
			o.reclaimer = r
		}
	}
}

// WithReclaimFunc sets the reclamation action from a function.
//
//	reg := refcount.New[alloc.Handle](refcount.WithReclaimFunc(heap.Reclaim))
func WithReclaimFunc[K comparable](fn func(id K) error) Option {
	return func(o *options) {
		if fn != nil {
			o.reclaimer = ReclaimFunc[K](fn)
		}
	}
}

// WithLogger sets the logging sink.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics enables OpenTelemetry metrics using the global meter provider.
// Default: false
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.metrics = enabled
	}
}

// WithTracing enables OpenTelemetry spans around reclamation and on violations.
// Default: false
func WithTracing(enabled bool) Option {
	return func(o *options) {
		o.tracing = enabled
	}
}

// WithReportStore persists the report produced by Close.
func WithReportStore(store diagnostics.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithViolationHandler registers a callback invoked for every reported
// violation. It runs under the registry lock and must not re-enter the registry.
func WithViolationHandler(fn func(*ViolationError)) Option {
	return func(o *options) {
		o.onViolation = fn
	}
}

// WithExitFunc replaces os.Exit for strict-mode termination.
// If the function returns, the registry continues as in non-strict mode.
func WithExitFunc(fn func(code int)) Option {
	return func(o *options) {
		if fn != nil {
			o.exit = fn
		}
	}
}

// WithSettings applies file-loaded settings: name, diagnostic mode, strict
// mode, metrics and tracing. Logger and report store are configured separately.
func WithSettings(s config.Settings) Option {
	return func(o *options) {
		if s.Name != "" {
			o.name = s.Name
		}
		o.diagnostic = s.DiagnosticMode
		o.strict = s.StrictMode
		o.metrics = s.Metrics
		o.tracing = s.Tracing
	}
}
