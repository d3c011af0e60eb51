package refcount

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"sync"
	"time"

	"github.com/randalmurphal/refcount/pkg/refcount/diagnostics"
	"github.com/randalmurphal/refcount/pkg/refcount/observability"
)

// entry is the per-identity bookkeeping.
type entry struct {
	count      int64
	peak       int64
	lifecycles int64
	reclaimed  bool // diagnostic mode: retained at count zero
}

// Stats are lifetime counters of a registry. All fields except Live only grow.
type Stats struct {
	// Created counts absent-to-tracked transitions.
	Created int64
	// Reclaimed counts tracked-to-zero transitions.
	Reclaimed int64
	// Increments counts increments of non-absent identities that changed a count.
	Increments int64
	// Decrements counts decrements that found a tracked entry.
	Decrements int64
	// Violations counts reported protocol violations.
	Violations int64
	// Live is the number of currently tracked identities.
	Live int
	// PeakLive is the highest Live observed.
	PeakLive int
}

// EntryInfo describes one entry as seen by Inspect.
type EntryInfo struct {
	Count int64
	// Peak is the highest count reached. Lifecycles counts how many times the
	// identity went from absent to tracked. Both span lifecycles only in
	// diagnostic mode, where the entry outlives a reclamation.
	Peak       int64
	Lifecycles int64
	// Reclaimed is true for an entry retained at zero in diagnostic mode.
	Reclaimed bool
}

// Registry tracks reference counts for identities of type K and runs a
// reclamation action exactly once when a count drops from one to zero.
//
// All methods are safe for concurrent use. A single mutex serializes every
// mutation, including the reclamation action itself.
type Registry[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry
	stats   Stats

	name        string
	diagnostic  bool
	strict      bool
	reclaimer   Reclaimer[K]
	logger      *slog.Logger
	metrics     observability.MetricsRecorder
	spans       observability.SpanManager
	store       diagnostics.Store
	onViolation func(*ViolationError)
	exit        func(code int)

	closeOnce sync.Once
	final     diagnostics.Report
}

// New creates an empty registry.
//
// New panics if WithReclaimer or WithReclaimFunc was given a reclaimer for an
// identity type other than K.
func New[K comparable](opts ...Option) *Registry[K] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &Registry[K]{
		entries:     make(map[K]*entry),
		name:        o.name,
		diagnostic:  o.diagnostic,
		strict:      o.strict,
		reclaimer:   DefaultReclaimer[K]{},
		logger:      observability.EnrichLogger(o.logger, o.name),
		metrics:     observability.NoopMetrics{},
		spans:       observability.NoopSpanManager{},
		store:       o.store,
		onViolation: o.onViolation,
		exit:        o.exit,
	}

	if o.reclaimer != nil {
		rc, ok := o.reclaimer.(Reclaimer[K])
		if !ok {
			panic(fmt.Sprintf("refcount: reclaimer %T does not accept identity type %T", o.reclaimer, *new(K)))
		}
		r.reclaimer = rc
	}
	if o.metrics {
		r.metrics = observability.NewMetricsRecorder()
	}
	if o.tracing {
		r.spans = observability.NewSpanManager()
	}
	return r
}

// Name returns the registry name.
func (r *Registry[K]) Name() string {
	return r.name
}

// Increment registers one more holder of id.
//
// The zero value of K is the absent identity and is ignored. The first
// increment of an untracked identity starts a new lifecycle at count one.
func (r *Registry[K]) Increment(id K) {
	var zero K
	if id == zero {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	switch {
	case !ok || e.reclaimed:
		if !ok {
			e = &entry{}
			r.entries[id] = e
		}
		e.count = 1
		e.reclaimed = false
		e.lifecycles++
		e.peak = max(e.peak, 1)

		r.stats.Created++
		r.stats.Increments++
		r.stats.Live++
		r.stats.PeakLive = max(r.stats.PeakLive, r.stats.Live)

		r.metrics.RecordIncrement(context.Background(), r.name, true)
		if r.logger.Enabled(context.Background(), slog.LevelDebug) {
			observability.LogTracked(r.logger, formatIdentity(id))
		}

	case e.count <= 0, e.count == math.MaxInt64:
		r.violate(InvariantViolation, id, e.count)

	default:
		e.count++
		e.peak = max(e.peak, e.count)
		r.stats.Increments++
		r.metrics.RecordIncrement(context.Background(), r.name, false)
	}
}

// Decrement releases one holder of id.
//
// The decrement that takes the count from one to zero runs the reclamation
// action exactly once and then the identity is untracked (or, in diagnostic
// mode, retained at zero). Decrementing an untracked identity is a
// violation: it is logged and leaves the registry unchanged, or terminates
// the process in strict mode.
//
// The returned error is non-nil only when the reclamation action fails, and
// is then a *ReclaimError.
func (r *Registry[K]) Decrement(id K) error {
	var zero K
	if id == zero {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		r.violate(UnregisteredDecrement, id, 0)
		return nil
	}
	if e.reclaimed || e.count <= 0 {
		r.violate(InvariantViolation, id, e.count)
		return nil
	}

	r.stats.Decrements++
	r.metrics.RecordDecrement(context.Background(), r.name)

	if e.count > 1 {
		e.count--
		return nil
	}

	// Release bookkeeping before running the action so a panicking
	// reclaimer can't leave a zero-count entry behind.
	e.count = 0
	if r.diagnostic {
		e.reclaimed = true
	} else {
		delete(r.entries, id)
	}
	r.stats.Live--
	r.stats.Reclaimed++

	return r.reclaim(id)
}

// reclaim runs the reclamation action. Must hold r.mu.
func (r *Registry[K]) reclaim(id K) error {
	ctx := context.Background()
	debug := r.logger.Enabled(ctx, slog.LevelDebug)

	var ident string
	if debug || r.tracing() {
		ident = formatIdentity(id)
	}

	ctx, span := r.spans.StartReclaimSpan(ctx, r.name, ident)
	start := time.Now()
	err := r.reclaimer.Reclaim(id)
	elapsed := time.Since(start)
	r.spans.EndSpanWithError(span, err)
	r.metrics.RecordReclaim(ctx, r.name, elapsed, err)

	if err != nil {
		if ident == "" {
			ident = formatIdentity(id)
		}
		observability.LogReclaimError(r.logger, ident, err)
		return &ReclaimError{Identity: ident, Err: err}
	}

	if debug {
		observability.LogReclaimed(r.logger, ident, float64(elapsed.Microseconds())/1000)
	}
	return nil
}

// violate reports a protocol violation. Must hold r.mu.
func (r *Registry[K]) violate(kind ViolationKind, id K, count int64) {
	r.stats.Violations++

	verr := &ViolationError{
		Kind:     kind,
		Registry: r.name,
		Identity: formatIdentity(id),
		Count:    count,
	}

	ctx := context.Background()
	observability.LogViolation(r.logger, kind.String(), verr.Identity, count, r.strict)
	r.metrics.RecordViolation(ctx, r.name, kind.String())
	r.spans.RecordViolation(ctx, r.name, kind.String(), verr.Identity, count)

	if r.onViolation != nil {
		r.onViolation(verr)
	}
	if r.strict {
		r.exit(ExitCodeViolation)
	}
}

func (r *Registry[K]) tracing() bool {
	_, noop := r.spans.(observability.NoopSpanManager)
	return !noop
}

// Count returns the current count of id and whether it is tracked.
// Entries retained at zero in diagnostic mode report (0, false).
func (r *Registry[K]) Count(id K) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || e.reclaimed {
		return 0, false
	}
	return e.count, true
}

// Tracked returns true if id has a live entry.
func (r *Registry[K]) Tracked(id K) bool {
	_, ok := r.Count(id)
	return ok
}

// Inspect returns the bookkeeping for id, including entries retained at
// zero in diagnostic mode.
func (r *Registry[K]) Inspect(id K) (EntryInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return EntryInfo{}, false
	}
	return EntryInfo{
		Count:      e.count,
		Peak:       e.peak,
		Lifecycles: e.lifecycles,
		Reclaimed:  e.reclaimed,
	}, true
}

// Len returns the number of tracked identities.
func (r *Registry[K]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats.Live
}

// Stats returns a snapshot of the lifetime counters.
func (r *Registry[K]) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Range calls fn for every tracked identity and its count.
// If fn returns false, iteration stops.
//
// Range iterates over a snapshot taken under the lock, so fn may call
// back into the registry.
func (r *Registry[K]) Range(fn func(id K, count int64) bool) {
	type pair struct {
		id    K
		count int64
	}

	r.mu.Lock()
	snapshot := make([]pair, 0, r.stats.Live)
	for id, e := range r.entries {
		if !e.reclaimed {
			snapshot = append(snapshot, pair{id, e.count})
		}
	}
	r.mu.Unlock()

	for _, p := range snapshot {
		if !fn(p.id, p.count) {
			return
		}
	}
}

// formatIdentity renders an identity for logs. Pointers print as addresses.
func formatIdentity(id any) string {
	if s, ok := id.(fmt.Stringer); ok {
		return s.String()
	}
	switch reflect.ValueOf(id).Kind() {
	case reflect.Pointer, reflect.UnsafePointer:
		return fmt.Sprintf("%p", id)
	}
	return fmt.Sprintf("%v", id)
}
