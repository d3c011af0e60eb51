package refcount

import (
	"time"

	"github.com/google/uuid"
	"github.com/randalmurphal/refcount/pkg/refcount/diagnostics"
	"github.com/randalmurphal/refcount/pkg/refcount/observability"
)

// Report builds a diagnostics report from the current state.
// It never changes registry state.
func (r *Registry[K]) Report() diagnostics.Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep := diagnostics.Report{
		ID:             uuid.New().String(),
		Registry:       r.name,
		CreatedAt:      time.Now().UTC(),
		DiagnosticMode: r.diagnostic,
		Created:        r.stats.Created,
		Reclaimed:      r.stats.Reclaimed,
		Increments:     r.stats.Increments,
		Decrements:     r.stats.Decrements,
		Violations:     r.stats.Violations,
		PeakLive:       r.stats.PeakLive,
	}

	var residuals []int64
	for _, e := range r.entries {
		if e.reclaimed {
			rep.Retained++
			continue
		}
		rep.Leaked++
		if r.diagnostic {
			residuals = append(residuals, e.count)
		}
	}
	rep.MeanResidual, rep.MaxResidual = diagnostics.Residuals(residuals)
	return rep
}

// Close emits the teardown report to the logger and, if configured, the
// report store. Only the first call produces a report; later calls return it
// again. Tracked entries are not reclaimed.
func (r *Registry[K]) Close() diagnostics.Report {
	r.closeOnce.Do(func() {
		r.final = r.Report()
		observability.LogReport(r.logger, r.final)

		if r.store != nil {
			if err := r.store.Save(r.final); err != nil {
				observability.LogReportStoreError(r.logger, r.final.ID, err)
			}
		}
	})
	return r.final
}
