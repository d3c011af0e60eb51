// Package diagnostics holds registry teardown reports and the stores that keep
// them for leak auditing across runs.
package diagnostics

import (
	"errors"
	"fmt"
	"time"
)

// Report summarizes a registry's lifetime statistics.
// Residual fields are only populated when the registry ran in diagnostic mode.
type Report struct {
	ID             string    `json:"id"`
	Registry       string    `json:"registry"`
	CreatedAt      time.Time `json:"created_at"`
	DiagnosticMode bool      `json:"diagnostic_mode"`

	// Created counts absent-to-tracked transitions.
	Created int64 `json:"created"`
	// Reclaimed counts tracked-to-zero transitions.
	Reclaimed int64 `json:"reclaimed"`
	// Leaked is the number of entries still tracked at report time.
	Leaked int `json:"leaked"`
	// Retained is the number of zero-count entries kept for inspection.
	Retained int `json:"retained"`

	Increments int64 `json:"increments"`
	Decrements int64 `json:"decrements"`
	Violations int64 `json:"violations"`
	PeakLive   int   `json:"peak_live"`

	MeanResidual float64 `json:"mean_residual"`
	MaxResidual  int64   `json:"max_residual"`
}

// HasLeaks reports whether any entry never reached zero.
func (r Report) HasLeaks() bool {
	return r.Leaked > 0
}

// String renders a single-line summary.
func (r Report) String() string {
	s := fmt.Sprintf("registry %s: created=%d reclaimed=%d leaked=%d violations=%d",
		r.Registry, r.Created, r.Reclaimed, r.Leaked, r.Violations)
	if r.DiagnosticMode {
		s += fmt.Sprintf(" retained=%d mean_residual=%.2f max_residual=%d",
			r.Retained, r.MeanResidual, r.MaxResidual)
	}
	return s
}

// Residuals computes mean and max of the given leaked counts.
func Residuals(counts []int64) (mean float64, max int64) {
	if len(counts) == 0 {
		return 0, 0
	}
	var sum int64
	for _, c := range counts {
		sum += c
		if c > max {
			max = c
		}
	}
	return float64(sum) / float64(len(counts)), max
}

// Sentinel errors for report storage.
var (
	// ErrNotFound indicates a report doesn't exist.
	ErrNotFound = errors.New("report not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("report store closed")

	// ErrMissingID indicates a report without an ID was saved.
	ErrMissingID = errors.New("report id required")
)
