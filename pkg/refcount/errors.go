package refcount

import (
	"errors"
	"fmt"
)

// ViolationKind classifies misuse of the increment/decrement protocol.
type ViolationKind int

const (
	// NullIdentity is an increment or decrement of the absent (zero) identity.
	// It is defined as a no-op and never reported.
	NullIdentity ViolationKind = iota

	// UnregisteredDecrement is a decrement of an identity with no live entry.
	UnregisteredDecrement

	// InvariantViolation is a count observed at or below zero on an entry, or
	// an increment that would overflow the count.
	InvariantViolation
)

// String returns the kind name.
func (k ViolationKind) String() string {
	switch k {
	case NullIdentity:
		return "NullIdentity"
	case UnregisteredDecrement:
		return "UnregisteredDecrement"
	case InvariantViolation:
		return "InvariantViolation"
	default:
		return "Unknown"
	}
}

// Sentinel errors for violations, matched via errors.Is on a *ViolationError.
var (
	// ErrUnregisteredDecrement indicates Decrement on an untracked identity.
	ErrUnregisteredDecrement = errors.New("decrement of unregistered identity")

	// ErrInvariantViolation indicates a non-positive or overflowing count.
	ErrInvariantViolation = errors.New("reference count invariant violated")
)

// ViolationError describes one protocol violation.
// Violations are never returned from Increment or Decrement; they are
// logged and delivered to the handler set with WithViolationHandler.
type ViolationError struct {
	// Kind is the violation class.
	Kind ViolationKind
	// Registry is the name of the registry that observed it.
	Registry string
	// Identity is the formatted identity.
	Identity string
	// Count is the count observed on the entry (0 when untracked).
	Count int64
}

// Error implements the error interface.
func (e *ViolationError) Error() string {
	return fmt.Sprintf("registry %s: %s: identity %s (count %d)", e.Registry, e.Kind, e.Identity, e.Count)
}

// Unwrap returns the sentinel for the violation kind.
func (e *ViolationError) Unwrap() error {
	switch e.Kind {
	case UnregisteredDecrement:
		return ErrUnregisteredDecrement
	case InvariantViolation:
		return ErrInvariantViolation
	default:
		return nil
	}
}

// ReclaimError wraps a failure of the reclamation action.
// The entry is already released when this is returned; it is not retried.
type ReclaimError struct {
	// Identity is the formatted identity that was being reclaimed.
	Identity string
	// Err is the error returned by the reclaimer.
	Err error
}

// Error implements the error interface.
func (e *ReclaimError) Error() string {
	return fmt.Sprintf("reclaim %s: %v", e.Identity, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ReclaimError) Unwrap() error {
	return e.Err
}
