/*
Package refcount provides a thread-safe registry of explicit reference counts
for manually allocated objects.

# Overview

A Registry maps an identity (any comparable value: a pointer, a handle, an
arena index) to the number of outstanding holders. Holders call Increment to
take a reference and Decrement to drop it. The Decrement that takes a count
from one to zero runs the registry's reclamation action exactly once, and the
identity becomes untracked. A later Increment starts a new, independent
lifecycle.

# Basic Usage

	heap := alloc.NewHeap()
	reg := refcount.New[alloc.Handle](
	    refcount.WithName("buffers"),
	    refcount.WithReclaimFunc(heap.Reclaim),
	)
	defer reg.Close()

	h := heap.Alloc(4096)
	reg.Increment(h) // owner
	reg.Increment(h) // shared with a worker

	go func() {
	    // ... use the buffer ...
	    reg.Decrement(h)
	}()

	reg.Decrement(h) // whoever is last frees the buffer

# Reclamation

The default reclaimer calls Free() error, Free() or Close() on the identity
when it has one, and otherwise does nothing. Use WithReclaimer or
WithReclaimFunc to plug in an arena, pool or custom allocator.

The reclamation action runs while the registry lock is held. It must be
short, and it must not call Increment, Decrement or any other method of the
same registry: doing so deadlocks. An error from the action is returned from
the Decrement that triggered it as a *ReclaimError; it is not retried.

# Violations

Decrementing an untracked identity (UnregisteredDecrement) and observing a
count at or below zero, or one about to overflow (InvariantViolation), are
protocol violations. They never come back as errors. By default they are
logged and the registry is left unchanged. With WithStrictMode(true) the
process exits with ExitCodeViolation after logging.

The zero value of the identity type is the absent identity. Increment and
Decrement ignore it.

# Diagnostics

Close logs a diagnostics.Report with created/reclaimed counts and the number
of leaked entries, and saves it to the store set with WithReportStore. With
WithDiagnosticMode(true), reclaimed entries stay visible at count zero
(see Inspect) and reports carry the mean and max residual count of leaked
entries.

# Caller Obligations

The registry decides when to release; it does not make concurrent access
safe. A goroutine must not use an identity after a Decrement that may have
been the last one, and must not use an identity it holds no reference to.
*/
package refcount
