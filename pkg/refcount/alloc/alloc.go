// Package alloc provides manual allocators whose handles are tracked by a
// refcount.Registry. Each allocator's Reclaim method releases one handle and
// can be passed directly as the registry's reclaimer:
//
//	heap := alloc.NewHeap()
//	reg := refcount.New[alloc.Handle](refcount.WithReclaimer[alloc.Handle](heap))
//
//	h := heap.Alloc(4096)
//	reg.Increment(h)
//	...
//	reg.Decrement(h) // last holder frees the buffer
package alloc

import (
	"errors"
	"fmt"
)

// Handle identifies one allocation. The zero Handle is never issued.
type Handle uint64

// String renders the handle in hex.
func (h Handle) String() string {
	return fmt.Sprintf("0x%x", uint64(h))
}

// Valid reports whether h could have been issued by an allocator.
func (h Handle) Valid() bool {
	return h != 0
}

// Sentinel errors for allocators.
var (
	// ErrInvalidHandle indicates a handle that is not currently allocated.
	ErrInvalidHandle = errors.New("invalid handle")

	// ErrArenaFull indicates every arena slot is in use.
	ErrArenaFull = errors.New("arena full")

	// ErrSizeTooLarge indicates a request larger than the allocator's fixed size.
	ErrSizeTooLarge = errors.New("requested size too large")
)
