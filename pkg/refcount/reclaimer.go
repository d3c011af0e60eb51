package refcount

import "io"

// Reclaimer releases the resource behind an identity once its count reaches zero.
//
// Reclaim runs while the registry lock is held. It must be fast and must not
// call back into the same registry, or the calling goroutine deadlocks.
type Reclaimer[K comparable] interface {
	Reclaim(id K) error
}

// ReclaimFunc adapts a function to the Reclaimer interface.
type ReclaimFunc[K comparable] func(id K) error

// Reclaim calls f(id).
func (f ReclaimFunc[K]) Reclaim(id K) error {
	return f(id)
}

// DefaultReclaimer frees identities that know how to free themselves.
//
// Identities implementing Free() error, Free() or io.Closer are released
// through that method. Anything else is left to the garbage collector.
type DefaultReclaimer[K comparable] struct{}

// Reclaim implements Reclaimer.
func (DefaultReclaimer[K]) Reclaim(id K) error {
	switch v := any(id).(type) {
	case interface{ Free() error }:
		return v.Free()
	case interface{ Free() }:
		v.Free()
		return nil
	case io.Closer:
		return v.Close()
	}
	return nil
}
