package epoch

import "sync/atomic"

// Ptr is an atomically-published owning pointer, the Go realization of
// spec.md's AtomicPtr<T>. It is a thin wrapper over atomic.Pointer[T];
// the wrapping exists only to keep call sites in the parent package
// talking in terms of the spec's vocabulary (Load/Store/CompareAndSwap/
// Swap) rather than reaching into sync/atomic directly, and to make it
// obvious at each call site which pointers participate in the
// publish/reclaim protocol.
//
// Unlike crossbeam's AtomicPtr, Ptr's methods do not take a Guard: Go's
// garbage collector guarantees that a pointer loaded here stays valid for
// as long as the caller holds the returned value, with no additional
// pinning required for memory safety. A Guard is still required by the
// surrounding Map API, but only to decide *when it is safe to schedule a
// cleanup* for a value this Ptr detaches (see Guard.Retire) — not to make
// the Load itself safe.
type Ptr[T any] struct {
	p atomic.Pointer[T]
}

// Load returns the current value, or nil if none has been stored.
func (p *Ptr[T]) Load() *T {
	return p.p.Load()
}

// Store unconditionally publishes v.
func (p *Ptr[T]) Store(v *T) {
	p.p.Store(v)
}

// CompareAndSwap performs the pointer CAS spec.md's entry state machine
// is built from.
func (p *Ptr[T]) CompareAndSwap(old, new *T) bool {
	return p.p.CompareAndSwap(old, new)
}

// Swap unconditionally publishes new and returns the previous value.
func (p *Ptr[T]) Swap(new *T) *T {
	return p.p.Swap(new)
}
