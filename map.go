// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package syncmap provides Map, a generic, concurrent associative map
// optimized for workloads where entries are written once and read many
// times, or where goroutines read, write, and overwrite disjoint key
// sets. It generalizes the read/dirty split of the standard library's
// sync.Map to arbitrary key/value type parameters and an explicit,
// pluggable reclamation collaborator (internal/epoch) in place of
// sync.Map's reliance on the Go runtime never moving or freeing a value
// while any goroutine might still hold it.
package syncmap

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/behrouz-rfa/syncmap/internal/epoch"
)

// Guard is an opaque token, bound to one Map's reclamation collector,
// that every load/store/delete/clear operation requires. While a Guard
// is alive, values the map has detached (overwritten or deleted) after
// the Guard was obtained are not reclaimed. Obtain one with Map.Guard and
// release it with Leave once done; a Guard must not outlive its intended
// use, since it keeps memory the map no longer needs pinned.
type Guard = epoch.Guard

// Map is a map[K]V safe for concurrent use by multiple goroutines without
// additional locking or coordination. Loads, stores, and deletes run in
// amortized constant time.
//
// Map is specialized for two common cases: (1) the entry for a key is
// written once and read many times, as in caches that only grow, or (2)
// many goroutines read, write, and overwrite entries for disjoint sets of
// keys. In both cases, Map can significantly reduce lock contention
// compared to a plain map guarded by a Mutex or RWMutex.
//
// The zero value is not ready for use; construct a Map with New or
// NewWithHasher. A Map must not be copied after first use.
type Map[K comparable, V any] struct {
	mu sync.Mutex

	// read holds the portion of the map that's safe to access without mu:
	// always safe to Load, only ever Stored while mu is held.
	read epoch.Ptr[readOnly[K, V]]

	// dirty holds the portion of the map that requires mu. It always
	// contains every non-expunged entry also in read. Mutated only while
	// mu is held.
	dirty map[K]*entry[V]

	// dirtyLen mirrors len(dirty) so Len can answer without taking mu, as
	// spec.md requires; see DESIGN.md for why a plain field read of
	// len(dirty) would not be race-free in Go the way it is in the
	// single-threaded-at-a-time original.
	dirtyLen atomic.Int64

	// misses counts loads since read was last updated that needed mu to
	// determine whether a key was present. Only ever touched under mu, so
	// a plain int suffices (spec.md §5 allows relaxed semantics here).
	misses int

	// flagCtl mediates the single-writer race to allocate the first read
	// snapshot and dirty overlay: negative while in progress, otherwise
	// the load-factor threshold hint stored by initTable. No other code
	// reads the stored threshold.
	flagCtl atomic.Int64

	hasher    Hasher[K]
	collector *epoch.Collector
}

// New creates an empty Map using the default Hasher.
func New[K comparable, V any]() *Map[K, V] {
	return NewWithHasher[K, V](defaultHasher[K]{})
}

// NewWithHasher creates an empty Map using h for Map.HashOf. The core
// algorithm does not call h itself; see Hasher's doc comment.
func NewWithHasher[K comparable, V any](h Hasher[K]) *Map[K, V] {
	return &Map[K, V]{
		hasher:    h,
		collector: epoch.NewCollector(),
	}
}

// Guard pins the calling goroutine against reclamation for this Map.
// Release it with Leave when done.
func (m *Map[K, V]) Guard() *Guard {
	return m.collector.Enter()
}

func (m *Map[K, V]) checkGuard(guard *Guard) {
	if guard == nil {
		panic("syncmap: nil Guard")
	}
	if c := guard.Collector(); c != nil && !epoch.PtrEqual(c, m.collector) {
		panic("syncmap: Guard belongs to a different Map")
	}
}

// HashOf exposes the map's configured Hasher for diagnostics. It plays no
// role in Load/Store/Delete, which key Go's native map[K]*entry[V]
// directly; see Hasher.
func (m *Map[K, V]) HashOf(key K) uint64 {
	return m.hasher.Hash(key)
}

// initTable allocates the first read snapshot and dirty overlay exactly
// once, resolving the race with a CAS on flagCtl rather than mu so that
// losing goroutines merely yield instead of blocking (spec.md §4.4).
func (m *Map[K, V]) initTable() *readOnly[K, V] {
	for {
		table := m.read.Load()
		if table != nil {
			return table
		}

		flag := m.flagCtl.Load()
		if flag < 0 {
			runtime.Gosched()
			continue
		}

		if m.flagCtl.CompareAndSwap(flag, -1) {
			table = m.read.Load()
			if table == nil {
				n := flag
				if n <= 0 {
					n = 1
				}
				table = &readOnly[K, V]{m: make(map[K]*entry[V])}
				m.dirty = make(map[K]*entry[V])
				m.dirtyLen.Store(0)
				m.read.Store(table)
				flag = n - (n >> 2) // load factor 3/4
			}
			m.flagCtl.Store(flag)
			return table
		}
	}
}

// Load returns the value stored for key, if any. The returned pointer
// remains valid at least until guard is released.
func (m *Map[K, V]) Load(key K, guard *Guard) (value *V, ok bool) {
	m.checkGuard(guard)

	read := m.read.Load()
	if read == nil {
		return nil, false
	}
	e, ok := read.m[key]
	if !ok && read.amended {
		m.mu.Lock()
		// Avoid reporting a spurious miss if read was promoted while we
		// were blocked on mu.
		read = m.read.Load()
		e, ok = read.m[key]
		if !ok && read.amended {
			e, ok = m.dirty[key]
			// Record a miss regardless of whether the key was present:
			// this key takes the slow path until the next promotion.
			m.missLocked()
		}
		m.mu.Unlock()
	}
	if !ok {
		return nil, false
	}
	return e.load(guard)
}

// Store sets the value for key, overwriting any existing value.
func (m *Map[K, V]) Store(key K, value V, guard *Guard) {
	m.checkGuard(guard)

	read := m.read.Load()
	if read == nil {
		read = m.initTable()
	}

	v := &value
	if e, ok := read.m[key]; ok && e.tryStore(v, guard) {
		return
	}

	m.mu.Lock()
	read = m.read.Load()
	if e, ok := read.m[key]; ok {
		if e.unexpungeLocked() {
			// Previously expunged: there is a dirty overlay and this
			// entry is missing from it.
			m.dirty[key] = e
			m.dirtyLen.Add(1)
		}
		e.storeLocked(v, guard)
	} else if e, ok := m.dirty[key]; ok {
		e.storeLocked(v, guard)
	} else if !read.amended {
		// First new key since the last promotion: build the dirty
		// overlay and mark read amended, publishing the new snapshot
		// exactly once (see SPEC_FULL.md's resolution of the ordering
		// question in spec.md §9).
		m.dirtyLocked(key, v)
		m.read.Store(&readOnly[K, V]{m: read.m, amended: true})
	} else {
		m.dirty[key] = newEntry(v)
		m.dirtyLen.Add(1)
	}
	m.mu.Unlock()
}

// Delete removes the value for key and returns it, if any.
func (m *Map[K, V]) Delete(key K, guard *Guard) (removed *V, ok bool) {
	m.checkGuard(guard)

	read := m.read.Load()
	if read == nil {
		return nil, false
	}
	e, ok := read.m[key]
	if !ok && read.amended {
		m.mu.Lock()
		read = m.read.Load()
		e, ok = read.m[key]
		if !ok && read.amended {
			e, ok = m.dirty[key]
			if ok {
				delete(m.dirty, key)
				m.dirtyLen.Add(-1)
			}
			m.missLocked()
		}
		m.mu.Unlock()
	}
	if !ok {
		return nil, false
	}
	return e.remove(guard)
}

// dirtyLocked builds the dirty overlay from the read snapshot (expunging
// currently-empty entries along the way, per I4) and installs a fresh
// entry for key, or — if the overlay already exists — just installs the
// fresh entry. Called only while mu is held.
func (m *Map[K, V]) dirtyLocked(key K, value *V) {
	if m.dirty != nil {
		m.dirty[key] = newEntry(value)
		m.dirtyLen.Add(1)
		return
	}

	read := m.read.Load()
	dirty := make(map[K]*entry[V], len(read.m))
	for k, e := range read.m {
		if !e.tryExpungeLocked() {
			dirty[k] = e
		}
	}
	dirty[key] = newEntry(value)
	m.dirty = dirty
	m.dirtyLen.Store(int64(len(dirty)))
}

// missLocked records a slow-path miss and, once enough of them have
// accumulated to have covered the cost of copying dirty, promotes dirty
// to read and resets both the dirty overlay and the miss counter.
func (m *Map[K, V]) missLocked() {
	m.misses++
	if m.misses < len(m.dirty) {
		return
	}
	m.read.Store(&readOnly[K, V]{m: m.dirty})
	m.dirty = nil
	m.dirtyLen.Store(0)
	m.misses = 0
}

// Clear removes all entries from the map.
func (m *Map[K, V]) Clear(guard *Guard) {
	m.checkGuard(guard)

	m.mu.Lock()
	m.dirty = make(map[K]*entry[V])
	m.dirtyLen.Store(0)
	m.read.Store(&readOnly[K, V]{})
	m.misses = 0
	m.mu.Unlock()
}

// Len returns the dirty overlay's cardinality, without taking mu. This
// is a best-effort count: immediately after a promotion and before the
// next write, the dirty overlay is nil and Len under-counts the keys
// that in fact live in the read snapshot. This mirrors spec.md §4.4 and
// §9 exactly — it is documented there as intentional, not a bug to fix.
func (m *Map[K, V]) Len() int {
	return int(m.dirtyLen.Load())
}
