// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syncmap

import (
	"github.com/behrouz-rfa/syncmap/internal/epoch"
)

// entry is a slot in the map corresponding to a particular key. It is the
// Go realization of spec.md §4.1: an atomic pointer holding the current
// value (or nil/expunged) and a plain, never-changing pointer to a
// per-entry marker used only for its address.
//
// entry.p's state machine:
//
//   - p == nil: the key is logically absent and the entry is reachable
//     from the dirty overlay (or there is no dirty overlay yet).
//   - p == e.expunged: the key is logically absent AND the entry is
//     missing from the dirty overlay. A write must go through the map's
//     mutex to unexpunge the entry before storing to it.
//   - otherwise: p points at the live value.
type entry[V any] struct {
	p        epoch.Ptr[V]
	expunged *V
}

// newEntry allocates an entry holding value, live from construction.
func newEntry[V any](value *V) *entry[V] {
	e := &entry[V]{expunged: new(V)}
	e.p.Store(value)
	return e
}

// newEmptyEntry allocates an entry with no value. dirtyLocked does not
// use it: it reuses the snapshot's entries and allocates the new key's
// entry with newEntry.
func newEmptyEntry[V any]() *entry[V] {
	return &entry[V]{expunged: new(V)}
}

// load returns the entry's value, or (nil, false) if it is empty or
// expunged. It never blocks.
func (e *entry[V]) load(guard *epoch.Guard) (*V, bool) {
	p := e.p.Load()
	if p == nil || p == e.expunged {
		return nil, false
	}
	return p, true
}

// tryStore stores value unless the entry has been expunged, in which
// case it leaves the entry unchanged and returns false so the caller can
// fall back to the locked slow path.
func (e *entry[V]) tryStore(value *V, guard *epoch.Guard) bool {
	for {
		p := e.p.Load()
		if p == e.expunged {
			return false
		}
		if e.p.CompareAndSwap(p, value) {
			if p != nil && p != e.expunged {
				retire(guard, p)
			}
			return true
		}
	}
}

// remove transitions Live -> Empty, returning the detached value if this
// call won the race, or (nil, false) if the entry was already empty or
// expunged.
func (e *entry[V]) remove(guard *epoch.Guard) (*V, bool) {
	for {
		p := e.p.Load()
		if p == nil || p == e.expunged {
			return nil, false
		}
		if e.p.CompareAndSwap(p, nil) {
			retire(guard, p)
			return p, true
		}
	}
}

// unexpungeLocked transitions Expunged -> Empty. Called only while the
// map's mutex is held; the caller must install the entry into the dirty
// overlay immediately afterward if this returns true.
func (e *entry[V]) unexpungeLocked() (wasExpunged bool) {
	return e.p.CompareAndSwap(e.expunged, nil)
}

// tryExpungeLocked transitions Empty -> Expunged, used while rebuilding
// the dirty overlay from the read snapshot (dirtyLocked). It reports
// whether the entry is (now, or already was) expunged.
func (e *entry[V]) tryExpungeLocked() (isExpunged bool) {
	p := e.p.Load()
	for p == nil {
		if e.p.CompareAndSwap(nil, e.expunged) {
			return true
		}
		p = e.p.Load()
	}
	return p == e.expunged
}

// storeLocked unconditionally stores value. The caller must already know
// the entry is not expunged (e.g. immediately after unexpungeLocked).
func (e *entry[V]) storeLocked(value *V, guard *epoch.Guard) {
	old := e.p.Swap(value)
	if old != nil && old != e.expunged {
		retire(guard, old)
	}
}
