// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syncmap

// readOnly is an immutable snapshot stored atomically in Map.read
// (spec.md §4.2). amended is true iff the dirty overlay holds at least
// one key absent from m — I3.
type readOnly[K comparable, V any] struct {
	m       map[K]*entry[V]
	amended bool
}
