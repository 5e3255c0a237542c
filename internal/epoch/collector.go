// Package epoch provides the reclamation collaborator the map façade in
// the parent package treats as an external dependency: a Collector that
// readers pin themselves against via a Guard, and to which writers hand
// off values detached from the map so they aren't freed while a Guard
// that predates the detach might still observe them.
//
// The scheme is a small epoch-based reclaimer, grounded in the same
// per-reader-generation idea used by the corpus's own left-right map
// (jwkohnen/lrmap's readHandlerInner.epoch), generalized from "wait for
// readers to quiesce" into "defer the cleanup until they have". Go's
// garbage collector already keeps a *V alive for as long as any goroutine
// holds a reference to it; what this package adds is the *scheduling*
// half of reclamation — deciding when it's provably safe to drop the
// map's own last reference to a detached value so the GC can take it.
package epoch

import (
	"sync"
	"sync/atomic"
)

// Collector is a reclamation domain. Each Map owns exactly one.
type Collector struct {
	mu     sync.Mutex
	guards map[*Guard]struct{}
	epoch  atomic.Uint64
	bags   map[uint64][]func()
}

// NewCollector creates a reclamation domain with no active guards.
func NewCollector() *Collector {
	c := &Collector{
		guards: make(map[*Guard]struct{}),
		bags:   make(map[uint64][]func()),
	}
	c.epoch.Store(1)
	return c
}

// Enter pins the calling goroutine against reclamation: no value retired
// through this Collector after Enter returns will be cleaned up until
// the returned Guard's Leave is called.
func (c *Collector) Enter() *Guard {
	g := &Guard{collector: c}
	c.mu.Lock()
	g.pinned = c.epoch.Load()
	c.guards[g] = struct{}{}
	c.mu.Unlock()
	return g
}

// PtrEqual reports whether a and b are the same collector. Guards carry
// this check so that a Guard obtained from one Map is rejected by another.
func PtrEqual(a, b *Collector) bool {
	return a == b
}

func (c *Collector) leave(g *Guard) {
	c.mu.Lock()
	delete(c.guards, g)
	c.mu.Unlock()
	c.tryAdvance()
}

func (c *Collector) retire(atEpoch uint64, cleanup func()) {
	c.mu.Lock()
	c.bags[atEpoch] = append(c.bags[atEpoch], cleanup)
	c.mu.Unlock()
	c.tryAdvance()
}

// tryAdvance bumps the epoch and runs any cleanup scheduled strictly
// before it, but only when every currently pinned guard is already
// observing the latest epoch — i.e. nothing pinned at an older
// generation remains active to race with the cleanup.
func (c *Collector) tryAdvance() {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.epoch.Load()
	for g := range c.guards {
		if g.pinned < cur {
			return
		}
	}

	for e, fns := range c.bags {
		if e >= cur {
			continue
		}
		for _, fn := range fns {
			fn()
		}
		delete(c.bags, e)
	}
	c.epoch.Add(1)
}

// pendingLen reports the number of cleanups still awaiting a safe epoch.
// Exposed for tests only.
func (c *Collector) pendingLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, fns := range c.bags {
		n += len(fns)
	}
	return n
}
