package epoch

// Guard is an opaque token that pins a goroutine against reclamation.
// While any Guard obtained from a Collector is alive, a value retired
// through that Collector after the Guard was obtained will not be
// cleaned up.
//
// A Guard must not be used after Leave; calling Leave or Retire on it
// again panics, matching the "misuse trips an assertion" contract of
// spec.md's error taxonomy. Other uses of a left Guard are not checked.
type Guard struct {
	collector *Collector
	pinned    uint64
	left      bool
}

// Collector returns the domain this Guard was obtained from, or nil for
// a Guard created with Unprotected.
func (g *Guard) Collector() *Collector {
	return g.collector
}

// Leave releases the pin. Once every Guard alive at the time a value was
// retired has called Leave, the Collector is free to run that value's
// cleanup.
func (g *Guard) Leave() {
	if g.left {
		panic("epoch: Guard.Leave called twice")
	}
	g.left = true
	if g.collector != nil {
		g.collector.leave(g)
	}
}

// Retire schedules cleanup to run once no Guard that could have observed
// obj's detachment (i.e. any Guard alive strictly before this call) is
// still alive. obj is accepted purely for call-site documentation of what
// is being retired; cleanup does the actual releasing of references.
func (g *Guard) Retire(obj any, cleanup func()) {
	_ = obj
	if g.left {
		panic("epoch: Retire called on a left Guard")
	}
	if g.collector == nil {
		// Unprotected guard: nothing could still be pinned, safe to run now.
		cleanup()
		return
	}
	g.collector.retire(g.collector.epoch.Load(), cleanup)
}

// Unprotected returns a Guard that is not registered with any Collector.
// Retire on such a Guard runs its cleanup immediately. It exists for the
// same reason seize::Guard::unprotected and crossbeam_epoch's unprotected
// guard exist: tearing down a structure that is provably unreachable by
// any other goroutine (e.g. in a Drop/Close path) needs no pinning.
func Unprotected() *Guard {
	return &Guard{}
}
