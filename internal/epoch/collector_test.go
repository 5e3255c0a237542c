package epoch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRetireRunsOnceLastGuardLeaves(t *testing.T) {
	c := NewCollector()
	ran := false
	g := c.Enter()
	g.Retire(nil, func() { ran = true })
	g.Leave()
	require.True(t, ran)
}

func TestRetireWaitsForOlderGuard(t *testing.T) {
	c := NewCollector()

	g1 := c.Enter()
	g2 := c.Enter()

	ran := false
	g1.Retire(nil, func() { ran = true })
	require.False(t, ran, "must not run while g2 is still pinned at the retiring epoch")

	g2.Leave()
	require.False(t, ran, "must not run while g1 is still pinned")

	g1.Leave()
	require.True(t, ran)
	require.Equal(t, 0, c.pendingLen())
}

func TestGuardLeaveTwicePanics(t *testing.T) {
	c := NewCollector()
	g := c.Enter()
	g.Leave()
	require.Panics(t, func() { g.Leave() })
}

func TestRetireOnLeftGuardPanics(t *testing.T) {
	c := NewCollector()
	g := c.Enter()
	g.Leave()
	require.Panics(t, func() { g.Retire(nil, func() {}) })
}

func TestUnprotectedRunsCleanupImmediately(t *testing.T) {
	g := Unprotected()
	require.Nil(t, g.Collector())

	ran := false
	g.Retire(nil, func() { ran = true })
	require.True(t, ran)
}

func TestPtrEqual(t *testing.T) {
	a := NewCollector()
	b := NewCollector()
	require.True(t, PtrEqual(a, a))
	require.False(t, PtrEqual(a, b))
}

// A guard that enters after a retire has already been scheduled must not
// block that retire's cleanup: it was not alive when the value detached.
func TestLateGuardDoesNotBlockEarlierRetire(t *testing.T) {
	c := NewCollector()

	g1 := c.Enter()
	ran := false
	g1.Retire(nil, func() { ran = true })

	g2 := c.Enter()
	defer g2.Leave()

	g1.Leave()
	require.True(t, ran)
	require.Equal(t, 0, c.pendingLen())
}

func TestConcurrentEnterLeaveDoesNotRace(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g := c.Enter()
			g.Retire(nil, func() {})
			g.Leave()
		}()
	}
	wg.Wait()
}
