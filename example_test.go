package syncmap_test

import (
	"fmt"

	syncmap "github.com/behrouz-rfa/syncmap"
)

// Example walks through the same insert/read/remove sequence the teacher
// repo's sync.Map usage example does, adapted to Map's explicit Guard and
// generic key/value types.
func Example() {
	m := syncmap.New[string, string]()
	g := m.Guard()
	defer g.Leave()

	m.Store("k1", "v1", g) // dirty[k1]
	m.Load("k1", g)        // miss=1, promotes dirty -> read[k1]

	m.Store("k2", "v2", g) // k2 -> dirty
	m.Load("k2", g)        // read[k1], dirty[k2]

	m.Delete("k1", g)

	m.Store("k3", "v3", g) // k3 -> dirty
	m.Load("k3", g)        // read[k1], dirty[k2, k3]

	m.Store("k4", "v4", g) // k4 -> dirty
	m.Load("k4", g)
	m.Load("k4", g) // enough misses, promotes dirty -> read[k2, k3, k4]

	m.Delete("k2", g)
	m.Delete("k3", g)
	m.Delete("k4", g)

	if _, ok := m.Load("k1", g); ok {
		fmt.Println("k1 present")
	} else {
		fmt.Println("k1 absent")
	}

	// Output:
	// k1 absent
}
