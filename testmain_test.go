package syncmap_test

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain guards every test in this package against goroutine leaks —
// in particular, against a reclamation collector's bookkeeping leaving a
// reader parked after its Guard should have been released.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
