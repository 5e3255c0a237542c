package syncmap

import "github.com/behrouz-rfa/syncmap/internal/epoch"

// Retirer is an optional interface a value type V may implement to
// observe when it has become provably unreachable from the map: once
// overwritten or deleted, and once every Guard alive at that moment has
// been released. It is the hook spec.md's testable property P7 ("no V is
// dropped while any guard acquired before its detachment is still
// alive") is verified against, since Go has no destructors to intercept.
type Retirer interface {
	OnRetire()
}

// retire hands a just-detached value to guard's collector, invoking
// OnRetire on it once reclamation is safe, if it implements Retirer.
func retire[V any](guard *epoch.Guard, v *V) {
	if v == nil {
		return
	}
	guard.Retire(v, func() {
		if r, ok := any(v).(Retirer); ok {
			r.OnRetire()
		}
	})
}
