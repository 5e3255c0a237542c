package syncmap

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Hasher is the pluggable hashing policy spec.md §2 lists as an external
// collaborator owned by, but out of scope for, the map façade. The core
// algorithm never calls it: Go's native map[K]*entry[V], which backs both
// the read snapshot and the dirty overlay, already hashes K internally.
// Hasher exists so a caller can plug in a deterministic or domain-specific
// hash for diagnostics (Map.HashOf) without the core promotion/expunge
// protocol depending on it, mirroring the Rust original's build_hasher
// field, which the original likewise never calls from insert/get/remove.
type Hasher[K any] interface {
	Hash(key K) uint64
}

// defaultHasher is the zero-configuration Hasher: it hashes the key's
// default string formatting with xxhash, the hash cespare/xxhash/v2
// provides and which the corpus's own cache implementations
// (aristanetworks/goarista, samber/hot) use for exactly this purpose.
// It is adequate for diagnostics; callers with a hot HashOf path and a
// concrete K should supply their own Hasher via NewWithHasher.
type defaultHasher[K any] struct{}

func (defaultHasher[K]) Hash(key K) uint64 {
	return xxhash.Sum64String(fmt.Sprint(key))
}
