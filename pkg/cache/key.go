package cache

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Key is a deterministic cache key derived from an engine-provided
// string. The raw key is hashed to a fixed-length hex string safe for
// use as a file name and as a distributed-cache key.
type Key struct {
	// Raw is the original key string provided by the engine.
	Raw string `json:"raw"`

	// Hash is the fixed-length hex digest of Raw.
	Hash string `json:"hash"`
}

// NewKey builds a Key from an arbitrary string, typically the value of
// an engine's CacheKey method. Equal inputs produce equal keys across
// calls and restarts.
func NewKey(raw string) Key {
	return Key{
		Raw:  raw,
		Hash: fmt.Sprintf("%016x", xxhash.Sum64String(raw)),
	}
}
