package cache

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrValueTooLarge is returned when a payload exceeds a tier's total
// capacity and can never be stored.
var ErrValueTooLarge = errors.New("cache: value larger than tier capacity")

// Tier is one layer of the tiered cache. Implementations are safe for
// concurrent use.
type Tier interface {
	// Get returns the payload for key, or ok=false on a miss.
	Get(ctx context.Context, key Key) (payload json.RawMessage, ok bool, err error)

	// Store records the payload under key, replacing any existing entry.
	Store(ctx context.Context, key Key, payload json.RawMessage) error

	// Invalidate removes the entry for key, if present.
	Invalidate(ctx context.Context, key Key) error

	// Clear removes every entry.
	Clear(ctx context.Context) error
}
