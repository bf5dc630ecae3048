package cache

import (
	"context"
	"encoding/json"
)

// Noop is the distributed tier stand-in used when no distributed cache
// is deployed. Every lookup misses and every write succeeds without
// storing anything, so the surrounding tiers behave exactly as they
// would with an empty remote cache.
type Noop struct{}

// NewNoop creates a no-op distributed tier.
func NewNoop() *Noop { return &Noop{} }

// Get always misses.
func (*Noop) Get(context.Context, Key) (json.RawMessage, bool, error) {
	return nil, false, nil
}

// Store discards the payload.
func (*Noop) Store(context.Context, Key, json.RawMessage) error { return nil }

// Invalidate does nothing.
func (*Noop) Invalidate(context.Context, Key) error { return nil }

// Clear does nothing.
func (*Noop) Clear(context.Context) error { return nil }
