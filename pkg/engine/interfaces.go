package engine

import (
	"context"
)

// Engine is the capability contract every calculation engine satisfies.
// Implementations must be safe for concurrent use: an engine is registered
// once at startup and shared read-only by all workflow executions.
type Engine interface {
	// ID returns the unique engine identifier (e.g. "numerology",
	// "human-design", "panchanga").
	ID() string

	// Name returns the human-readable engine name.
	Name() string

	// RequiredPhase returns the minimum caller phase needed to invoke
	// this engine.
	RequiredPhase() int

	// Calculate executes the engine's core calculation.
	Calculate(ctx context.Context, input Input) (*Output, error)

	// Validate checks an output of this engine for correctness.
	Validate(ctx context.Context, output *Output) (*ValidationResult, error)

	// CacheKey returns a deterministic cache key for the given input.
	// Equal inputs must produce equal keys across calls and restarts.
	CacheKey(input Input) string
}

// ResultCache is the cache surface the executor needs for memoizing
// per-engine outputs. The tiered cache in pkg/cache satisfies it; tests
// substitute lighter implementations.
type ResultCache interface {
	// Get returns the serialized payload for the raw key, or ok=false on
	// a miss. Implementations must treat internal failures as misses.
	Get(ctx context.Context, rawKey string) (payload []byte, ok bool)

	// Store records the serialized payload under the raw key. Failures
	// are absorbed by the implementation, never surfaced to the caller.
	Store(ctx context.Context, rawKey string, payload []byte)
}
