package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func newTestTiered(t *testing.T) *Tiered {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewTiered(Options{
		MemoryCapacity: 1024 * 1024,
		DiskDir:        t.TempDir(),
		DiskEnabled:    true,
		Logger:         &log,
	})
}

func TestKeyDeterministic(t *testing.T) {
	a := NewKey("numerology:1990-06-15:standard")
	b := NewKey("numerology:1990-06-15:standard")
	if a != b {
		t.Errorf("equal raw keys must hash equally: %+v vs %+v", a, b)
	}
	if len(a.Hash) != 16 {
		t.Errorf("hash length = %d, want 16", len(a.Hash))
	}
	if NewKey("other").Hash == a.Hash {
		t.Error("distinct raw keys should hash differently")
	}
}

func TestTieredMissCountedOnce(t *testing.T) {
	tc := newTestTiered(t)

	if _, ok := tc.Get(context.Background(), NewKey("absent")); ok {
		t.Fatal("expected miss")
	}

	stats := tc.Stats()
	if stats.TotalRequests != 1 {
		t.Errorf("total requests = %d, want 1", stats.TotalRequests)
	}
	if stats.Misses != 1 {
		t.Errorf("misses = %d, want 1 (full miss counts once)", stats.Misses)
	}
	if stats.L1Hits+stats.L2Hits+stats.L3Hits != 0 {
		t.Errorf("no hits expected: %+v", stats)
	}
}

func TestTieredStoreHitsL1(t *testing.T) {
	ctx := context.Background()
	tc := newTestTiered(t)
	key := NewKey("numerology:x")
	payload := json.RawMessage(`{"life_path": 7}`)

	if err := tc.Store(ctx, key, payload); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	got, ok := tc.Get(ctx, key)
	if !ok || string(got) != string(payload) {
		t.Fatalf("expected L1 hit, ok=%v got=%s", ok, got)
	}
	if stats := tc.Stats(); stats.L1Hits != 1 {
		t.Errorf("l1 hits = %d, want 1", stats.L1Hits)
	}
}

func TestTieredPrecomputedPromotesToL1(t *testing.T) {
	ctx := context.Background()
	tc := newTestTiered(t)
	key := NewKey("vimshottari:y")
	payload := json.RawMessage(`{"dasha": "Moon"}`)

	if err := tc.StorePrecomputed(ctx, key, payload); err != nil {
		t.Fatalf("precomputed store failed: %v", err)
	}

	// First read is an L3 hit and promotes into L1.
	if _, ok := tc.Get(ctx, key); !ok {
		t.Fatal("expected L3 hit")
	}
	// Second read is served from L1.
	if _, ok := tc.Get(ctx, key); !ok {
		t.Fatal("expected L1 hit after promotion")
	}

	stats := tc.Stats()
	if stats.L3Hits != 1 {
		t.Errorf("l3 hits = %d, want 1", stats.L3Hits)
	}
	if stats.L1Hits != 1 {
		t.Errorf("l1 hits = %d, want 1", stats.L1Hits)
	}
	if stats.Misses != 0 {
		t.Errorf("misses = %d, want 0", stats.Misses)
	}
}

func TestTieredHitRate(t *testing.T) {
	ctx := context.Background()
	tc := newTestTiered(t)
	key := NewKey("k")
	tc.Store(ctx, key, json.RawMessage(`{}`))

	tc.Get(ctx, key)
	tc.Get(ctx, NewKey("nope"))

	if rate := tc.Stats().HitRate(); rate != 0.5 {
		t.Errorf("hit rate = %v, want 0.5", rate)
	}

	tc.ResetStats()
	if stats := tc.Stats(); stats != (Stats{}) {
		t.Errorf("reset left stats %+v", stats)
	}
	if stats := tc.Stats(); stats.HitRate() != 0 {
		t.Error("empty stats hit rate must be 0")
	}
}

func TestTieredInvalidateAllLayers(t *testing.T) {
	ctx := context.Background()
	tc := newTestTiered(t)
	key := NewKey("k")

	tc.Store(ctx, key, json.RawMessage(`{}`))
	tc.StorePrecomputed(ctx, key, json.RawMessage(`{}`))

	if err := tc.Invalidate(ctx, key); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}
	if _, ok := tc.Get(ctx, key); ok {
		t.Error("invalidated key still served")
	}
}

func TestTieredClearAll(t *testing.T) {
	ctx := context.Background()
	tc := newTestTiered(t)
	tc.Store(ctx, NewKey("a"), json.RawMessage(`{}`))
	tc.StorePrecomputed(ctx, NewKey("b"), json.RawMessage(`{}`))

	if err := tc.ClearAll(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, ok := tc.Get(ctx, NewKey("a")); ok {
		t.Error("cleared L1 entry still served")
	}
	if _, ok := tc.Get(ctx, NewKey("b")); ok {
		t.Error("cleared L3 entry still served")
	}
}

// failingTier simulates a broken distributed tier.
type failingTier struct{}

func (failingTier) Get(context.Context, Key) (json.RawMessage, bool, error) {
	return nil, false, errors.New("connection refused")
}
func (failingTier) Store(context.Context, Key, json.RawMessage) error {
	return errors.New("connection refused")
}
func (failingTier) Invalidate(context.Context, Key) error { return errors.New("connection refused") }
func (failingTier) Clear(context.Context) error           { return errors.New("connection refused") }

func TestTieredBrokenL2DegradesToMiss(t *testing.T) {
	ctx := context.Background()
	log := zerolog.New(nil).Level(zerolog.Disabled)
	tc := NewTiered(Options{
		Distributed: failingTier{},
		DiskDir:     t.TempDir(),
		DiskEnabled: true,
		Logger:      &log,
	})
	key := NewKey("k")
	payload := json.RawMessage(`{"v": 1}`)

	// Store reports the L2 failure but L1 still holds the value.
	if err := tc.Store(ctx, key, payload); err == nil {
		t.Fatal("expected store error from broken L2")
	}
	got, ok := tc.Get(ctx, key)
	if !ok || string(got) != string(payload) {
		t.Fatalf("L1 must still serve despite broken L2, ok=%v", ok)
	}

	// A key in neither L1 nor L3 is a plain miss, not an error.
	if _, ok := tc.Get(ctx, NewKey("absent")); ok {
		t.Error("expected miss")
	}
}

func TestNoopTier(t *testing.T) {
	ctx := context.Background()
	n := NewNoop()
	key := NewKey("k")

	if err := n.Store(ctx, key, json.RawMessage(`{}`)); err != nil {
		t.Fatalf("noop store errored: %v", err)
	}
	if _, ok, err := n.Get(ctx, key); ok || err != nil {
		t.Error("noop must always miss without error")
	}
	if n.Invalidate(ctx, key) != nil || n.Clear(ctx) != nil {
		t.Error("noop maintenance must succeed")
	}
}
