package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Stats are aggregate counters across all tiers. A lookup increments
// TotalRequests once and exactly one of the hit or miss counters.
type Stats struct {
	L1Hits        uint64 `json:"l1_hits"`
	L2Hits        uint64 `json:"l2_hits"`
	L3Hits        uint64 `json:"l3_hits"`
	Misses        uint64 `json:"cache_misses"`
	TotalRequests uint64 `json:"total_requests"`
}

// HitRate returns the fraction of lookups served from any tier.
func (s Stats) HitRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.L1Hits+s.L2Hits+s.L3Hits) / float64(s.TotalRequests)
}

// Options configures the tiered cache.
type Options struct {
	// MemoryCapacity is the L1 byte budget. Non-positive selects the
	// default.
	MemoryCapacity int

	// Distributed is the L2 tier. Nil selects the no-op tier.
	Distributed Tier

	// DiskDir is the L3 directory. Empty selects the default.
	DiskDir string

	// DiskEnabled switches the L3 tier on.
	DiskEnabled bool

	// Logger is the structured logger. Defaults to a no-op logger.
	Logger *zerolog.Logger
}

// Tiered is the multi-layer cache facade. Lookups check L1, then L2,
// then L3, promoting hits into faster tiers. Tier failures are logged
// and treated as misses so a broken tier only costs hit rate.
type Tiered struct {
	l1  *Memory
	l2  Tier
	l3  *Disk
	log zerolog.Logger

	l1Hits        atomic.Uint64
	l2Hits        atomic.Uint64
	l3Hits        atomic.Uint64
	misses        atomic.Uint64
	totalRequests atomic.Uint64
}

// NewTiered creates the tiered cache.
func NewTiered(opts Options) *Tiered {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	l2 := opts.Distributed
	if l2 == nil {
		l2 = NewNoop()
	}
	return &Tiered{
		l1:  NewMemory(opts.MemoryCapacity),
		l2:  l2,
		l3:  NewDisk(opts.DiskDir, opts.DiskEnabled, log),
		log: log,
	}
}

// Get returns the payload for key from the fastest tier holding it.
// Internal tier failures are absorbed as misses.
func (t *Tiered) Get(ctx context.Context, key Key) (json.RawMessage, bool) {
	t.totalRequests.Add(1)

	payload, ok, err := t.l1.Get(ctx, key)
	if err != nil {
		t.log.Warn().Err(err).Msg("l1 lookup failed")
	} else if ok {
		t.l1Hits.Add(1)
		return payload, true
	}

	payload, ok, err = t.l2.Get(ctx, key)
	if err != nil {
		t.log.Warn().Err(err).Msg("l2 lookup failed")
	} else if ok {
		if err := t.l1.Store(ctx, key, payload); err != nil {
			t.log.Warn().Err(err).Msg("l1 promotion failed")
		}
		t.l2Hits.Add(1)
		return payload, true
	}

	payload, ok, err = t.l3.Get(ctx, key)
	if err != nil {
		t.log.Warn().Err(err).Msg("l3 lookup failed")
	} else if ok {
		if err := t.l1.Store(ctx, key, payload); err != nil {
			t.log.Warn().Err(err).Msg("l1 promotion failed")
		}
		if err := t.l2.Store(ctx, key, payload); err != nil {
			t.log.Warn().Err(err).Msg("l2 promotion failed")
		}
		t.l3Hits.Add(1)
		return payload, true
	}

	t.misses.Add(1)
	return nil, false
}

// Store records the payload in L1 and L2.
func (t *Tiered) Store(ctx context.Context, key Key, payload json.RawMessage) error {
	return errors.Join(
		t.l1.Store(ctx, key, payload),
		t.l2.Store(ctx, key, payload),
	)
}

// StorePrecomputed records the payload in the durable L3 tier.
func (t *Tiered) StorePrecomputed(ctx context.Context, key Key, payload json.RawMessage) error {
	return t.l3.Store(ctx, key, payload)
}

// Invalidate removes key from every tier.
func (t *Tiered) Invalidate(ctx context.Context, key Key) error {
	return errors.Join(
		t.l1.Invalidate(ctx, key),
		t.l2.Invalidate(ctx, key),
		t.l3.Invalidate(ctx, key),
	)
}

// ClearAll empties every tier.
func (t *Tiered) ClearAll(ctx context.Context) error {
	return errors.Join(
		t.l1.Clear(ctx),
		t.l2.Clear(ctx),
		t.l3.Clear(ctx),
	)
}

// Stats returns a snapshot of the aggregate counters.
func (t *Tiered) Stats() Stats {
	return Stats{
		L1Hits:        t.l1Hits.Load(),
		L2Hits:        t.l2Hits.Load(),
		L3Hits:        t.l3Hits.Load(),
		Misses:        t.misses.Load(),
		TotalRequests: t.totalRequests.Load(),
	}
}

// ResetStats zeroes the aggregate counters.
func (t *Tiered) ResetStats() {
	t.l1Hits.Store(0)
	t.l2Hits.Store(0)
	t.l3Hits.Store(0)
	t.misses.Store(0)
	t.totalRequests.Store(0)
}

// Memory returns the L1 tier for diagnostics.
func (t *Tiered) Memory() *Memory { return t.l1 }

// Disk returns the L3 tier for diagnostics and watcher control.
func (t *Tiered) Disk() *Disk { return t.l3 }
