package cache

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

// DefaultMemoryCapacity is the default L1 budget in bytes.
const DefaultMemoryCapacity = 64 * 1024 * 1024

// memoryShardCount spreads keys over independent locks so concurrent
// reads and writes to different keys do not serialize on one mutex.
const memoryShardCount = 16

type memoryEntry struct {
	payload     json.RawMessage
	createdAt   time.Time
	accessedAt  time.Time
	accessCount uint64
}

type memoryShard struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

// MemoryStats are per-tier counters for the in-process tier.
type MemoryStats struct {
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	Evictions     uint64 `json:"evictions"`
	TotalRequests uint64 `json:"total_requests"`
}

// Memory is the in-process L1 tier: fast, size-bounded, with
// least-recently-used eviction. Keys hash to one of several shards,
// each with its own lock; the byte footprint and stats counters are
// kept as atomic aggregates across shards. Eviction orders entries by
// last access time, breaking ties by access count, and stops as soon
// as enough room is freed.
type Memory struct {
	capacity int
	shards   [memoryShardCount]memoryShard

	sizeBytes     atomic.Int64
	hits          atomic.Uint64
	misses        atomic.Uint64
	evictions     atomic.Uint64
	totalRequests atomic.Uint64

	// evictMu serializes evictions, which scan every shard.
	evictMu sync.Mutex

	now func() time.Time
}

// NewMemory creates an L1 tier with the given byte capacity. A
// non-positive capacity selects the default.
func NewMemory(capacityBytes int) *Memory {
	if capacityBytes <= 0 {
		capacityBytes = DefaultMemoryCapacity
	}
	m := &Memory{
		capacity: capacityBytes,
		now:      time.Now,
	}
	for i := range m.shards {
		m.shards[i].entries = make(map[string]*memoryEntry)
	}
	return m
}

// shard returns the shard owning hash.
func (m *Memory) shard(hash string) *memoryShard {
	return &m.shards[xxhash.Sum64String(hash)%memoryShardCount]
}

// Get returns the payload for key, updating access metadata on a hit.
func (m *Memory) Get(_ context.Context, key Key) (json.RawMessage, bool, error) {
	m.totalRequests.Add(1)

	s := m.shard(key.Hash)
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key.Hash]
	if !ok {
		m.misses.Add(1)
		return nil, false, nil
	}
	entry.accessedAt = m.now()
	entry.accessCount++
	m.hits.Add(1)
	return entry.payload, true, nil
}

// Store inserts the payload, evicting least-recently-used entries until
// it fits. Eviction runs before the insert, so a fresh entry is never
// its own victim. A payload larger than the whole tier is rejected.
func (m *Memory) Store(_ context.Context, key Key, payload json.RawMessage) error {
	size := len(payload)
	if size > m.capacity {
		return ErrValueTooLarge
	}

	s := m.shard(key.Hash)
	s.mu.Lock()
	if prev, ok := s.entries[key.Hash]; ok {
		m.sizeBytes.Add(-int64(len(prev.payload)))
		delete(s.entries, key.Hash)
	}
	s.mu.Unlock()

	m.ensureSpace(size)

	now := m.now()
	s.mu.Lock()
	s.entries[key.Hash] = &memoryEntry{
		payload:     payload,
		createdAt:   now,
		accessedAt:  now,
		accessCount: 1,
	}
	m.sizeBytes.Add(int64(size))
	s.mu.Unlock()
	return nil
}

// Invalidate removes the entry for key.
func (m *Memory) Invalidate(_ context.Context, key Key) error {
	s := m.shard(key.Hash)
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[key.Hash]; ok {
		m.sizeBytes.Add(-int64(len(entry.payload)))
		delete(s.entries, key.Hash)
	}
	return nil
}

// Clear drops every entry.
func (m *Memory) Clear(_ context.Context) error {
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for _, entry := range s.entries {
			m.sizeBytes.Add(-int64(len(entry.payload)))
		}
		s.entries = make(map[string]*memoryEntry)
		s.mu.Unlock()
	}
	return nil
}

// CleanupExpired removes entries created more than maxAge ago and
// returns how many were removed.
func (m *Memory) CleanupExpired(maxAge time.Duration) int {
	cutoff := m.now().Add(-maxAge)

	removed := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for hash, entry := range s.entries {
			if entry.createdAt.Before(cutoff) {
				m.sizeBytes.Add(-int64(len(entry.payload)))
				delete(s.entries, hash)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// Len returns the number of entries across all shards.
func (m *Memory) Len() int {
	total := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		total += len(s.entries)
		s.mu.Unlock()
	}
	return total
}

// SizeBytes returns the current byte footprint.
func (m *Memory) SizeBytes() int {
	return int(m.sizeBytes.Load())
}

// Capacity returns the configured byte budget.
func (m *Memory) Capacity() int {
	return m.capacity
}

// Stats returns a snapshot of the tier counters.
func (m *Memory) Stats() MemoryStats {
	return MemoryStats{
		Hits:          m.hits.Load(),
		Misses:        m.misses.Load(),
		Evictions:     m.evictions.Load(),
		TotalRequests: m.totalRequests.Load(),
	}
}

// ensureSpace evicts entries in least-recently-used order across all
// shards until required bytes fit.
func (m *Memory) ensureSpace(required int) {
	if int(m.sizeBytes.Load())+required <= m.capacity {
		return
	}

	m.evictMu.Lock()
	defer m.evictMu.Unlock()
	if int(m.sizeBytes.Load())+required <= m.capacity {
		return
	}

	type candidate struct {
		shard       *memoryShard
		hash        string
		accessedAt  time.Time
		accessCount uint64
	}
	var candidates []candidate
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for hash, entry := range s.entries {
			candidates = append(candidates, candidate{
				shard:       s,
				hash:        hash,
				accessedAt:  entry.accessedAt,
				accessCount: entry.accessCount,
			})
		}
		s.mu.Unlock()
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.accessedAt.Equal(b.accessedAt) {
			return a.accessedAt.Before(b.accessedAt)
		}
		return a.accessCount < b.accessCount
	})

	for _, c := range candidates {
		if int(m.sizeBytes.Load())+required <= m.capacity {
			break
		}
		c.shard.mu.Lock()
		if entry, ok := c.shard.entries[c.hash]; ok {
			m.sizeBytes.Add(-int64(len(entry.payload)))
			delete(c.shard.entries, c.hash)
			m.evictions.Add(1)
		}
		c.shard.mu.Unlock()
	}
}
