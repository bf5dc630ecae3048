package engine

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// TTLs for workflow result memoization, by what the workflow's engines
// read. Natal data never changes, temporal data changes hourly,
// archetypal draws (tarot, i-ching) go stale quickly.
const (
	TTLNatal      = 24 * time.Hour
	TTLTemporal   = time.Hour
	TTLArchetypal = 15 * time.Minute
)

// workflowTTLs maps each canonical workflow to its memoization TTL.
// Mixed workflows take the shortest TTL among their inputs.
var workflowTTLs = map[string]time.Duration{
	"birth-blueprint":     TTLNatal,
	"self-inquiry":        TTLNatal,
	"daily-practice":      TTLTemporal,
	"full-spectrum":       TTLArchetypal,
	"decision-support":    TTLArchetypal,
	"creative-expression": TTLArchetypal,
}

// DefaultWorkflowTTL applies to workflows without a registered TTL.
const DefaultWorkflowTTL = TTLTemporal

// DefaultWorkflowCacheEntries bounds how many outputs the workflow
// cache holds before evicting the oldest.
const DefaultWorkflowCacheEntries = 256

// InputFingerprint returns a deterministic hash of an input, stable
// across processes. Equal inputs always fingerprint equally; map options
// are serialized in sorted key order by the JSON encoder.
func InputFingerprint(input Input) string {
	payload, err := json.Marshal(input)
	if err != nil {
		// Input is plain data; Marshal can only fail on non-finite
		// floats in Options. Fall back to a formatted rendering.
		payload = []byte(fmt.Sprintf("%+v", input))
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(payload))
}

type workflowCacheEntry struct {
	output    *WorkflowOutput
	storedAt  time.Time
	expiresAt time.Time
}

// WorkflowCacheStats are counters for the workflow memo.
type WorkflowCacheStats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// WorkflowCache memoizes whole workflow outputs keyed by workflow id,
// caller phase, and input fingerprint, with a per-workflow TTL. The
// caller phase is part of the key because phase-gated engines make the
// output phase-dependent: a higher phase sees results a lower phase
// must not. It sits above the engine result cache: a hit here skips
// the fan-out entirely.
//
// The entry count is bounded; storing into a full cache evicts the
// oldest-stored entry first.
type WorkflowCache struct {
	maxEntries int

	mu      sync.RWMutex
	entries map[string]workflowCacheEntry
	ttls    map[string]time.Duration
	stats   WorkflowCacheStats

	now func() time.Time
}

// NewWorkflowCache creates a workflow cache with the canonical TTL
// table and the default entry bound.
func NewWorkflowCache() *WorkflowCache {
	return NewWorkflowCacheWithCapacity(DefaultWorkflowCacheEntries)
}

// NewWorkflowCacheWithCapacity creates a workflow cache bounded to
// maxEntries outputs. A non-positive capacity selects the default.
func NewWorkflowCacheWithCapacity(maxEntries int) *WorkflowCache {
	if maxEntries <= 0 {
		maxEntries = DefaultWorkflowCacheEntries
	}
	ttls := make(map[string]time.Duration, len(workflowTTLs))
	for id, ttl := range workflowTTLs {
		ttls[id] = ttl
	}
	return &WorkflowCache{
		maxEntries: maxEntries,
		entries:    make(map[string]workflowCacheEntry),
		ttls:       ttls,
		now:        time.Now,
	}
}

// SetTTL overrides the TTL for one workflow id. Existing entries keep
// the expiry they were stored with.
func (c *WorkflowCache) SetTTL(workflowID string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttls[workflowID] = ttl
}

// memoKey builds the cache key. The workflow id leads so per-workflow
// invalidation can match on prefix.
func memoKey(workflowID string, phase int, fingerprint string) string {
	return fmt.Sprintf("%s:%d:%s", workflowID, phase, fingerprint)
}

// Get returns the memoized output for a workflow id, caller phase, and
// input fingerprint. Expired entries are removed on access and reported
// as misses.
func (c *WorkflowCache) Get(workflowID, fingerprint string, phase int) (*WorkflowOutput, bool) {
	key := memoKey(workflowID, phase, fingerprint)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		c.mu.Lock()
		c.stats.Misses++
		c.mu.Unlock()
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		// Recheck under the write lock: a concurrent Put may have
		// refreshed the entry.
		if cur, ok := c.entries[key]; ok && c.now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.stats.Misses++
		c.mu.Unlock()
		return nil, false
	}
	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
	return entry.output, true
}

// Put memoizes a workflow output under its id, caller phase, and input
// fingerprint, evicting the oldest-stored entry when the cache is full.
func (c *WorkflowCache) Put(workflowID, fingerprint string, phase int, output *WorkflowOutput) {
	ttl, ok := c.ttls[workflowID]
	if !ok {
		ttl = DefaultWorkflowTTL
	}
	key := memoKey(workflowID, phase, fingerprint)
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = workflowCacheEntry{
		output:    output,
		storedAt:  now,
		expiresAt: now.Add(ttl),
	}
}

// evictOldestLocked removes the entry stored longest ago. Caller holds
// c.mu.
func (c *WorkflowCache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.stats.Evictions++
	}
}

// Invalidate drops every memoized output for one workflow id, at every
// phase, and returns how many entries were removed.
func (c *WorkflowCache) Invalidate(workflowID string) int {
	prefix := workflowID + ":"
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key := range c.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear drops all memoized outputs.
func (c *WorkflowCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]workflowCacheEntry)
}

// Len returns the number of memoized outputs, including any not yet
// expired lazily.
func (c *WorkflowCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the memo counters.
func (c *WorkflowCache) Stats() WorkflowCacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}
