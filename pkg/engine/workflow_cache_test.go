package engine

import (
	"fmt"
	"testing"
	"time"
)

func TestInputFingerprintDeterministic(t *testing.T) {
	input := Input{
		Birth: &BirthData{
			Date:      "1990-06-15",
			Time:      "14:30",
			Latitude:  40.7128,
			Longitude: -74.006,
			Timezone:  "America/New_York",
		},
		CurrentTime: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Precision:   PrecisionStandard,
		Options:     map[string]interface{}{"b": 2, "a": 1},
	}

	first := InputFingerprint(input)
	second := InputFingerprint(input)
	if first != second {
		t.Errorf("fingerprint not stable: %s vs %s", first, second)
	}
	if len(first) != 16 {
		t.Errorf("expected 16 hex chars, got %q", first)
	}

	changed := input
	changed.CurrentTime = changed.CurrentTime.Add(time.Minute)
	if InputFingerprint(changed) == first {
		t.Error("distinct inputs must fingerprint differently")
	}
}

func TestWorkflowCachePutGet(t *testing.T) {
	c := NewWorkflowCache()
	out := &WorkflowOutput{WorkflowID: "birth-blueprint"}

	if _, ok := c.Get("birth-blueprint", "fp1", 0); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Put("birth-blueprint", "fp1", 0, out)
	got, ok := c.Get("birth-blueprint", "fp1", 0)
	if !ok || got != out {
		t.Fatal("expected stored output back")
	}
	if _, ok := c.Get("birth-blueprint", "fp2", 0); ok {
		t.Error("different fingerprint must miss")
	}
	if _, ok := c.Get("daily-practice", "fp1", 0); ok {
		t.Error("different workflow must miss")
	}
}

func TestWorkflowCacheKeyedByPhase(t *testing.T) {
	c := NewWorkflowCache()
	deep := &WorkflowOutput{WorkflowID: "birth-blueprint"}

	c.Put("birth-blueprint", "fp", 3, deep)

	if _, ok := c.Get("birth-blueprint", "fp", 0); ok {
		t.Fatal("phase-3 output must not be served to a phase-0 caller")
	}
	got, ok := c.Get("birth-blueprint", "fp", 3)
	if !ok || got != deep {
		t.Fatal("same-phase lookup should hit")
	}
}

func TestWorkflowCacheExpiry(t *testing.T) {
	c := NewWorkflowCache()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Put("daily-practice", "fp", 0, &WorkflowOutput{WorkflowID: "daily-practice"})

	now = now.Add(TTLTemporal - time.Minute)
	if _, ok := c.Get("daily-practice", "fp", 0); !ok {
		t.Fatal("entry expired too early")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("daily-practice", "fp", 0); ok {
		t.Fatal("entry should have expired")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not removed, len = %d", c.Len())
	}
}

func TestWorkflowCacheTTLByDomain(t *testing.T) {
	c := NewWorkflowCache()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Put("birth-blueprint", "fp", 0, &WorkflowOutput{})  // natal, 24h
	c.Put("decision-support", "fp", 0, &WorkflowOutput{}) // archetypal, 15m
	c.Put("daily-practice", "fp", 0, &WorkflowOutput{})   // temporal, 1h

	now = now.Add(20 * time.Minute)
	if _, ok := c.Get("decision-support", "fp", 0); ok {
		t.Error("archetypal entry should expire after 15 minutes")
	}
	if _, ok := c.Get("daily-practice", "fp", 0); !ok {
		t.Error("temporal entry should survive 20 minutes")
	}

	now = now.Add(2 * time.Hour)
	if _, ok := c.Get("daily-practice", "fp", 0); ok {
		t.Error("temporal entry should expire after an hour")
	}
	if _, ok := c.Get("birth-blueprint", "fp", 0); !ok {
		t.Error("natal entry should survive for a day")
	}
}

func TestWorkflowCacheInvalidate(t *testing.T) {
	c := NewWorkflowCache()
	c.Put("birth-blueprint", "fp1", 0, &WorkflowOutput{})
	c.Put("birth-blueprint", "fp2", 1, &WorkflowOutput{})
	c.Put("daily-practice", "fp1", 0, &WorkflowOutput{})

	if removed := c.Invalidate("birth-blueprint"); removed != 2 {
		t.Errorf("invalidate removed %d entries, want 2", removed)
	}
	if _, ok := c.Get("birth-blueprint", "fp1", 0); ok {
		t.Error("invalidated entry still present")
	}
	if _, ok := c.Get("birth-blueprint", "fp2", 1); ok {
		t.Error("invalidation must cover every phase")
	}
	if _, ok := c.Get("daily-practice", "fp1", 0); !ok {
		t.Error("invalidation leaked into other workflow")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("clear left %d entries", c.Len())
	}
}

func TestWorkflowCacheBoundedEviction(t *testing.T) {
	c := NewWorkflowCacheWithCapacity(3)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		c.Put("birth-blueprint", fmt.Sprintf("fp%d", i), 0, &WorkflowOutput{})
		now = now.Add(time.Second)
	}
	if c.Len() != 3 {
		t.Fatalf("len = %d, want 3", c.Len())
	}

	c.Put("birth-blueprint", "fp3", 0, &WorkflowOutput{})

	if c.Len() != 3 {
		t.Fatalf("bound exceeded, len = %d", c.Len())
	}
	if _, ok := c.Get("birth-blueprint", "fp0", 0); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.Get("birth-blueprint", "fp3", 0); !ok {
		t.Error("newest entry missing after eviction")
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Errorf("evictions = %d, want 1", got)
	}
}

func TestWorkflowCacheOverwriteDoesNotEvict(t *testing.T) {
	c := NewWorkflowCacheWithCapacity(2)
	c.Put("birth-blueprint", "fp1", 0, &WorkflowOutput{})
	c.Put("birth-blueprint", "fp2", 0, &WorkflowOutput{})

	// Refreshing an existing key must not push out a neighbor.
	c.Put("birth-blueprint", "fp1", 0, &WorkflowOutput{})

	if c.Len() != 2 {
		t.Errorf("len = %d, want 2", c.Len())
	}
	if got := c.Stats().Evictions; got != 0 {
		t.Errorf("evictions = %d, want 0", got)
	}
}

func TestWorkflowCacheStats(t *testing.T) {
	c := NewWorkflowCache()
	c.Put("birth-blueprint", "fp", 0, &WorkflowOutput{})

	c.Get("birth-blueprint", "fp", 0)
	c.Get("birth-blueprint", "fp", 0)
	c.Get("birth-blueprint", "other", 0)

	stats := c.Stats()
	if stats.Hits != 2 {
		t.Errorf("hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("misses = %d, want 1", stats.Misses)
	}
}
