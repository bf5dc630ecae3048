package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestDisk(t *testing.T, enabled bool) *Disk {
	t.Helper()
	return NewDisk(t.TempDir(), enabled, zerolog.New(nil).Level(zerolog.Disabled))
}

func TestDiskStoreGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := newTestDisk(t, true)
	key := NewKey("vimshottari:1990-06-15")
	payload := json.RawMessage(`{"current_dasha": "Sun"}`)

	if err := d.Store(ctx, key, payload); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	got, ok, err := d.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if string(got) != string(payload) {
		t.Errorf("payload mismatch: %s", got)
	}

	// The payload must be on disk, not only in memory.
	if _, err := os.Stat(filepath.Join(d.Dir(), key.Hash+".json")); err != nil {
		t.Errorf("expected cache file on disk: %v", err)
	}
}

func TestDiskSurvivesMemoryLoss(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	log := zerolog.New(nil).Level(zerolog.Disabled)
	key := NewKey("panchanga:2026-03-14")
	payload := json.RawMessage(`{"tithi": "Purnima"}`)

	first := NewDisk(dir, true, log)
	if err := first.Store(ctx, key, payload); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	// A fresh instance has an empty memory map and must read through to
	// disk.
	second := NewDisk(dir, true, log)
	got, ok, err := second.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected disk hit, ok=%v err=%v", ok, err)
	}
	if string(got) != string(payload) {
		t.Errorf("payload mismatch: %s", got)
	}
}

func TestDiskCorruptedFileDeletedAsMiss(t *testing.T) {
	ctx := context.Background()
	d := newTestDisk(t, true)
	key := NewKey("corrupted")

	if err := os.MkdirAll(d.Dir(), 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(d.Dir(), key.Hash+".json")
	if err := os.WriteFile(path, []byte(`{"truncated": `), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := d.Get(ctx, key); ok || err != nil {
		t.Fatalf("corrupted file must be a miss, ok=%v err=%v", ok, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupted file must be deleted")
	}
}

func TestDiskDisabledTierMissesAndDiscards(t *testing.T) {
	ctx := context.Background()
	d := newTestDisk(t, false)
	key := NewKey("anything")

	if err := d.Store(ctx, key, json.RawMessage(`{}`)); err != nil {
		t.Fatalf("disabled store must succeed silently: %v", err)
	}
	if _, ok, _ := d.Get(ctx, key); ok {
		t.Error("disabled tier must miss")
	}
	if d.Info().DiskEntries != 0 {
		t.Error("disabled tier must not write files")
	}
}

func TestDiskInvalidate(t *testing.T) {
	ctx := context.Background()
	d := newTestDisk(t, true)
	key := NewKey("k")
	d.Store(ctx, key, json.RawMessage(`{}`))

	if err := d.Invalidate(ctx, key); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}
	if _, ok, _ := d.Get(ctx, key); ok {
		t.Error("invalidated entry still served")
	}
	// Idempotent on absent files.
	if err := d.Invalidate(ctx, key); err != nil {
		t.Errorf("second invalidate failed: %v", err)
	}
}

func TestDiskInfo(t *testing.T) {
	ctx := context.Background()
	d := newTestDisk(t, true)
	d.Store(ctx, NewKey("a"), json.RawMessage(`{"x": 1}`))
	d.Store(ctx, NewKey("b"), json.RawMessage(`{"y": 2}`))

	info := d.Info()
	if info.MemoryEntries != 2 || info.DiskEntries != 2 {
		t.Errorf("info = %+v", info)
	}
	if info.DiskSizeBytes <= 0 {
		t.Error("expected positive disk size")
	}
	if !info.Enabled {
		t.Error("expected enabled")
	}
}

func TestDiskWatcherEvictsChangedFiles(t *testing.T) {
	ctx := context.Background()
	d := newTestDisk(t, true)
	if err := d.StartWatcher(); err != nil {
		t.Fatalf("watcher failed to start: %v", err)
	}
	defer d.Close()

	key := NewKey("watched")
	if err := d.Store(ctx, key, json.RawMessage(`{"v": 1}`)); err != nil {
		t.Fatal(err)
	}

	// An external writer replaces the file behind our back.
	path := filepath.Join(d.Dir(), key.Hash+".json")
	if err := os.WriteFile(path, []byte(`{"v": 2}`), 0o644); err != nil {
		t.Fatal(err)
	}

	// The watcher evicts the stale memory copy; the next Get reads the
	// new content from disk.
	deadline := time.Now().Add(2 * time.Second)
	for {
		got, ok, _ := d.Get(ctx, key)
		if ok && string(got) == `{"v": 2}` {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("memory copy never refreshed, got %s", got)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
