package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDiskDir is where precomputed results live when no directory is
// configured.
const DefaultDiskDir = "./data/precomputed"

// DiskInfo is a diagnostic snapshot of the disk tier.
type DiskInfo struct {
	MemoryEntries int   `json:"memory_entries"`
	DiskEntries   int   `json:"disk_entries"`
	DiskSizeBytes int64 `json:"disk_size_bytes"`
	Enabled       bool  `json:"enabled"`
}

// Disk is the L3 tier: precomputed results persisted as one JSON file
// per key, with a memory map for fast repeated lookups. Disk is the
// authoritative store; the memory map is a read-through copy.
//
// A file that no longer parses as JSON is deleted and reported as a
// miss, so a partial write never poisons the tier.
type Disk struct {
	enabled atomic.Bool
	dir     string
	log     zerolog.Logger

	mu     sync.RWMutex
	memory map[string]json.RawMessage

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewDisk creates a disk tier rooted at dir. An empty dir selects
// DefaultDiskDir. A disabled tier misses every lookup and discards
// every write.
func NewDisk(dir string, enabled bool, log zerolog.Logger) *Disk {
	if dir == "" {
		dir = DefaultDiskDir
	}
	d := &Disk{
		dir:    dir,
		log:    log,
		memory: make(map[string]json.RawMessage),
	}
	d.enabled.Store(enabled)
	return d
}

// StartWatcher begins watching the cache directory and evicts memory
// copies of files changed or removed by external writers, keeping the
// read-through map coherent with disk. Stop with Close.
func (d *Disk) StartWatcher() error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(d.dir); err != nil {
		watcher.Close()
		return err
	}
	d.watcher = watcher
	d.done = make(chan struct{})

	go d.watchLoop()
	return nil
}

// Close stops the directory watcher, if running.
func (d *Disk) Close() error {
	if d.watcher == nil {
		return nil
	}
	close(d.done)
	return d.watcher.Close()
}

func (d *Disk) watchLoop() {
	for {
		select {
		case <-d.done:
			return
		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename|fsnotify.Create) == 0 {
				continue
			}
			hash := strings.TrimSuffix(filepath.Base(event.Name), ".json")
			d.mu.Lock()
			delete(d.memory, hash)
			d.mu.Unlock()
			d.log.Debug().Str("hash", hash).Str("op", event.Op.String()).
				Msg("evicted memory copy after external file change")
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.log.Warn().Err(err).Msg("disk cache watcher error")
		}
	}
}

// Get returns the payload for key, checking memory first and then disk.
// Disk hits populate the memory map.
func (d *Disk) Get(_ context.Context, key Key) (json.RawMessage, bool, error) {
	if !d.enabled.Load() {
		return nil, false, nil
	}

	d.mu.RLock()
	payload, ok := d.memory[key.Hash]
	d.mu.RUnlock()
	if ok {
		return payload, true, nil
	}

	payload, err := d.loadFromDisk(key)
	if err != nil || payload == nil {
		return nil, false, err
	}

	d.mu.Lock()
	d.memory[key.Hash] = payload
	d.mu.Unlock()
	return payload, true, nil
}

// Store persists the payload to disk and caches it in memory.
func (d *Disk) Store(_ context.Context, key Key, payload json.RawMessage) error {
	if !d.enabled.Load() {
		return nil
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(d.filePath(key.Hash), payload, 0o644); err != nil {
		return err
	}

	d.mu.Lock()
	d.memory[key.Hash] = payload
	d.mu.Unlock()
	return nil
}

// Invalidate removes the entry from memory and disk.
func (d *Disk) Invalidate(_ context.Context, key Key) error {
	if !d.enabled.Load() {
		return nil
	}

	d.mu.Lock()
	delete(d.memory, key.Hash)
	d.mu.Unlock()

	err := os.Remove(d.filePath(key.Hash))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Clear removes every entry from memory and wipes the cache directory.
func (d *Disk) Clear(_ context.Context) error {
	if !d.enabled.Load() {
		return nil
	}

	d.mu.Lock()
	d.memory = make(map[string]json.RawMessage)
	d.mu.Unlock()

	return os.RemoveAll(d.dir)
}

// Enabled reports whether the tier serves lookups.
func (d *Disk) Enabled() bool { return d.enabled.Load() }

// SetEnabled switches the tier on or off at runtime.
func (d *Disk) SetEnabled(enabled bool) { d.enabled.Store(enabled) }

// Dir returns the cache directory.
func (d *Disk) Dir() string { return d.dir }

// Info returns a diagnostic snapshot.
func (d *Disk) Info() DiskInfo {
	d.mu.RLock()
	memoryEntries := len(d.memory)
	d.mu.RUnlock()

	var diskEntries int
	var diskSize int64
	entries, err := os.ReadDir(d.dir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			diskEntries++
			if info, err := entry.Info(); err == nil {
				diskSize += info.Size()
			}
		}
	}

	return DiskInfo{
		MemoryEntries: memoryEntries,
		DiskEntries:   diskEntries,
		DiskSizeBytes: diskSize,
		Enabled:       d.enabled.Load(),
	}
}

// loadFromDisk reads one cache file. Undecodable files are deleted and
// reported as misses.
func (d *Disk) loadFromDisk(key Key) (json.RawMessage, error) {
	path := d.filePath(key.Hash)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !json.Valid(content) {
		d.log.Warn().Str("path", path).Msg("removing corrupted cache file")
		_ = os.Remove(path)
		return nil, nil
	}
	return content, nil
}

func (d *Disk) filePath(hash string) string {
	return filepath.Join(d.dir, hash+".json")
}
