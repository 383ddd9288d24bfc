// Package smcache caches compiled template artifacts (bytecode
// programs and generated Go plugin sources) on disk, keyed by a
// SHA-256 digest of the template source plus the chosen back end, so
// a dev server or CLI invocation can skip recompiling templates that
// have not changed. Entries additionally record the template path(s)
// they were compiled from, so the watch server can drop an artifact
// the instant fsnotify reports that file changed, instead of waiting
// for its content hash to eventually miss.
package smcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Cache stores compiled template artifacts under a directory on
// disk. It evicts the least-recently-used entry once the store
// exceeds its size budget and sweeps entries past MaxAge in the
// background; there is only one eviction policy because nothing in
// this toolchain ever needs to choose between them.
type Cache struct {
	mu      sync.Mutex
	dir     string
	entries map[string]*Entry
	maxSize int64
	maxAge  time.Duration
	stopCh  chan struct{}

	hits, misses, evictions int64
	totalSize                int64
}

// Entry is one compiled artifact: either an interpreter bytecode blob
// or a generated Go source file. Deps holds the template file(s) the
// artifact was compiled from; InvalidateByDependency uses it to drop
// an entry the moment one of those files is reported changed.
type Entry struct {
	Key         string    `json:"key"`
	Hash        string    `json:"hash"`
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	Created     time.Time `json:"created"`
	LastAccess  time.Time `json:"last_access"`
	AccessCount int       `json:"access_count"`
	Deps        []string  `json:"deps,omitempty"`
}

// Stats is a point-in-time snapshot of cache performance counters,
// as printed by `smarty cache stats`.
type Stats struct {
	Hits       int64
	Misses     int64
	Evictions  int64
	TotalSize  int64
	EntryCount int
}

// Config configures a Cache.
type Config struct {
	Dir     string
	MaxSize int64
	MaxAge  time.Duration
}

// DefaultConfig returns a Config rooted at $HOME/.cache/smarty with a
// 1 GB budget and a 7-day age limit.
func DefaultConfig() Config {
	homeDir, _ := os.UserHomeDir()
	return Config{
		Dir:     filepath.Join(homeDir, ".cache", "smarty"),
		MaxSize: 1 << 30,
		MaxAge:  7 * 24 * time.Hour,
	}
}

// New creates a Cache rooted at config.Dir, loading an existing index
// file if one is present and starting a background expiry sweep.
func New(config Config) (*Cache, error) {
	if config.Dir == "" {
		config = DefaultConfig()
	}
	if err := os.MkdirAll(config.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	c := &Cache{
		dir:     config.Dir,
		maxSize: config.MaxSize,
		maxAge:  config.MaxAge,
		entries: make(map[string]*Entry),
		stopCh:  make(chan struct{}),
	}
	c.loadIndex()

	go c.sweep()
	return c, nil
}

// ArtifactKey computes the cache key for a template compiled with a
// given back end name ("interp" or "gosrc"): the SHA-256 of the
// source text and the back end selector, so the same source compiled
// two different ways never collides.
func ArtifactKey(source, backend string) string {
	return Key(backend, source)
}

// Get retrieves a cached artifact.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && c.expired(entry) {
		c.removeLocked(key)
		ok = false
	}
	if !ok {
		c.misses++
	}
	c.mu.Unlock()

	if !ok {
		return nil, false
	}

	data, err := os.ReadFile(entry.Path)
	if err != nil {
		c.mu.Lock()
		c.removeLocked(key)
		c.misses++
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	entry.LastAccess = time.Now()
	entry.AccessCount++
	c.hits++
	c.mu.Unlock()

	c.saveIndex()
	return data, true
}

// Put stores an artifact under key without dependency tracking.
func (c *Cache) Put(key string, data []byte) error {
	return c.PutWithDeps(key, data, nil)
}

// PutWithDeps stores an artifact along with the template path(s) it
// was compiled from. The watch server calls this instead of Put so a
// later InvalidateByDependency(path) can drop the entry the instant
// that template changes on disk.
func (c *Cache) PutWithDeps(key string, data []byte, deps []string) error {
	hash := sha256Hex(data)

	c.mu.Lock()
	if existing, ok := c.entries[key]; ok && existing.Hash == hash {
		existing.Deps = deps
		c.mu.Unlock()
		return c.saveIndex()
	}
	c.mu.Unlock()

	if err := c.ensureSpace(int64(len(data))); err != nil {
		return fmt.Errorf("ensure cache space: %w", err)
	}

	filename := fmt.Sprintf("%s_%s", sanitizeKey(key), hash[:8])
	path := filepath.Join(c.dir, "artifacts", filename)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create artifacts directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}

	entry := &Entry{
		Key:        key,
		Hash:       hash,
		Path:       path,
		Size:       int64(len(data)),
		Created:    time.Now(),
		LastAccess: time.Now(),
		Deps:       deps,
	}

	c.mu.Lock()
	if old, ok := c.entries[key]; ok {
		c.removeFile(old.Path)
		c.totalSize -= old.Size
	}
	c.entries[key] = entry
	c.totalSize += entry.Size
	c.mu.Unlock()

	return c.saveIndex()
}

// Delete removes an entry, if present.
func (c *Cache) Delete(key string) error {
	c.mu.Lock()
	c.removeLocked(key)
	c.mu.Unlock()
	return c.saveIndex()
}

// InvalidateByDependency removes every entry whose Deps lists dep,
// the exact template path fsnotify reported as changed. It returns
// the number of entries dropped so a caller can log a meaningful
// "recompiling N templates" message.
func (c *Cache) InvalidateByDependency(dep string) int {
	c.mu.Lock()
	count := 0
	for key, entry := range c.entries {
		for _, d := range entry.Deps {
			if d == dep {
				c.removeLocked(key)
				count++
				break
			}
		}
	}
	c.mu.Unlock()
	c.saveIndex()
	return count
}

// Clear removes every cached artifact and resets the counters.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.RemoveAll(filepath.Join(c.dir, "artifacts")); err != nil {
		return fmt.Errorf("clear artifacts: %w", err)
	}
	c.entries = make(map[string]*Entry)
	c.totalSize, c.hits, c.misses, c.evictions = 0, 0, 0, 0
	return c.saveIndexLocked()
}

// Stats returns a snapshot of the cache's performance counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:       c.hits,
		Misses:     c.misses,
		Evictions:  c.evictions,
		TotalSize:  c.totalSize,
		EntryCount: len(c.entries),
	}
}

// Key hashes a sequence of inputs into a cache key.
func Key(inputs ...string) string {
	h := sha256.New()
	for _, in := range inputs {
		h.Write([]byte(in))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Close stops the background expiry sweep and flushes the index.
func (c *Cache) Close() error {
	close(c.stopCh)
	return c.saveIndex()
}

func (c *Cache) loadIndex() {
	data, err := os.ReadFile(filepath.Join(c.dir, "index.json"))
	if err != nil {
		return
	}
	var entries map[string]*Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return
	}
	c.entries = entries

	var total int64
	for _, e := range c.entries {
		total += e.Size
	}
	c.totalSize = total
}

func (c *Cache) saveIndex() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveIndexLocked()
}

func (c *Cache) saveIndexLocked() error {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, "index.json"), data, 0644)
}

func (c *Cache) expired(entry *Entry) bool {
	if c.maxAge <= 0 {
		return false
	}
	return time.Since(entry.Created) > c.maxAge
}

// ensureSpace evicts least-recently-used entries until data of the
// given size would fit under maxSize.
func (c *Cache) ensureSpace(needed int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize <= 0 {
		return nil
	}

	for c.totalSize+needed > c.maxSize && len(c.entries) > 0 {
		var evictKey string
		var evictEntry *Entry
		for key, entry := range c.entries {
			if evictEntry == nil || entry.LastAccess.Before(evictEntry.LastAccess) {
				evictKey, evictEntry = key, entry
			}
		}
		if evictEntry == nil {
			break
		}
		c.removeLocked(evictKey)
		c.evictions++
	}
	return nil
}

// removeLocked deletes an entry and its backing file. Callers must
// hold mu.
func (c *Cache) removeLocked(key string) {
	entry, ok := c.entries[key]
	if !ok {
		return
	}
	c.removeFile(entry.Path)
	delete(c.entries, key)
	c.totalSize -= entry.Size
}

func (c *Cache) sweep() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			for key, entry := range c.entries {
				if c.expired(entry) {
					c.removeLocked(key)
				}
			}
			c.mu.Unlock()
			c.saveIndex()
		case <-c.stopCh:
			return
		}
	}
}

func (c *Cache) removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "smcache: failed to remove %s: %v\n", path, err)
	}
}

func sha256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func sanitizeKey(key string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_", " ", "_",
	)
	s := replacer.Replace(key)
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}
