// Package cache provides the bounded in-memory store for relevance
// classifications: TTL expiry, LRU eviction, version tagging, pattern-based
// invalidation, and health reporting. All operations are safe for concurrent
// use; reads also touch LRU order and access counters, so they take the same
// lock as writes.
package cache

import (
	"container/list"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fundgrove/relevance/internal/core/domain"
	"github.com/fundgrove/relevance/internal/metrics"
)

// Config holds cache tuning parameters.
type Config struct {
	MaxSize       int           `yaml:"max_size"`
	TTL           time.Duration `yaml:"ttl"`
	MemoryLimit   int64         `yaml:"memory_limit_bytes"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	MinHitSamples int64         `yaml:"min_hit_samples"` // lookups before hit rate affects health
	WarnThreshold float64       `yaml:"warn_threshold"`  // usage fraction for warning status
	CritThreshold float64       `yaml:"crit_threshold"`  // usage fraction for critical status
	MinHitRate    float64       `yaml:"min_hit_rate"`    // hit rate below this degrades health
}

// DefaultConfig returns the tuning used when the config file leaves the
// cache section empty.
func DefaultConfig() Config {
	return Config{
		MaxSize:       1000,
		TTL:           30 * time.Minute,
		MemoryLimit:   16 << 20, // 16 MiB estimate ceiling
		SweepInterval: time.Minute,
		MinHitSamples: 20,
		WarnThreshold: 0.75,
		CritThreshold: 0.90,
		MinHitRate:    0.50,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxSize <= 0 {
		c.MaxSize = def.MaxSize
	}
	if c.TTL <= 0 {
		c.TTL = def.TTL
	}
	if c.MemoryLimit <= 0 {
		c.MemoryLimit = def.MemoryLimit
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = def.SweepInterval
	}
	if c.MinHitSamples <= 0 {
		c.MinHitSamples = def.MinHitSamples
	}
	if c.WarnThreshold <= 0 {
		c.WarnThreshold = def.WarnThreshold
	}
	if c.CritThreshold <= 0 {
		c.CritThreshold = def.CritThreshold
	}
	if c.MinHitRate <= 0 {
		c.MinHitRate = def.MinHitRate
	}
	return c
}

// entry is a single cached classification.
type entry struct {
	key          string
	value        domain.RelevanceMetadata
	cachedAt     time.Time
	expiresAt    time.Time
	version      uint64
	accessCount  uint64
	lastAccessed time.Time
	sizeBytes    int64
}

// EntryInfo is the read-only view of an entry handed to invalidation
// predicates.
type EntryInfo struct {
	Key          string
	CachedAt     time.Time
	ExpiresAt    time.Time
	Version      uint64
	AccessCount  uint64
	LastAccessed time.Time
	SizeBytes    int64
	Expired      bool // TTL elapsed or version stale
}

// Cache is a bounded TTL+LRU store keyed by deterministic program keys.
type Cache struct {
	cfg Config

	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List // front = most recently used
	version uint64
	memory  int64

	hits          atomic.Int64
	misses        atomic.Int64
	evictions     atomic.Int64
	invalidations atomic.Int64
	expired       atomic.Int64

	sweepMu   sync.Mutex
	sweepStop chan struct{}
}

// New creates a cache with the given configuration. Zero-valued fields fall
// back to defaults.
func New(cfg Config) *Cache {
	cfg = cfg.withDefaults()
	return &Cache{
		cfg:   cfg,
		items: make(map[string]*list.Element, cfg.MaxSize),
		order: list.New(),
	}
}

// Get looks up a classification. A stale entry (expired TTL or old cache
// version) is deleted as a side effect and reported as a miss. A hit bumps
// the access count and moves the entry to the front of the LRU order.
func (c *Cache) Get(key string) (domain.RelevanceMetadata, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		metrics.CacheMisses.Inc()
		return domain.RelevanceMetadata{}, false
	}

	e := elem.Value.(*entry)
	if !c.validLocked(e, time.Now()) {
		c.removeLocked(elem)
		c.expired.Add(1)
		c.misses.Add(1)
		metrics.CacheMisses.Inc()
		return domain.RelevanceMetadata{}, false
	}

	c.order.MoveToFront(elem)
	e.accessCount++
	e.lastAccessed = time.Now()
	c.hits.Add(1)
	metrics.CacheHits.Inc()
	return e.value, true
}

// Set stores a classification under key. A non-positive ttl uses the
// configured default. When the cache is full and key is new, the least
// recently used entry is evicted first; the just-inserted key is never the
// eviction victim.
func (c *Cache) Set(key string, value domain.RelevanceMetadata, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.cfg.TTL
	}
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry)
		c.memory -= e.sizeBytes
		e.value = value
		e.cachedAt = now
		e.expiresAt = now.Add(ttl)
		e.version = c.version
		e.sizeBytes = estimateSize(key, value)
		c.memory += e.sizeBytes
		c.order.MoveToFront(elem)
		metrics.CacheMemoryBytes.Set(float64(c.memory))
		return nil
	}

	if c.order.Len() >= c.cfg.MaxSize {
		c.evictLRULocked()
	}

	e := &entry{
		key:          key,
		value:        value,
		cachedAt:     now,
		expiresAt:    now.Add(ttl),
		version:      c.version,
		lastAccessed: now,
		sizeBytes:    estimateSize(key, value),
	}
	c.items[key] = c.order.PushFront(e)
	c.memory += e.sizeBytes
	metrics.CacheSize.Set(float64(len(c.items)))
	metrics.CacheMemoryBytes.Set(float64(c.memory))
	return nil
}

// Delete removes a key. It reports whether an entry was present.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeLocked(elem)
	c.invalidations.Add(1)
	return true
}

// Clear drops every entry and bumps the cache version, so any entry that
// somehow survives (for example in an injected backend) can never read as
// valid again.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

func (c *Cache) clearLocked() {
	n := len(c.items)
	c.items = make(map[string]*list.Element, c.cfg.MaxSize)
	c.order.Init()
	c.memory = 0
	c.version++
	c.invalidations.Add(int64(n))
	metrics.CacheSize.Set(0)
	metrics.CacheMemoryBytes.Set(0)
}

// Size returns the current number of entries, including not-yet-swept stale
// ones.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// InvalidateByPattern deletes every entry whose key contains pattern and
// returns the number removed.
func (c *Cache) InvalidateByPattern(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, elem := range c.items {
		if strings.Contains(elem.Value.(*entry).key, pattern) {
			c.removeLocked(elem)
			removed++
		}
	}
	c.invalidations.Add(int64(removed))
	return removed
}

// InvalidateFunc deletes every entry the predicate selects and returns the
// number removed.
func (c *Cache) InvalidateFunc(pred func(EntryInfo) bool) int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, elem := range c.items {
		e := elem.Value.(*entry)
		info := EntryInfo{
			Key:          e.key,
			CachedAt:     e.cachedAt,
			ExpiresAt:    e.expiresAt,
			Version:      e.version,
			AccessCount:  e.accessCount,
			LastAccessed: e.lastAccessed,
			SizeBytes:    e.sizeBytes,
			Expired:      !c.validLocked(e, now),
		}
		if pred(info) {
			c.removeLocked(elem)
			removed++
		}
	}
	c.invalidations.Add(int64(removed))
	return removed
}

// Keys returns a snapshot of all keys, valid or stale.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.items))
	for key := range c.items {
		keys = append(keys, key)
	}
	return keys
}

func (c *Cache) validLocked(e *entry, now time.Time) bool {
	return e.version == c.version && now.Before(e.expiresAt)
}

// removeLocked deletes the element from map, list, and memory accounting.
func (c *Cache) removeLocked(elem *list.Element) {
	e := elem.Value.(*entry)
	delete(c.items, e.key)
	c.order.Remove(elem)
	c.memory -= e.sizeBytes
	metrics.CacheSize.Set(float64(len(c.items)))
	metrics.CacheMemoryBytes.Set(float64(c.memory))
}

func (c *Cache) evictLRULocked() {
	back := c.order.Back()
	if back == nil {
		return
	}
	c.removeLocked(back)
	c.evictions.Add(1)
	metrics.CacheEvictions.Inc()
}

// estimateSize approximates an entry's memory footprint. The estimate feeds
// soft thresholds only, never hard correctness.
func estimateSize(key string, value domain.RelevanceMetadata) int64 {
	const entryOverhead = 160 // struct, list element, map bucket share
	return int64(len(key)+len(value.Origin)+len(value.Implementation)) + entryOverhead
}
