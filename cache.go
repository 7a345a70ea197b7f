package imagecache

import (
	"sort"
	"sync"
	"time"
)

// Cache is an in-memory image cache bounded by estimated byte usage. When an
// insert pushes usage above the configured capacity, the least recently
// accessed entries are purged until usage drops to the configured purge
// target.
//
// A Cache is safe for concurrent use by multiple goroutines. Reads run
// concurrently with each other; mutations are serialized, and an insert plus
// any purge it triggers forms a single critical section, so no operation ever
// observes a partially purged cache.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	usage   uint64

	config  Config
	metrics *Metrics
	logger  *Logger
	now     func() time.Time
}

// Option configures Cache creation.
type Option func(*cacheOptions)

type cacheOptions struct {
	logger  *Logger
	metrics *Metrics
	now     func() time.Time
}

// WithLogger provides a logger for cache events. Without this option the
// cache logs nothing.
//
// Example:
//
//	cache, err := imagecache.New(config,
//	    imagecache.WithLogger(imagecache.NewLogger(imagecache.DefaultLogConfig())))
func WithLogger(logger *Logger) Option {
	return func(opts *cacheOptions) {
		opts.logger = logger
	}
}

// WithMetrics provides an externally owned Metrics instance, letting several
// caches share one collector. Without this option the cache creates its own.
func WithMetrics(metrics *Metrics) Option {
	return func(opts *cacheOptions) {
		opts.metrics = metrics
	}
}

// WithClock overrides the time source used for access-recency stamps.
// Intended for tests that need deterministic purge ordering.
func WithClock(now func() time.Time) Option {
	return func(opts *cacheOptions) {
		opts.now = now
	}
}

// New creates a cache with the given configuration. Zero-valued thresholds
// take the package defaults (100 MiB capacity, 60 MiB purge target).
//
// Example:
//
//	cache, err := imagecache.New(imagecache.Config{
//	    CapacityBytes:    50 * 1024 * 1024,
//	    PurgeTargetBytes: 30 * 1024 * 1024,
//	})
func New(config Config, opts ...Option) (*Cache, error) {
	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	options := &cacheOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = NewNopLogger()
	}
	if options.metrics == nil {
		options.metrics = NewMetrics()
	}
	if options.now == nil {
		options.now = time.Now
	}

	return &Cache{
		entries: make(map[string]*entry),
		config:  config,
		metrics: options.metrics,
		logger:  options.logger,
		now:     options.now,
	}, nil
}

// Put inserts or replaces the image stored under key. Replacing an entry
// first retires the old entry's size from usage. If the insert pushes usage
// above the configured capacity, a purge pass runs before Put returns.
//
// Put accepts any payload, including zero-sized images, and never fails.
func (c *Cache) Put(img Image, key string) {
	e := &entry{
		image:     img,
		key:       key,
		sizeBytes: imageSizeBytes(img),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e.lastAccess.Store(c.now().UnixNano())

	if old, ok := c.entries[key]; ok {
		c.subtractUsage(old.sizeBytes)
	}
	c.entries[key] = e
	c.usage += e.sizeBytes

	c.metrics.recordPut(c.usage, len(c.entries))

	if c.usage > c.config.CapacityBytes {
		c.purge()
	}
}

// PutSource derives the key from a source and an optional qualifier, then
// stores the image under it.
func (c *Cache) PutSource(img Image, src Source, qualifier string) {
	c.Put(img, Key(src, qualifier))
}

// Get returns the image stored under key, refreshing its access recency.
// The second return value reports whether an entry was found. Get never
// changes cache membership or usage.
func (c *Cache) Get(key string) (Image, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	if ok {
		e.lastAccess.Store(c.now().UnixNano())
	}
	c.mu.RUnlock()

	if !ok {
		c.metrics.recordMiss()
		c.logger.logMiss(key)
		return nil, false
	}

	c.metrics.recordHit()
	c.logger.logHit(key, e.sizeBytes)
	return e.image, true
}

// GetSource derives the key from a source and an optional qualifier, then
// looks it up.
func (c *Cache) GetSource(src Source, qualifier string) (Image, bool) {
	return c.Get(Key(src, qualifier))
}

// Remove deletes the entry stored under key, returning whether an entry was
// removed.
func (c *Cache) Remove(key string) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return false
	}
	delete(c.entries, key)
	c.subtractUsage(e.sizeBytes)
	usage, count := c.usage, len(c.entries)
	c.mu.Unlock()

	c.metrics.recordRemove(usage, count)
	return true
}

// RemoveSource derives the key from a source and an optional qualifier, then
// removes it.
func (c *Cache) RemoveSource(src Source, qualifier string) bool {
	return c.Remove(Key(src, qualifier))
}

// Clear removes all entries and resets usage to zero, returning whether the
// cache held anything. Applications call this in response to low-memory
// signals; the cache itself never watches for them.
func (c *Cache) Clear() bool {
	c.mu.Lock()
	count := len(c.entries)
	freed := c.usage
	c.entries = make(map[string]*entry)
	c.usage = 0
	c.mu.Unlock()

	if count == 0 {
		return false
	}

	c.metrics.recordClear()
	c.logger.logClear(count, freed)
	return true
}

// UsageBytes returns the current estimated memory usage, observed atomically
// with respect to concurrent mutations.
func (c *Cache) UsageBytes() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.usage
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Metrics returns the metrics instance the cache reports into.
func (c *Cache) Metrics() *Metrics {
	return c.metrics
}

// Stats returns a consistent snapshot of cache state and effectiveness.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	usage, count := c.usage, len(c.entries)
	c.mu.RUnlock()

	snapshot := c.metrics.Snapshot()
	return Stats{
		Entries:          count,
		UsageBytes:       usage,
		CapacityBytes:    c.config.CapacityBytes,
		PurgeTargetBytes: c.config.PurgeTargetBytes,
		Hits:             snapshot.Hits,
		Misses:           snapshot.Misses,
		HitRate:          snapshot.HitRate,
		Evictions:        snapshot.Evictions,
		EvictedBytes:     snapshot.EvictedBytes,
	}
}

// purge removes least recently accessed entries until usage drops to the
// purge target or the cache is empty. Callers must hold the write lock.
//
// The pass snapshots and sorts every entry by access time, an O(n log n)
// cost paid only when an insert crosses the capacity ceiling.
func (c *Cache) purge() {
	start := c.now()

	var bytesToPurge uint64
	if c.usage > c.config.PurgeTargetBytes {
		bytesToPurge = c.usage - c.config.PurgeTargetBytes
	}
	if bytesToPurge == 0 {
		return
	}

	victims := make([]*entry, 0, len(c.entries))
	for _, e := range c.entries {
		victims = append(victims, e)
	}
	// Oldest access first; key breaks ties so the order is reproducible.
	sort.Slice(victims, func(i, j int) bool {
		ti, tj := victims[i].lastAccess.Load(), victims[j].lastAccess.Load()
		if ti != tj {
			return ti < tj
		}
		return victims[i].key < victims[j].key
	})

	var freed uint64
	removed := 0
	for _, e := range victims {
		if freed >= bytesToPurge {
			break
		}
		delete(c.entries, e.key)
		freed += e.sizeBytes
		removed++
		c.logger.logEviction(e.key, e.sizeBytes)
	}
	c.subtractUsage(freed)

	c.metrics.recordPurge(removed, freed, c.usage, len(c.entries))
	c.logger.logPurge(removed, freed, c.usage, c.now().Sub(start))
}

// subtractUsage decrements usage, clamping at zero rather than wrapping.
// Callers must hold the write lock.
func (c *Cache) subtractUsage(n uint64) {
	if n > c.usage {
		c.usage = 0
		return
	}
	c.usage -= n
}
