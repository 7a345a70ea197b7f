package imagecache

import (
	"sync"
	"time"
)

// Metrics collects operational statistics for a cache. All methods are safe
// for concurrent use. A Cache drives its own Metrics instance; callers read
// it through Snapshot.
type Metrics struct {
	mu sync.Mutex

	// Core hit/miss statistics
	hits   int64
	misses int64

	// Mutation counters
	puts    int64
	removes int64
	clears  int64

	// Purge tracking
	purges       int64
	evictions    int64
	evictedBytes uint64

	// Gauges mirrored from the cache after each mutation
	usageBytes uint64
	entries    int

	// Peak usage tracking
	peakUsageBytes uint64
	peakEntries    int
	peakHitRate    float64

	// Time-based metrics
	startTime     time.Time
	lastPurgeTime time.Time
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// recordHit records a successful lookup.
func (m *Metrics) recordHit() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hits++
	if rate := m.hitRate(); rate > m.peakHitRate {
		m.peakHitRate = rate
	}
}

// recordMiss records a failed lookup.
func (m *Metrics) recordMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.misses++
}

// recordPut records an insert or replace and the resulting cache state.
func (m *Metrics) recordPut(usageBytes uint64, entries int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.puts++
	m.setGauges(usageBytes, entries)
}

// recordRemove records an individual removal and the resulting cache state.
func (m *Metrics) recordRemove(usageBytes uint64, entries int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.removes++
	m.setGauges(usageBytes, entries)
}

// recordPurge records a completed purge pass.
func (m *Metrics) recordPurge(entriesRemoved int, bytesFreed, usageBytes uint64, entries int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purges++
	m.evictions += int64(entriesRemoved)
	m.evictedBytes += bytesFreed
	m.lastPurgeTime = time.Now()
	m.setGauges(usageBytes, entries)
}

// recordClear records an explicit clear.
func (m *Metrics) recordClear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clears++
	m.setGauges(0, 0)
}

// setGauges mirrors the cache's current usage and updates peaks.
// Callers must hold mu.
func (m *Metrics) setGauges(usageBytes uint64, entries int) {
	m.usageBytes = usageBytes
	m.entries = entries
	if usageBytes > m.peakUsageBytes {
		m.peakUsageBytes = usageBytes
	}
	if entries > m.peakEntries {
		m.peakEntries = entries
	}
}

// hitRate calculates the current hit rate. Callers must hold mu.
func (m *Metrics) hitRate() float64 {
	total := m.hits + m.misses
	if total == 0 {
		return 0.0
	}
	return float64(m.hits) / float64(total)
}

// Snapshot returns a thread-safe snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return MetricsSnapshot{
		Hits:           m.hits,
		Misses:         m.misses,
		HitRate:        m.hitRate(),
		Puts:           m.puts,
		Removes:        m.removes,
		Clears:         m.clears,
		Purges:         m.purges,
		Evictions:      m.evictions,
		EvictedBytes:   m.evictedBytes,
		UsageBytes:     m.usageBytes,
		Entries:        m.entries,
		PeakUsageBytes: m.peakUsageBytes,
		PeakEntries:    m.peakEntries,
		PeakHitRate:    m.peakHitRate,
		Uptime:         time.Since(m.startTime),
		LastPurgeTime:  m.lastPurgeTime,
	}
}

// Reset clears all metrics data.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Reset fields individually so the mutex is left untouched.
	m.hits = 0
	m.misses = 0
	m.puts = 0
	m.removes = 0
	m.clears = 0
	m.purges = 0
	m.evictions = 0
	m.evictedBytes = 0
	m.usageBytes = 0
	m.entries = 0
	m.peakUsageBytes = 0
	m.peakEntries = 0
	m.peakHitRate = 0.0
	m.startTime = time.Now()
	m.lastPurgeTime = time.Time{}
}

// MetricsSnapshot provides a point-in-time view of cache metrics.
type MetricsSnapshot struct {
	// Core hit/miss statistics
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`

	// Mutation counters
	Puts    int64 `json:"puts"`
	Removes int64 `json:"removes"`
	Clears  int64 `json:"clears"`

	// Purge tracking
	Purges       int64  `json:"purges"`
	Evictions    int64  `json:"evictions"`
	EvictedBytes uint64 `json:"evicted_bytes"`

	// Current cache state
	UsageBytes uint64 `json:"usage_bytes"`
	Entries    int    `json:"entries"`

	// Peak usage tracking
	PeakUsageBytes uint64  `json:"peak_usage_bytes"`
	PeakEntries    int     `json:"peak_entries"`
	PeakHitRate    float64 `json:"peak_hit_rate"`

	// Time-based metrics
	Uptime        time.Duration `json:"uptime"`
	LastPurgeTime time.Time     `json:"last_purge_time"`
}
