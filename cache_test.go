package imagecache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testImage is a fixed-dimension Image payload for tests.
type testImage struct {
	w, h float64
}

func (i testImage) Width() float64  { return i.w }
func (i testImage) Height() float64 { return i.h }

// imageOfSize returns an image whose estimated footprint is exactly n bytes.
// n must be a multiple of 4.
func imageOfSize(n uint64) testImage {
	return testImage{w: float64(n / bytesPerPixel), h: 1}
}

// fakeClock returns strictly increasing timestamps so access recency is
// deterministic in tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

func newTestCache(t *testing.T, capacity, purgeTarget uint64) *Cache {
	t.Helper()
	cache, err := New(Config{
		CapacityBytes:    capacity,
		PurgeTargetBytes: purgeTarget,
	}, WithClock(newFakeClock().Now))
	require.NoError(t, err)
	return cache
}

// sumEntrySizes recomputes usage from the live entries for invariant checks.
func sumEntrySizes(c *Cache) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var sum uint64
	for _, e := range c.entries {
		sum += e.sizeBytes
	}
	return sum
}

func TestNew_Defaults(t *testing.T) {
	cache, err := New(Config{})
	require.NoError(t, err)

	config := cache.Config()
	assert.Equal(t, DefaultCapacityBytes, config.CapacityBytes)
	assert.Equal(t, DefaultPurgeTargetBytes, config.PurgeTargetBytes)
	assert.Zero(t, cache.UsageBytes())
	assert.Zero(t, cache.Len())
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{
		CapacityBytes:    1000,
		PurgeTargetBytes: 2000,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "purge target")
}

func TestCache_PutGetRoundTrip(t *testing.T) {
	cache := newTestCache(t, 1000, 600)
	img := imageOfSize(400)

	cache.Put(img, "a")

	got, ok := cache.Get("a")
	require.True(t, ok)
	assert.Equal(t, img, got)
	assert.Equal(t, uint64(400), cache.UsageBytes())
	assert.Equal(t, 1, cache.Len())
}

func TestCache_GetMiss(t *testing.T) {
	cache := newTestCache(t, 1000, 600)

	got, ok := cache.Get("absent")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestCache_ReplaceSubtractsOldSize(t *testing.T) {
	cache := newTestCache(t, 1000, 600)

	cache.Put(imageOfSize(400), "a")
	cache.Put(imageOfSize(100), "a")

	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, uint64(100), cache.UsageBytes())

	got, ok := cache.Get("a")
	require.True(t, ok)
	assert.Equal(t, imageOfSize(100), got)
}

func TestCache_ZeroSizeImage(t *testing.T) {
	cache := newTestCache(t, 1000, 600)

	cache.Put(testImage{w: 0, h: 0}, "empty")

	assert.Equal(t, uint64(0), cache.UsageBytes())
	_, ok := cache.Get("empty")
	assert.True(t, ok)
}

func TestCache_Remove(t *testing.T) {
	cache := newTestCache(t, 1000, 600)
	cache.Put(imageOfSize(400), "a")

	assert.True(t, cache.Remove("a"))
	assert.False(t, cache.Remove("a"))
	assert.Zero(t, cache.UsageBytes())
	assert.Zero(t, cache.Len())
}

func TestCache_ClearIdempotence(t *testing.T) {
	cache := newTestCache(t, 1000, 600)
	cache.Put(imageOfSize(400), "a")
	cache.Put(imageOfSize(400), "b")

	assert.True(t, cache.Clear())
	assert.False(t, cache.Clear())
	assert.Zero(t, cache.UsageBytes())
	assert.Zero(t, cache.Len())
}

func TestCache_PurgeScenario(t *testing.T) {
	// capacity=1000, target=600: three 400-byte inserts total 1200, so the
	// purge frees 600 bytes by removing the two oldest entries.
	cache := newTestCache(t, 1000, 600)

	cache.Put(imageOfSize(400), "a")
	cache.Put(imageOfSize(400), "b")
	cache.Put(imageOfSize(400), "c")

	assert.Equal(t, uint64(400), cache.UsageBytes())
	assert.Equal(t, 1, cache.Len())

	_, ok := cache.Get("a")
	assert.False(t, ok, "oldest entry should be purged first")
	_, ok = cache.Get("b")
	assert.False(t, ok, "second oldest entry should be purged next")
	_, ok = cache.Get("c")
	assert.True(t, ok, "newest entry should survive")

	snapshot := cache.Metrics().Snapshot()
	assert.Equal(t, int64(1), snapshot.Purges)
	assert.Equal(t, int64(2), snapshot.Evictions)
	assert.Equal(t, uint64(800), snapshot.EvictedBytes)
}

func TestCache_PurgeRespectsReadRecency(t *testing.T) {
	cache := newTestCache(t, 1000, 600)

	cache.Put(imageOfSize(300), "a")
	cache.Put(imageOfSize(300), "b")
	cache.Put(imageOfSize(300), "c")

	// Reading a makes b the least recently touched entry.
	_, ok := cache.Get("a")
	require.True(t, ok)

	// 1200 bytes total triggers a purge down to 600: b and c go, a stays.
	cache.Put(imageOfSize(300), "d")

	_, ok = cache.Get("b")
	assert.False(t, ok)
	_, ok = cache.Get("c")
	assert.False(t, ok)
	_, ok = cache.Get("a")
	assert.True(t, ok)
	_, ok = cache.Get("d")
	assert.True(t, ok)
	assert.Equal(t, uint64(600), cache.UsageBytes())
}

func TestCache_PurgeStopsOnceEnoughFreed(t *testing.T) {
	cache := newTestCache(t, 1000, 600)

	cache.Put(imageOfSize(800), "big")
	cache.Put(imageOfSize(300), "small")

	// Purge needs 500 bytes; removing "big" overshoots and stops there.
	_, ok := cache.Get("big")
	assert.False(t, ok)
	_, ok = cache.Get("small")
	assert.True(t, ok)
	assert.Equal(t, uint64(300), cache.UsageBytes())
}

func TestCache_OversizedInsertPurgesItself(t *testing.T) {
	cache := newTestCache(t, 1000, 600)

	cache.Put(imageOfSize(2000), "huge")

	assert.Zero(t, cache.Len())
	assert.Zero(t, cache.UsageBytes())
}

func TestCache_PurgeTieBreaksByKey(t *testing.T) {
	clock := newFakeClock()
	frozen := clock.Now()
	cache, err := New(Config{CapacityBytes: 1000, PurgeTargetBytes: 600},
		WithClock(func() time.Time { return frozen }))
	require.NoError(t, err)

	// Identical timestamps: purge order falls back to ascending key order.
	cache.Put(imageOfSize(400), "b")
	cache.Put(imageOfSize(400), "a")
	cache.Put(imageOfSize(400), "c")

	_, ok := cache.Get("a")
	assert.False(t, ok)
	_, ok = cache.Get("b")
	assert.False(t, ok)
	_, ok = cache.Get("c")
	assert.True(t, ok)
}

func TestCache_UsageMatchesEntries(t *testing.T) {
	cache := newTestCache(t, 10000, 6000)

	cache.Put(imageOfSize(400), "a")
	cache.Put(imageOfSize(800), "b")
	cache.Put(imageOfSize(1200), "c")
	cache.Remove("b")
	cache.Put(imageOfSize(100), "a") // replace
	cache.Put(imageOfSize(4000), "d")

	assert.Equal(t, sumEntrySizes(cache), cache.UsageBytes())

	cache.Clear()
	assert.Equal(t, sumEntrySizes(cache), cache.UsageBytes())
	assert.Zero(t, cache.UsageBytes())
}

func TestCache_SourceKeyedOperations(t *testing.T) {
	cache := newTestCache(t, 10000, 6000)
	src := StringSource("https://example.com/a.png")
	img := imageOfSize(400)

	cache.PutSource(img, src, "round-64")

	got, ok := cache.GetSource(src, "round-64")
	require.True(t, ok)
	assert.Equal(t, img, got)

	// Same source with a different qualifier is a distinct entry.
	_, ok = cache.GetSource(src, "")
	assert.False(t, ok)

	// The derived key addresses the same entry directly.
	_, ok = cache.Get("https://example.com/a.png-round-64")
	assert.True(t, ok)

	assert.True(t, cache.RemoveSource(src, "round-64"))
	assert.False(t, cache.RemoveSource(src, "round-64"))
}

func TestCache_ConcurrentSameKeyPuts(t *testing.T) {
	cache := newTestCache(t, 1<<30, 1<<29)

	var wg sync.WaitGroup
	sizes := []uint64{400, 800}
	for _, size := range sizes {
		wg.Add(1)
		go func(size uint64) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				cache.Put(imageOfSize(size), "shared")
			}
		}(size)
	}
	wg.Wait()

	// Last writer wins: exactly one entry, usage equal to its size, never a
	// double-count.
	require.Equal(t, 1, cache.Len())
	img, ok := cache.Get("shared")
	require.True(t, ok)
	assert.Equal(t, imageSizeBytes(img), cache.UsageBytes())
}

func TestCache_ConcurrentMixedOperations(t *testing.T) {
	cache := newTestCache(t, 100000, 60000)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d-%d", id, j%10)
				switch j % 4 {
				case 0, 1:
					cache.Put(imageOfSize(uint64(4*(j+1))), key)
				case 2:
					cache.Get(key)
				case 3:
					cache.Remove(key)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, sumEntrySizes(cache), cache.UsageBytes())
}

func TestCache_StatsSnapshot(t *testing.T) {
	cache := newTestCache(t, 1000, 600)

	cache.Put(imageOfSize(400), "a")
	cache.Get("a")
	cache.Get("missing")

	stats := cache.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, uint64(400), stats.UsageBytes)
	assert.Equal(t, uint64(1000), stats.CapacityBytes)
	assert.Equal(t, uint64(600), stats.PurgeTargetBytes)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 0.001)
}
