package imagecache

import (
	"sync/atomic"

	"github.com/jmgilman/go/errors"
)

// Default byte thresholds applied by Config.SetDefaults.
const (
	// DefaultCapacityBytes is the default memory ceiling (100 MiB).
	DefaultCapacityBytes uint64 = 100 * 1024 * 1024
	// DefaultPurgeTargetBytes is the default usage floor a purge pass
	// reduces the cache to (60 MiB).
	DefaultPurgeTargetBytes uint64 = 60 * 1024 * 1024
)

// bytesPerPixel is the assumed in-memory cost of one pixel (RGBA8).
const bytesPerPixel = 4

// Config holds configuration for cache behavior.
type Config struct {
	// CapacityBytes is the memory ceiling. An insert that pushes usage
	// above this triggers a purge pass.
	CapacityBytes uint64
	// PurgeTargetBytes is the usage floor a purge pass reduces the cache
	// to. Must not exceed CapacityBytes.
	PurgeTargetBytes uint64
}

// SetDefaults applies default values to unset fields in the configuration.
func (c *Config) SetDefaults() {
	if c.CapacityBytes == 0 {
		c.CapacityBytes = DefaultCapacityBytes
	}
	if c.PurgeTargetBytes == 0 {
		c.PurgeTargetBytes = DefaultPurgeTargetBytes
	}
}

// Validate checks that the cache configuration is valid. It should be called
// after SetDefaults.
func (c *Config) Validate() error {
	if c.CapacityBytes == 0 {
		return errors.New(errors.CodeInvalidConfig, "capacity must be greater than 0")
	}
	if c.PurgeTargetBytes > c.CapacityBytes {
		return errors.Newf(errors.CodeInvalidConfig,
			"purge target (%d bytes) exceeds capacity (%d bytes)",
			c.PurgeTargetBytes, c.CapacityBytes)
	}
	return nil
}

// Image is the minimal surface the cache requires from a stored payload.
// Dimensions are in pixels and may be fractional for scaled images.
type Image interface {
	// Width returns the image width in pixels.
	Width() float64
	// Height returns the image height in pixels.
	Height() float64
}

// imageSizeBytes estimates the in-memory footprint of an image. Each
// dimension is truncated to a whole pixel before multiplying; negative
// dimensions clamp to zero.
func imageSizeBytes(img Image) uint64 {
	w, h := img.Width(), img.Height()
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return uint64(w) * uint64(h) * bytesPerPixel
}

// entry is the cache's private bookkeeping record for one stored image.
// Callers never receive a reference to it.
type entry struct {
	// image is the cached payload.
	image Image
	// key is the identifier the entry is stored under, kept redundantly
	// to simplify purge bookkeeping.
	key string
	// sizeBytes is the footprint estimate computed once at insertion.
	sizeBytes uint64
	// lastAccess holds the UnixNano timestamp of the most recent hit.
	// Atomic so Get can refresh recency while holding only the read lock.
	lastAccess atomic.Int64
}

// Stats provides a point-in-time view of cache state and effectiveness.
type Stats struct {
	Entries          int     `json:"entries"`
	UsageBytes       uint64  `json:"usage_bytes"`
	CapacityBytes    uint64  `json:"capacity_bytes"`
	PurgeTargetBytes uint64  `json:"purge_target_bytes"`
	Hits             int64   `json:"hits"`
	Misses           int64   `json:"misses"`
	HitRate          float64 `json:"hit_rate"`
	Evictions        int64   `json:"evictions"`
	EvictedBytes     uint64  `json:"evicted_bytes"`
}
