// Package imagecache provides an in-memory, size-bounded image cache with
// automatic least-recently-used purging.
//
// # Overview
//
// The cache holds decoded images keyed by string identifiers and tracks an
// estimated memory footprint for each entry (width x height x 4 bytes,
// assuming RGBA8). When an insert pushes total usage above the configured
// capacity, the cache purges its least recently accessed entries until usage
// drops to the configured purge target. Purging is approximate LRU: recency
// is refreshed on every successful read and on insert, and the purge pass
// sorts a snapshot of all entries by access time.
//
// All operations are safe for concurrent use by multiple goroutines. Reads
// run concurrently with each other; mutations are serialized, and an insert
// together with any purge it triggers forms a single critical section.
//
// # Usage
//
// Create a cache and store images:
//
//	cache, err := imagecache.New(imagecache.Config{})
//	if err != nil {
//	    return err
//	}
//
//	cache.Put(img, "https://example.com/avatar.png")
//
//	if img, ok := cache.Get("https://example.com/avatar.png"); ok {
//	    // cache hit
//	}
//
// Respond to memory pressure by dropping everything:
//
//	cache.Clear()
//
// The cache never subscribes to OS-level memory signals itself; deciding
// when to call Clear belongs to the application.
//
// # Cache Keys
//
// Keys are derived from a request-like source plus an optional qualifier:
//
//	key := imagecache.Key(imagecache.URLSource{URL: u}, "thumbnail-64")
//	cache.PutSource(img, imagecache.URLSource{URL: u}, "thumbnail-64")
//
// The qualifier distinguishes variants of the same logical resource (for
// example the same image run through different filters). Derivation is
// deterministic: the same source and qualifier always produce the same key,
// and an empty qualifier yields the source's canonical string unchanged.
package imagecache
