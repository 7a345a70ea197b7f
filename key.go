package imagecache

import (
	"net/http"
	"net/url"
)

// Source identifies the origin of a cached image. Implementations expose the
// canonical string used as the base of the derived cache key.
type Source interface {
	// CacheKey returns the canonical string form of the source.
	CacheKey() string
}

// URLSource adapts a *url.URL into a Source. The canonical string is the
// URL's string form.
type URLSource struct {
	URL *url.URL
}

// CacheKey returns the URL string, or "" for a nil URL.
func (s URLSource) CacheKey() string {
	if s.URL == nil {
		return ""
	}
	return s.URL.String()
}

// RequestSource adapts an *http.Request into a Source, keyed by the request
// URL's string form.
type RequestSource struct {
	Request *http.Request
}

// CacheKey returns the request URL string, or "" for a nil request or URL.
func (s RequestSource) CacheKey() string {
	if s.Request == nil || s.Request.URL == nil {
		return ""
	}
	return s.Request.URL.String()
}

// StringSource adapts a raw string into a Source. The string is used as the
// canonical form verbatim.
type StringSource string

// CacheKey returns the string unchanged.
func (s StringSource) CacheKey() string {
	return string(s)
}

// Key derives the cache identifier for a source and an optional qualifier.
// With an empty qualifier the identifier is the source's canonical string
// unchanged; otherwise the qualifier is appended with a "-" separator.
//
// Derivation is pure and deterministic: the same inputs always yield the
// same identifier, so repeated requests for the same logical resource (and
// the same variant qualifier) hit the same entry.
//
// Example:
//   - (https://example.com/a.png, "")          → https://example.com/a.png
//   - (https://example.com/a.png, "round-64")  → https://example.com/a.png-round-64
func Key(src Source, qualifier string) string {
	base := src.CacheKey()
	if qualifier == "" {
		return base
	}
	return base + "-" + qualifier
}
