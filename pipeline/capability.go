package pipeline

import (
	"strings"
	"time"
)

// DefaultCacheTTL is the expiration applied to cached responses when the
// request does not override it.
const DefaultCacheTTL = 24 * time.Hour

// commandsSegment is the conventional namespace segment separating a command
// name from its domain prefix.
const commandsSegment = ".Commands."

// Cacheable marks a request as eligible for read-through response caching.
// The request supplies its own canonical cache key; the cachekey package
// provides the deterministic builder most implementations should use.
type Cacheable interface {
	// CacheKey returns the canonical cache key for this request instance.
	// An empty key disables caching for the call.
	CacheKey() string
}

// CacheTTLProvider optionally overrides DefaultCacheTTL for a Cacheable
// request.
type CacheTTLProvider interface {
	CacheTTL() time.Duration
}

// CacheInvalidating marks a request whose successful execution should evict
// related cached entries. The declared prefixes are the source of truth;
// QueriesPrefix derives one from the conventional command/query namespace
// layout for requests that follow it.
type CacheInvalidating interface {
	// CacheKeyPrefixes returns the key prefixes to evict after execution.
	// An empty list is treated as a misconfiguration and logged.
	CacheKeyPrefixes() []string
}

// QueriesPrefix converts a command's logical name into the eviction prefix of
// its sibling query namespace: "Items.Commands.UpdateItem" → "Items.Queries.".
// It returns an empty string when the name does not contain a ".Commands."
// segment, so callers can detect convention drift instead of silently
// evicting nothing.
func QueriesPrefix(requestName string) string {
	domain, _, found := strings.Cut(requestName, commandsSegment)
	if !found {
		return ""
	}
	return domain + ".Queries."
}
