// Package respcache provides a key/value response cache with TTL support and
// pattern-based eviction, backed by Redis.
//
// Failure policy: every operation catches and logs backend errors. Unless the
// ThrowOnError configuration flag is set, operations degrade gracefully
// (returning nil/false/0) so that cache failures never fail the surrounding
// request.
package respcache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/code19m/errx"
)

// Store is the response cache consumed by the pipeline cache stages.
type Store interface {
	// Set serializes value to JSON and writes it under key with an absolute
	// expiration of ttl from now. A non-positive ttl falls back to the
	// configured default. No-op when the store is disabled or key is empty.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Get returns the raw serialized value, or nil on miss or when disabled.
	Get(ctx context.Context, key string) ([]byte, error)

	// Refresh extends the expiration of key without altering its content.
	//
	// Discouraged: repeatedly refreshing entries risks unbounded cache
	// growth and staleness. Prefer letting entries expire and re-populate.
	Refresh(ctx context.Context, key string) error

	// Remove deletes a single key. Absent keys are not an error.
	Remove(ctx context.Context, key string) error

	// RemoveByPattern scans the backing store for keys matching pattern
	// (Redis glob syntax) and deletes them, returning the number removed.
	//
	// The scan is cursor-based with a bounded batch size, but the total cost
	// is O(n) over the whole key space. Do not call it on a hot path without
	// bounding the key population.
	RemoveByPattern(ctx context.Context, pattern string) (int, error)

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// GetTimeToLive returns the remaining TTL for key, or nil when the key
	// is absent or has no expiration.
	GetTimeToLive(ctx context.Context, key string) (*time.Duration, error)

	// Enabled reports whether the cache subsystem is active.
	Enabled() bool
}

// GetString fetches key and returns the stored value as a plain string.
// Returns "" on miss.
func GetString(ctx context.Context, s Store, key string) (string, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return "", errx.Wrap(err)
	}
	if raw == nil {
		return "", nil
	}

	// Stored values are JSON; plain strings round-trip through quoting.
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, nil
	}
	return string(raw), nil
}

// GetAs fetches key and deserializes it into T. Returns nil on miss and on
// deserialization failure (unless ThrowOnError is configured).
func GetAs[T any](ctx context.Context, s Store, key string) (*T, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	if raw == nil {
		return nil, nil //nolint:nilnil // nil pointer is the documented miss signal
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, nil //nolint:nilnil // treat undecodable entries as a miss
	}
	return &out, nil
}
