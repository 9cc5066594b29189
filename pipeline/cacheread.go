package pipeline

import (
	"context"

	"github.com/code19m/errx"
	"github.com/scotline/pkg/logger"
	"github.com/scotline/pkg/respcache"
)

// CacheReadStage serves Cacheable requests read-through from the response
// cache. On a hit the handler is never invoked; on a miss the response is
// cached with the request's TTL (DefaultCacheTTL unless overridden) before
// being returned. Disabled stores and non-Cacheable requests pass through
// untouched.
type CacheReadStage[I Input, R Result] struct {
	logger logger.Logger
	store  respcache.Store
	next   Handler[I, R]
}

// NewCacheReadStage returns a WrapFunc that applies read-through caching.
func NewCacheReadStage[I Input, R Result](lg logger.Logger, store respcache.Store) WrapFunc[I, R] {
	return func(next Handler[I, R]) Handler[I, R] {
		return &CacheReadStage[I, R]{
			logger: lg.Named("pipeline.cache_read"),
			store:  store,
			next:   next,
		}
	}
}

func (s *CacheReadStage[I, R]) Execute(ctx context.Context, input I) (R, error) {
	if s.store == nil || !s.store.Enabled() {
		return s.next.Execute(ctx, input)
	}

	cacheable, ok := any(input).(Cacheable)
	if !ok {
		return s.next.Execute(ctx, input)
	}

	key := cacheable.CacheKey()
	if key == "" {
		return s.next.Execute(ctx, input)
	}

	cached, err := respcache.GetAs[R](ctx, s.store, key)
	if err != nil {
		var zero R
		return zero, errx.Wrap(err)
	}
	if cached != nil {
		s.logger.WithContext(ctx).With("key", key).Debug("cache hit")
		return *cached, nil
	}

	result, err := s.next.Execute(ctx, input)
	if err != nil {
		return result, err
	}

	ttl := DefaultCacheTTL
	if provider, ok := any(input).(CacheTTLProvider); ok {
		ttl = provider.CacheTTL()
	}

	// The handler already succeeded; a failed cache write degrades to an
	// uncached response instead of failing the request.
	if err := s.store.Set(ctx, key, result, ttl); err != nil {
		s.logger.
			WithContext(ctx).
			With("key", key).
			With("error", err.Error()).
			Warn("failed to cache response")
	}

	return result, nil
}
