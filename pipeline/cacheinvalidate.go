package pipeline

import (
	"context"

	"github.com/scotline/pkg/logger"
	"github.com/scotline/pkg/respcache"
)

// CacheInvalidationStage removes cached responses whose keys match the
// prefixes a CacheInvalidating request declares. Invalidation runs only after
// the handler has completed successfully, so a failed mutation never evicts
// valid entries. Eviction itself is best-effort: store failures are logged and
// never propagated since the mutation has already committed.
type CacheInvalidationStage[I Input, R Result] struct {
	logger  logger.Logger
	store   respcache.Store
	next    Handler[I, R]
	reqName string
}

// NewCacheInvalidationStage returns a WrapFunc that applies prefix-based
// cache invalidation after successful mutations.
func NewCacheInvalidationStage[I Input, R Result](
	lg logger.Logger,
	store respcache.Store,
	reqName string,
) WrapFunc[I, R] {
	return func(next Handler[I, R]) Handler[I, R] {
		return &CacheInvalidationStage[I, R]{
			logger:  lg.Named("pipeline.cache_invalidation").With("request_name", reqName),
			store:   store,
			next:    next,
			reqName: reqName,
		}
	}
}

func (s *CacheInvalidationStage[I, R]) Execute(ctx context.Context, input I) (R, error) {
	result, err := s.next.Execute(ctx, input)
	if err != nil {
		return result, err
	}

	invalidating, ok := any(input).(CacheInvalidating)
	if !ok {
		return result, nil
	}

	if s.store == nil || !s.store.Enabled() {
		return result, nil
	}

	prefixes := invalidating.CacheKeyPrefixes()
	if len(prefixes) == 0 {
		s.logger.WithContext(ctx).Warn("cache invalidating request declared no key prefixes")
		return result, nil
	}

	for _, prefix := range prefixes {
		if prefix == "" {
			s.logger.WithContext(ctx).Warn("empty cache key prefix skipped")
			continue
		}

		removed, rmErr := s.store.RemoveByPattern(ctx, prefix+"*")
		if rmErr != nil {
			s.logger.
				WithContext(ctx).
				With("prefix", prefix).
				With("error", rmErr.Error()).
				Warn("cache invalidation failed")
			continue
		}

		s.logger.
			WithContext(ctx).
			With("prefix", prefix).
			With("removed", removed).
			Debug("cache entries invalidated")
	}

	return result, nil
}
