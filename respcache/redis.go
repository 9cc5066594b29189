package respcache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/code19m/errx"
	"github.com/redis/go-redis/v9"
	"github.com/scotline/pkg/logger"
)

// scanBatchSize bounds how many keys a single SCAN iteration may return.
const scanBatchSize = 1000

type redisStore struct {
	client redis.Cmdable
	cfg    Config
	logger logger.Logger
}

// New creates a Redis-backed Store. When cfg.Enabled is false the returned
// store answers every operation with a no-op; no connection is made.
func New(cfg Config, lg logger.Logger) Store {
	s := &redisStore{
		cfg:    cfg,
		logger: lg.Named("respcache"),
	}

	if cfg.Enabled {
		s.client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:         strings.Split(cfg.Addrs, ","),
			Username:      cfg.Username,
			Password:      cfg.Password,
			IsClusterMode: cfg.IsClusterMode,
		})
	}

	return s
}

// NewWithClient creates a Store on top of an existing Redis client.
// Intended for tests and for sharing a client across subsystems.
func NewWithClient(cfg Config, client redis.Cmdable, lg logger.Logger) Store {
	return &redisStore{
		client: client,
		cfg:    cfg,
		logger: lg.Named("respcache"),
	}
}

func (s *redisStore) Enabled() bool {
	return s.cfg.Enabled
}

func (s *redisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !s.cfg.Enabled || key == "" {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return s.fail("set", key, errx.Wrap(err))
	}

	if ttl <= 0 {
		ttl = s.cfg.DefaultTTL()
	}

	err = s.withRetry(ctx, func() error {
		return s.client.Set(ctx, key, data, ttl).Err()
	})
	if err != nil {
		return s.fail("set", key, err)
	}

	s.logger.WithContext(ctx).With("key", key).Debug("cached response")
	return nil
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if !s.cfg.Enabled || key == "" {
		return nil, nil
	}

	var raw []byte
	err := s.withRetry(ctx, func() error {
		data, getErr := s.client.Get(ctx, key).Bytes()
		if getErr != nil {
			return getErr
		}
		raw = data
		return nil
	})
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, s.fail("get", key, err)
	}

	return raw, nil
}

func (s *redisStore) Refresh(ctx context.Context, key string) error {
	if !s.cfg.Enabled || key == "" {
		return nil
	}

	err := s.withRetry(ctx, func() error {
		return s.client.Expire(ctx, key, s.cfg.DefaultTTL()).Err()
	})
	if err != nil {
		return s.fail("refresh", key, err)
	}

	s.logger.WithContext(ctx).With("key", key).Debug("refreshed cache entry")
	return nil
}

func (s *redisStore) Remove(ctx context.Context, key string) error {
	if !s.cfg.Enabled || key == "" {
		return nil
	}

	err := s.withRetry(ctx, func() error {
		return s.client.Del(ctx, key).Err()
	})
	if err != nil {
		return s.fail("remove", key, err)
	}

	s.logger.WithContext(ctx).With("key", key).Debug("removed cache entry")
	return nil
}

func (s *redisStore) RemoveByPattern(ctx context.Context, pattern string) (int, error) {
	if !s.cfg.Enabled || pattern == "" {
		return 0, nil
	}

	count := 0
	err := s.withRetry(ctx, func() error {
		count = 0
		var cursor uint64
		for {
			keys, next, scanErr := s.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
			if scanErr != nil {
				return scanErr
			}

			if len(keys) > 0 {
				if delErr := s.client.Del(ctx, keys...).Err(); delErr != nil {
					return delErr
				}
				count += len(keys)
			}

			cursor = next
			if cursor == 0 {
				return nil
			}
		}
	})
	if err != nil {
		if s.cfg.ThrowOnError {
			return 0, s.fail("remove_by_pattern", pattern, err)
		}
		_ = s.fail("remove_by_pattern", pattern, err)
		return 0, nil
	}

	s.logger.WithContext(ctx).
		With("pattern", pattern).
		With("count", count).
		Debug("removed cache entries by pattern")
	return count, nil
}

func (s *redisStore) Exists(ctx context.Context, key string) (bool, error) {
	if !s.cfg.Enabled || key == "" {
		return false, nil
	}

	var n int64
	err := s.withRetry(ctx, func() error {
		res, existsErr := s.client.Exists(ctx, key).Result()
		if existsErr != nil {
			return existsErr
		}
		n = res
		return nil
	})
	if err != nil {
		if s.cfg.ThrowOnError {
			return false, s.fail("exists", key, err)
		}
		_ = s.fail("exists", key, err)
		return false, nil
	}

	return n > 0, nil
}

func (s *redisStore) GetTimeToLive(ctx context.Context, key string) (*time.Duration, error) {
	if !s.cfg.Enabled || key == "" {
		return nil, nil
	}

	var ttl time.Duration
	err := s.withRetry(ctx, func() error {
		res, ttlErr := s.client.TTL(ctx, key).Result()
		if ttlErr != nil {
			return ttlErr
		}
		ttl = res
		return nil
	})
	if err != nil {
		return nil, s.fail("ttl", key, err)
	}

	// Redis reports -2 for absent keys and -1 for keys without expiration.
	if ttl < 0 {
		return nil, nil
	}
	return &ttl, nil
}

// withRetry runs op with the configured attempt count and delay. Misses
// (redis.Nil) are terminal and never retried.
func (s *redisStore) withRetry(ctx context.Context, op func() error) error {
	return retry.Do(
		op,
		retry.Context(ctx),
		retry.Attempts(s.cfg.MaxRetryAttempts),
		retry.Delay(s.cfg.retryDelay()),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, redis.Nil)
		}),
	)
}

// fail logs an operation failure and applies the ThrowOnError policy.
func (s *redisStore) fail(op, key string, err error) error {
	s.logger.
		With("operation", op).
		With("key", key).
		With("error", err.Error()).
		Error("cache operation failed")

	if s.cfg.ThrowOnError {
		return errx.Wrap(err)
	}
	return nil
}
