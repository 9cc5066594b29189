// Package respcache_test contains tests for the respcache package.
package respcache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scotline/pkg/logger"
	"github.com/scotline/pkg/respcache"
)

func TestDisabledStoreNoOps(t *testing.T) {
	store := respcache.New(respcache.Config{Enabled: false}, logger.NewNop())
	ctx := context.Background()

	assert.False(t, store.Enabled())

	require.NoError(t, store.Set(ctx, "k", "v", time.Minute))

	raw, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, raw)

	require.NoError(t, store.Refresh(ctx, "k"))
	require.NoError(t, store.Remove(ctx, "k"))

	count, err := store.RemoveByPattern(ctx, "k*")
	require.NoError(t, err)
	assert.Zero(t, count)

	exists, err := store.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)

	ttl, err := store.GetTimeToLive(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, ttl)
}

// stubStore returns canned raw bytes regardless of key.
type stubStore struct {
	raw []byte
}

func (s *stubStore) Set(context.Context, string, any, time.Duration) error { return nil }

func (s *stubStore) Get(context.Context, string) ([]byte, error) { return s.raw, nil }

func (s *stubStore) Refresh(context.Context, string) error { return nil }

func (s *stubStore) Remove(context.Context, string) error { return nil }

func (s *stubStore) RemoveByPattern(context.Context, string) (int, error) { return 0, nil }

func (s *stubStore) Exists(context.Context, string) (bool, error) { return s.raw != nil, nil }

func (s *stubStore) GetTimeToLive(context.Context, string) (*time.Duration, error) {
	return nil, nil
}

func (s *stubStore) Enabled() bool { return true }

func TestGetString(t *testing.T) {
	ctx := context.Background()

	t.Run("unquotes json strings", func(t *testing.T) {
		store := &stubStore{raw: []byte(`"hello"`)}

		got, err := respcache.GetString(ctx, store, "k")
		require.NoError(t, err)
		assert.Equal(t, "hello", got)
	})

	t.Run("returns raw bytes for non-string payloads", func(t *testing.T) {
		store := &stubStore{raw: []byte(`{"id":7}`)}

		got, err := respcache.GetString(ctx, store, "k")
		require.NoError(t, err)
		assert.Equal(t, `{"id":7}`, got)
	})

	t.Run("miss yields empty string", func(t *testing.T) {
		store := &stubStore{raw: nil}

		got, err := respcache.GetString(ctx, store, "k")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestGetAs(t *testing.T) {
	type view struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}

	ctx := context.Background()

	t.Run("decodes stored value", func(t *testing.T) {
		store := &stubStore{raw: []byte(`{"id":7,"name":"ann"}`)}

		got, err := respcache.GetAs[view](ctx, store, "k")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, view{ID: 7, Name: "ann"}, *got)
	})

	t.Run("miss yields nil", func(t *testing.T) {
		store := &stubStore{raw: nil}

		got, err := respcache.GetAs[view](ctx, store, "k")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("undecodable entry is treated as a miss", func(t *testing.T) {
		store := &stubStore{raw: []byte(`not-json`)}

		got, err := respcache.GetAs[view](ctx, store, "k")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
