package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scotline/pkg/cachekey"
	"github.com/scotline/pkg/logger"
	"github.com/scotline/pkg/pipeline"
	"github.com/scotline/pkg/val"
)

// fakeStore is an in-memory Store recording Set TTLs and eviction patterns.
type fakeStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	setTTLs  map[string]time.Duration
	patterns []string
	enabled  bool
	setErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		data:    make(map[string][]byte),
		setTTLs: make(map[string]time.Duration),
		enabled: true,
	}
}

func (s *fakeStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = raw
	s.setTTLs[key] = ttl
	return nil
}

func (s *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	return raw, nil
}

func (s *fakeStore) Refresh(context.Context, string) error { return nil }

func (s *fakeStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *fakeStore) RemoveByPattern(_ context.Context, pattern string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns = append(s.patterns, pattern)

	prefix := strings.TrimSuffix(pattern, "*")
	removed := 0
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			delete(s.data, key)
			removed++
		}
	}
	return removed, nil
}

func (s *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok, nil
}

func (s *fakeStore) GetTimeToLive(context.Context, string) (*time.Duration, error) {
	return nil, nil
}

func (s *fakeStore) Enabled() bool { return s.enabled }

type itemView struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type getItemQuery struct {
	ID int
}

func (q getItemQuery) RequestName() string {
	return "Items.Queries.GetItem"
}

func (q getItemQuery) CacheKey() string {
	return cachekey.Build("Items.Queries.GetItem", cachekey.F("id", q.ID))
}

type updateItemCommand struct {
	ID   int
	Name string
}

func (c updateItemCommand) RequestName() string {
	return "Items.Commands.UpdateItem"
}

func (c updateItemCommand) CacheKeyPrefixes() []string {
	return []string{pipeline.QueriesPrefix(c.RequestName())}
}

func TestDispatcherCacheMissInvokesHandlerAndStores(t *testing.T) {
	store := newFakeStore()
	calls := 0

	handler := pipeline.HandlerFunc[getItemQuery, itemView](
		func(_ context.Context, q getItemQuery) (itemView, error) {
			calls++
			return itemView{ID: q.ID, Name: "first"}, nil
		},
	)

	d := pipeline.NewDispatcher(handler,
		pipeline.WithLogger[getItemQuery, itemView](logger.NewNop()),
		pipeline.WithStore[getItemQuery, itemView](store),
	)

	result, err := d.Dispatch(context.Background(), getItemQuery{ID: 7})
	require.NoError(t, err)
	assert.Equal(t, itemView{ID: 7, Name: "first"}, result)
	assert.Equal(t, 1, calls)

	key := getItemQuery{ID: 7}.CacheKey()
	assert.Contains(t, store.data, key)
	assert.Equal(t, pipeline.DefaultCacheTTL, store.setTTLs[key])
}

func TestDispatcherCacheWriteFailureKeepsResult(t *testing.T) {
	store := newFakeStore()
	store.setErr = errors.New("cache backend unavailable")

	handler := pipeline.HandlerFunc[getItemQuery, itemView](
		func(_ context.Context, q getItemQuery) (itemView, error) {
			return itemView{ID: q.ID, Name: "fresh"}, nil
		},
	)

	d := pipeline.NewDispatcher(handler,
		pipeline.WithLogger[getItemQuery, itemView](logger.NewNop()),
		pipeline.WithStore[getItemQuery, itemView](store),
	)

	result, err := d.Dispatch(context.Background(), getItemQuery{ID: 7})
	require.NoError(t, err)
	assert.Equal(t, itemView{ID: 7, Name: "fresh"}, result)
	assert.Empty(t, store.data)
}

func TestDispatcherCacheHitSkipsHandler(t *testing.T) {
	store := newFakeStore()
	key := getItemQuery{ID: 7}.CacheKey()
	require.NoError(t, store.Set(context.Background(), key, itemView{ID: 7, Name: "cached"}, time.Minute))

	calls := 0
	handler := pipeline.HandlerFunc[getItemQuery, itemView](
		func(_ context.Context, q getItemQuery) (itemView, error) {
			calls++
			return itemView{ID: q.ID, Name: "fresh"}, nil
		},
	)

	d := pipeline.NewDispatcher(handler,
		pipeline.WithLogger[getItemQuery, itemView](logger.NewNop()),
		pipeline.WithStore[getItemQuery, itemView](store),
	)

	result, err := d.Dispatch(context.Background(), getItemQuery{ID: 7})
	require.NoError(t, err)
	assert.Equal(t, itemView{ID: 7, Name: "cached"}, result)
	assert.Equal(t, 0, calls)
}

func TestDispatcherDisabledStoreBypassesCache(t *testing.T) {
	store := newFakeStore()
	store.enabled = false

	calls := 0
	handler := pipeline.HandlerFunc[getItemQuery, itemView](
		func(_ context.Context, q getItemQuery) (itemView, error) {
			calls++
			return itemView{ID: q.ID, Name: "fresh"}, nil
		},
	)

	d := pipeline.NewDispatcher(handler,
		pipeline.WithLogger[getItemQuery, itemView](logger.NewNop()),
		pipeline.WithStore[getItemQuery, itemView](store),
	)

	for range 2 {
		_, err := d.Dispatch(context.Background(), getItemQuery{ID: 7})
		require.NoError(t, err)
	}

	assert.Equal(t, 2, calls)
	assert.Empty(t, store.data)
}

func TestDispatcherInvalidatesDeclaredPrefixes(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, getItemQuery{ID: 7}.CacheKey(), itemView{ID: 7}, time.Minute))
	require.NoError(t, store.Set(ctx, "Users.Queries.GetUser::id:1", itemView{ID: 1}, time.Minute))

	handler := pipeline.HandlerFunc[updateItemCommand, itemView](
		func(_ context.Context, c updateItemCommand) (itemView, error) {
			return itemView{ID: c.ID, Name: c.Name}, nil
		},
	)

	d := pipeline.NewDispatcher(handler,
		pipeline.WithLogger[updateItemCommand, itemView](logger.NewNop()),
		pipeline.WithStore[updateItemCommand, itemView](store),
	)

	_, err := d.Dispatch(ctx, updateItemCommand{ID: 7, Name: "renamed"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Items.Queries.*"}, store.patterns)
	assert.NotContains(t, store.data, getItemQuery{ID: 7}.CacheKey())
	assert.Contains(t, store.data, "Users.Queries.GetUser::id:1")
}

func TestDispatcherSkipsInvalidationOnFailure(t *testing.T) {
	store := newFakeStore()

	handler := pipeline.HandlerFunc[updateItemCommand, itemView](
		func(context.Context, updateItemCommand) (itemView, error) {
			return itemView{}, errors.New("constraint violated")
		},
	)

	d := pipeline.NewDispatcher(handler,
		pipeline.WithLogger[updateItemCommand, itemView](logger.NewNop()),
		pipeline.WithStore[updateItemCommand, itemView](store),
	)

	_, err := d.Dispatch(context.Background(), updateItemCommand{ID: 7})
	require.Error(t, err)
	assert.Empty(t, store.patterns)
}

func TestDispatcherAuthorizationRejectsBeforeValidation(t *testing.T) {
	validated := false
	handled := false

	handler := pipeline.HandlerFunc[getItemQuery, itemView](
		func(context.Context, getItemQuery) (itemView, error) {
			handled = true
			return itemView{}, nil
		},
	)

	d := pipeline.NewDispatcher(handler,
		pipeline.WithLogger[getItemQuery, itemView](logger.NewNop()),
		pipeline.WithAuthorizers[getItemQuery, itemView](
			pipeline.AuthorizerFunc[getItemQuery](func(context.Context, getItemQuery) pipeline.Decision {
				return pipeline.Forbidden("not an owner")
			}),
		),
		pipeline.WithValidators[getItemQuery, itemView](
			pipeline.SchemaValidatorFunc[getItemQuery](func(context.Context, getItemQuery) ([]val.FieldError, error) {
				validated = true
				return nil, nil
			}),
		),
	)

	result, err := d.Dispatch(context.Background(), getItemQuery{ID: 7})
	require.Error(t, err)

	abort, ok := pipeline.AsAbort(err)
	require.True(t, ok)
	assert.Equal(t, 403, abort.Status)
	assert.Equal(t, "not an owner", abort.Detail)
	assert.Equal(t, itemView{}, result)
	assert.False(t, validated)
	assert.False(t, handled)
}

func TestDispatcherAuthorizersRunInOrderUntilRejection(t *testing.T) {
	var order []string

	handler := pipeline.HandlerFunc[getItemQuery, itemView](
		func(context.Context, getItemQuery) (itemView, error) {
			return itemView{}, nil
		},
	)

	record := func(name string, decision pipeline.Decision) pipeline.Authorizer[getItemQuery] {
		return pipeline.AuthorizerFunc[getItemQuery](func(context.Context, getItemQuery) pipeline.Decision {
			order = append(order, name)
			return decision
		})
	}

	d := pipeline.NewDispatcher(handler,
		pipeline.WithLogger[getItemQuery, itemView](logger.NewNop()),
		pipeline.WithAuthorizers[getItemQuery, itemView](
			record("first", pipeline.Continue()),
			record("second", pipeline.NotFound("no such item")),
			record("third", pipeline.Continue()),
		),
	)

	_, err := d.Dispatch(context.Background(), getItemQuery{ID: 7})
	require.Error(t, err)

	abort, ok := pipeline.AsAbort(err)
	require.True(t, ok)
	assert.Equal(t, 404, abort.Status)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestDispatcherRecoversPanics(t *testing.T) {
	handler := pipeline.HandlerFunc[getItemQuery, itemView](
		func(context.Context, getItemQuery) (itemView, error) {
			panic("boom")
		},
	)

	d := pipeline.NewDispatcher(handler,
		pipeline.WithLogger[getItemQuery, itemView](logger.NewNop()),
	)

	result, err := d.Dispatch(context.Background(), getItemQuery{ID: 7})
	require.Error(t, err)

	_, aborted := pipeline.AsAbort(err)
	assert.False(t, aborted)
	assert.Equal(t, itemView{}, result)
}

func TestDispatcherRequestName(t *testing.T) {
	handler := pipeline.HandlerFunc[getItemQuery, itemView](
		func(context.Context, getItemQuery) (itemView, error) {
			return itemView{}, nil
		},
	)

	t.Run("named request", func(t *testing.T) {
		d := pipeline.NewDispatcher(handler,
			pipeline.WithLogger[getItemQuery, itemView](logger.NewNop()),
		)
		assert.Equal(t, "Items.Queries.GetItem", d.RequestName())
	})

	t.Run("explicit override", func(t *testing.T) {
		d := pipeline.NewDispatcher(handler,
			pipeline.WithLogger[getItemQuery, itemView](logger.NewNop()),
			pipeline.WithName[getItemQuery, itemView]("Items.Queries.GetItemV2"),
		)
		assert.Equal(t, "Items.Queries.GetItemV2", d.RequestName())
	})
}
