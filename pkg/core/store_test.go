package core_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sticky/pkg/adapters/memory"
	"github.com/aretw0/sticky/pkg/core"
)

func sampleNote(id string, createdAt int64) core.Note {
	return core.Note{
		ID:        id,
		Text:      "note " + id,
		CreatedAt: createdAt,
		Position:  core.Position{X: 680, Y: 20},
	}
}

func putRaw(t *testing.T, cache *memory.Cache, key string, data string) {
	t.Helper()
	b, err := cache.Open(context.Background(), core.DefaultNamespace)
	require.NoError(t, err)
	require.NoError(t, b.Put(context.Background(), key, []byte(data)))
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := core.NewStore(memory.New(), core.StoreConfig{})

	n := sampleNote("n1", 1700000000000)
	n.IsEditing = true
	require.NoError(t, store.Put(ctx, n))

	got, ok, err := store.Get(ctx, "n1")
	require.NoError(t, err)
	require.True(t, ok)
	n.IsEditing = false
	assert.Equal(t, n, got)
}

func TestStore_GetAbsent(t *testing.T) {
	store := core.NewStore(memory.New(), core.StoreConfig{})
	_, ok, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_PutRejectsInvalidRecord(t *testing.T) {
	ctx := context.Background()
	store := core.NewStore(memory.New(), core.StoreConfig{})

	n := sampleNote("n1", 1700000000000)
	n.Text = ""
	err := store.Put(ctx, n)
	assert.ErrorIs(t, err, core.ErrInvalidRecord)
	assert.ErrorIs(t, err, core.ErrEmptyText)
	assert.True(t, core.IsValidation(err))

	n = sampleNote("", 1700000000000)
	assert.ErrorIs(t, store.Put(ctx, n), core.ErrInvalidID)

	_, ok, _ := store.Get(ctx, "n1")
	assert.False(t, ok)
}

func TestStore_QuotaExceeded(t *testing.T) {
	ctx := context.Background()

	t.Run("backend quota error", func(t *testing.T) {
		cache := memory.New()
		cache.FailOn("put", fmt.Errorf("%w: 5MB limit reached", core.ErrQuotaExceeded))
		store := core.NewStore(cache, core.StoreConfig{})

		err := store.Put(ctx, sampleNote("n1", 1))
		assert.ErrorIs(t, err, core.ErrQuotaExceeded)

		_, ok, err := store.Get(ctx, "n1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("quota in message only", func(t *testing.T) {
		cache := memory.New()
		cache.FailOn("put", errors.New("disk quota tool crashed"))
		store := core.NewStore(cache, core.StoreConfig{})

		err := store.Put(ctx, sampleNote("n1", 1))
		assert.NotErrorIs(t, err, core.ErrQuotaExceeded)
		var opErr *core.OperationError
		assert.ErrorAs(t, err, &opErr)
	})

	t.Run("byte quota", func(t *testing.T) {
		store := core.NewStore(memory.New(memory.WithQuota(32)), core.StoreConfig{})
		err := store.Put(ctx, sampleNote("n1", 1))
		assert.ErrorIs(t, err, core.ErrQuotaExceeded)

		notes, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, notes)
	})
}

func TestStore_OperationError(t *testing.T) {
	cache := memory.New()
	cache.FailOn("put", errors.New("disk on fire"))
	store := core.NewStore(cache, core.StoreConfig{})

	err := store.Put(context.Background(), sampleNote("n1", 1))
	var opErr *core.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "put", opErr.Op)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestStore_Unavailable(t *testing.T) {
	ctx := context.Background()

	t.Run("fail loud", func(t *testing.T) {
		cache := memory.New()
		cache.SetAvailable(false)
		store := core.NewStore(cache, core.StoreConfig{Policy: core.FailLoud})

		assert.False(t, store.IsAvailable(ctx))
		assert.ErrorIs(t, store.Put(ctx, sampleNote("n1", 1)), core.ErrUnavailable)
		assert.ErrorIs(t, store.Clear(ctx), core.ErrUnavailable)

		notes, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, notes)
		_, ok, err := store.Get(ctx, "n1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("degrade", func(t *testing.T) {
		store := core.NewStore(nil, core.StoreConfig{Policy: core.Degrade})

		assert.False(t, store.IsAvailable(ctx))
		assert.NoError(t, store.Put(ctx, sampleNote("n1", 1)))
		assert.NoError(t, store.Clear(ctx))

		notes, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, notes)
	})

	t.Run("validation still propagates", func(t *testing.T) {
		store := core.NewStore(nil, core.StoreConfig{Policy: core.Degrade})
		n := sampleNote("n1", 1)
		n.Text = ""
		assert.ErrorIs(t, store.Put(ctx, n), core.ErrEmptyText)
	})
}

func TestStore_SkipsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	cache := memory.New()
	store := core.NewStore(cache, core.StoreConfig{})

	require.NoError(t, store.Put(ctx, sampleNote("good", 2)))
	putRaw(t, cache, core.DefaultKeyPrefix+"broken", "{not json")
	putRaw(t, cache, core.DefaultKeyPrefix+"negative", `{"id":"negative","text":"x","createdAt":1,"position":{"x":-1,"y":0},"isEditing":false}`)
	putRaw(t, cache, core.DefaultKeyPrefix+"elsewhere", `{"id":"other","text":"x","createdAt":1,"position":{"x":0,"y":0},"isEditing":false}`)
	putRaw(t, cache, "https://cache-sticky.local/settings", `{"theme":"dark"}`)

	notes, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "good", notes[0].ID)

	_, ok, err := store.Get(ctx, "broken")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ListOrder(t *testing.T) {
	ctx := context.Background()
	store := core.NewStore(memory.New(), core.StoreConfig{Concurrency: 2})

	require.NoError(t, store.Put(ctx, sampleNote("c", 30)))
	require.NoError(t, store.Put(ctx, sampleNote("a", 10)))
	require.NoError(t, store.Put(ctx, sampleNote("b2", 20)))
	require.NoError(t, store.Put(ctx, sampleNote("b1", 20)))

	notes, err := store.List(ctx)
	require.NoError(t, err)
	var ids []string
	for _, n := range notes {
		ids = append(ids, n.ID)
		assert.False(t, n.IsEditing)
	}
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, ids)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	cache := memory.New()
	store := core.NewStore(cache, core.StoreConfig{})

	require.NoError(t, store.Put(ctx, sampleNote("n1", 1)))
	require.NoError(t, store.Put(ctx, sampleNote("n2", 2)))
	putRaw(t, cache, "https://cache-sticky.local/settings", `{}`)

	require.NoError(t, store.Clear(ctx))

	notes, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes)

	b, err := cache.Open(ctx, core.DefaultNamespace)
	require.NoError(t, err)
	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cache-sticky.local/settings"}, keys)
}

func TestStore_ClearPartialFailure(t *testing.T) {
	ctx := context.Background()
	cache := memory.New()
	store := core.NewStore(cache, core.StoreConfig{})
	require.NoError(t, store.Put(ctx, sampleNote("n1", 1)))

	cache.FailOn("delete", errors.New("locked"))
	err := store.Clear(ctx)
	var opErr *core.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "clear", opErr.Op)
}

func TestStore_Namespacing(t *testing.T) {
	ctx := context.Background()
	cache := memory.New()
	a := core.NewStore(cache, core.StoreConfig{Namespace: "board-a"})
	b := core.NewStore(cache, core.StoreConfig{Namespace: "board-b"})

	require.NoError(t, a.Put(ctx, sampleNote("n1", 1)))
	notes, err := b.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestStore_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := core.NewStore(memory.New(), core.StoreConfig{})
	events, err := store.Watch(ctx, "keep-*")
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, sampleNote("skip-1", 1)))
	require.NoError(t, store.Put(ctx, sampleNote("keep-1", 2)))

	select {
	case e := <-events:
		assert.Equal(t, core.EventPut, e.Type)
		assert.Equal(t, "keep-1", e.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}

	cancel()
	for range events {
	}
}

func TestStore_WatchInvalidPattern(t *testing.T) {
	store := core.NewStore(memory.New(), core.StoreConfig{})
	_, err := store.Watch(context.Background(), "[")
	assert.Error(t, err)
}

// plainCache hides the Watch method of the buckets it opens.
type plainCache struct {
	inner core.Cache
}

func (p plainCache) Open(ctx context.Context, namespace string) (core.Bucket, error) {
	b, err := p.inner.Open(ctx, namespace)
	if err != nil {
		return nil, err
	}
	return struct{ core.Bucket }{b}, nil
}

func TestStore_WatchUnsupported(t *testing.T) {
	store := core.NewStore(plainCache{inner: memory.New()}, core.StoreConfig{})
	_, err := store.Watch(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrWatchUnsupported)
}

func TestStore_State(t *testing.T) {
	store := core.NewStore(memory.New(), core.StoreConfig{Policy: core.Degrade})
	state := store.State().(core.StoreState)
	assert.Equal(t, "memory", state.CacheType)
	assert.Equal(t, "degrade", state.Policy)
	assert.Equal(t, core.DefaultNamespace, state.Namespace)
}

func TestParsePolicy(t *testing.T) {
	p, err := core.ParsePolicy("degrade")
	require.NoError(t, err)
	assert.Equal(t, core.Degrade, p)

	p, err = core.ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, core.FailLoud, p)

	_, err = core.ParsePolicy("shrug")
	assert.Error(t, err)
}
