// Package cachetest holds the behavioural contract every core.Cache
// implementation must satisfy.
package cachetest

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sticky/pkg/core"
)

// Run exercises a fresh, empty cache returned by newCache.
func Run(t *testing.T, newCache func(t *testing.T) core.Cache) {
	t.Run("PutMatch", func(t *testing.T) {
		ctx := context.Background()
		b := open(t, newCache(t), "ns")

		require.NoError(t, b.Put(ctx, "k1", []byte("v1")))
		v, ok, err := b.Match(ctx, "k1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("v1"), v)

		require.NoError(t, b.Put(ctx, "k1", []byte("v2")))
		v, _, err = b.Match(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), v)
	})

	t.Run("MatchAbsent", func(t *testing.T) {
		b := open(t, newCache(t), "ns")
		v, ok, err := b.Match(context.Background(), "missing")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, v)
	})

	t.Run("Keys", func(t *testing.T) {
		ctx := context.Background()
		b := open(t, newCache(t), "ns")

		keys, err := b.Keys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)

		for _, k := range []string{"https://x.local/notes/b", "https://x.local/notes/a", "plain"} {
			require.NoError(t, b.Put(ctx, k, []byte("{}")))
		}
		keys, err = b.Keys(ctx)
		require.NoError(t, err)
		sort.Strings(keys)
		assert.Equal(t, []string{"https://x.local/notes/a", "https://x.local/notes/b", "plain"}, keys)
	})

	t.Run("Delete", func(t *testing.T) {
		ctx := context.Background()
		b := open(t, newCache(t), "ns")
		require.NoError(t, b.Put(ctx, "k", []byte("v")))

		existed, err := b.Delete(ctx, "k")
		require.NoError(t, err)
		assert.True(t, existed)

		existed, err = b.Delete(ctx, "k")
		require.NoError(t, err)
		assert.False(t, existed)

		_, ok, err := b.Match(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("NamespaceIsolation", func(t *testing.T) {
		ctx := context.Background()
		cache := newCache(t)
		a := open(t, cache, "alpha")
		b := open(t, cache, "beta")

		require.NoError(t, a.Put(ctx, "k", []byte("a")))
		_, ok, err := b.Match(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)

		keys, err := b.Keys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("StoreRoundTrip", func(t *testing.T) {
		ctx := context.Background()
		store := core.NewStore(newCache(t), core.StoreConfig{})
		n := core.Note{ID: "01JB6X8Y2K9FQR4T3VWHGP5M2C", Text: "hello &amp; bye", CreatedAt: 1700000000000, Position: core.Position{X: 680, Y: 20}}

		require.NoError(t, store.Put(ctx, n))
		got, ok, err := store.Get(ctx, n.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, n, got)

		require.NoError(t, store.Clear(ctx))
		notes, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, notes)
	})
}

func open(t *testing.T, cache core.Cache, ns string) core.Bucket {
	t.Helper()
	b, err := cache.Open(context.Background(), ns)
	require.NoError(t, err)
	return b
}
