package sqlite_test

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/aretw0/sticky/pkg/adapters/sqlite"
	"github.com/aretw0/sticky/pkg/core"
	"github.com/aretw0/sticky/pkg/core/cachetest"
)

func openMemory(t *testing.T, cfg sqlite.Config) *sqlite.Cache {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = ":memory:"
	}
	c, err := sqlite.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCacheContract(t *testing.T) {
	cachetest.Run(t, func(t *testing.T) core.Cache {
		return openMemory(t, sqlite.Config{})
	})
}

func TestCache_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "board.db")

	c, err := sqlite.Open(ctx, sqlite.Config{Path: path})
	require.NoError(t, err)
	store := core.NewStore(c, core.StoreConfig{})
	n := core.Note{ID: "n1", Text: "persist me", CreatedAt: 1700000000000, Position: core.Position{X: 680, Y: 20}}
	require.NoError(t, store.Put(ctx, n))
	require.NoError(t, c.Close())

	c, err = sqlite.Open(ctx, sqlite.Config{Path: path})
	require.NoError(t, err)
	defer c.Close()
	got, ok, err := core.NewStore(c, core.StoreConfig{}).Get(ctx, "n1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, n, got)
}

func TestCache_KeysInsertionOrder(t *testing.T) {
	ctx := context.Background()
	b, err := openMemory(t, sqlite.Config{}).Open(ctx, "ns")
	require.NoError(t, err)

	for _, k := range []string{"c", "a", "b"} {
		require.NoError(t, b.Put(ctx, k, []byte(k)))
	}
	require.NoError(t, b.Put(ctx, "c", []byte("updated")))

	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, keys)
}

func TestCache_QuotaExceeded(t *testing.T) {
	ctx := context.Background()
	c := openMemory(t, sqlite.Config{MaxPages: 4})
	b, err := c.Open(ctx, "ns")
	require.NoError(t, err)

	err = b.Put(ctx, "big", bytes.Repeat([]byte("x"), 1<<20))
	assert.ErrorIs(t, err, core.ErrQuotaExceeded)

	_, ok, err := b.Match(ctx, "big")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewWithDB(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	c, err := sqlite.NewWithDB(ctx, db)
	require.NoError(t, err)
	assert.True(t, c.Available(ctx))
	require.NoError(t, c.Close())
	assert.NoError(t, db.PingContext(ctx), "caller keeps ownership of the handle")

	state := c.State().(sqlite.CacheState)
	assert.Equal(t, 0, state.Entries)
}
