package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sticky/pkg/adapters/redis"
	"github.com/aretw0/sticky/pkg/core"
	"github.com/aretw0/sticky/pkg/core/cachetest"
)

func setupTestRedis(t *testing.T) (*redis.Cache, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	c, err := redis.New(context.Background(), "redis://"+s.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, s
}

func TestCacheContract(t *testing.T) {
	cachetest.Run(t, func(t *testing.T) core.Cache {
		c, _ := setupTestRedis(t)
		return c
	})
}

func TestNew_Unreachable(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	_, err := redis.New(context.Background(), "redis://"+addr)
	assert.ErrorIs(t, err, core.ErrUnavailable)

	_, err = redis.New(context.Background(), "://bad")
	assert.Error(t, err)
}

func TestCache_LayoutInServer(t *testing.T) {
	ctx := context.Background()
	c, s := setupTestRedis(t)
	b, err := c.Open(ctx, "cache-sticky")
	require.NoError(t, err)

	require.NoError(t, b.Put(ctx, "https://cache-sticky.local/notes/a", []byte(`{"id":"a"}`)))
	assert.Equal(t, `{"id":"a"}`, s.HGet("sticky:cache-sticky:entries", "https://cache-sticky.local/notes/a"))
}

func TestCache_Availability(t *testing.T) {
	ctx := context.Background()
	c, s := setupTestRedis(t)
	assert.True(t, c.Available(ctx))

	s.Close()
	assert.False(t, c.Available(ctx))

	store := core.NewStore(c, core.StoreConfig{})
	err := store.Put(ctx, core.Note{ID: "a", Text: "x", CreatedAt: 1})
	assert.ErrorIs(t, err, core.ErrUnavailable)
}

func TestCache_OOMIsQuota(t *testing.T) {
	ctx := context.Background()
	c, s := setupTestRedis(t)
	b, err := c.Open(ctx, "ns")
	require.NoError(t, err)

	s.SetError("OOM command not allowed when used memory > 'maxmemory'.")
	defer s.SetError("")

	err = b.Put(ctx, "k", []byte("v"))
	assert.ErrorIs(t, err, core.ErrQuotaExceeded)
}

func TestCache_Watch(t *testing.T) {
	c, s := setupTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watched, err := c.Open(ctx, "ns")
	require.NoError(t, err)
	events, err := watched.(core.Watcher).Watch(ctx)
	require.NoError(t, err)

	// A second client stands in for another process sharing the server.
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	defer client.Close()
	other := redis.NewWithClient(client)
	b, err := other.Open(ctx, "ns")
	require.NoError(t, err)

	require.NoError(t, b.Put(ctx, "k", []byte("v")))
	assert.Equal(t, core.KeyEvent{Type: core.EventPut, Key: "k"}, receive(t, events))

	_, err = b.Delete(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, core.KeyEvent{Type: core.EventDelete, Key: "k"}, receive(t, events))

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func receive(t *testing.T, events <-chan core.KeyEvent) core.KeyEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return core.KeyEvent{}
	}
}

func TestCache_State(t *testing.T) {
	c, s := setupTestRedis(t)
	state := c.State().(redis.CacheState)
	assert.Equal(t, s.Addr(), state.Addr)
	assert.Equal(t, "sticky:", state.Prefix)
	assert.Equal(t, "redis", c.ComponentType())
}
