// Package redis stores cache entries in Redis, one hash per namespace.
// Writes are announced on a pub/sub channel so other processes sharing the
// server can watch the board.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/introspection"
	"github.com/redis/go-redis/v9"

	"github.com/aretw0/sticky/pkg/core"
)

const (
	defaultPrefix = "sticky:"
	pingTimeout   = 2 * time.Second
)

// Cache is a core.Cache backed by a Redis server.
type Cache struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
	owned  bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithPrefix sets the prefix of every Redis key the cache touches.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// WithLogger sets the logger for the cache.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New connects to the server at redisURL (redis://host:port/db) and pings it.
func New(ctx context.Context, redisURL string, opts ...Option) (*Cache, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(options)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: connect to redis: %v", core.ErrUnavailable, err)
	}

	c := NewWithClient(client, opts...)
	c.owned = true
	return c, nil
}

// NewWithClient creates a cache from an existing client. The caller keeps ownership.
func NewWithClient(client *redis.Client, opts ...Option) *Cache {
	c := &Cache{
		client: client,
		prefix: defaultPrefix,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close closes the connection if this cache opened it.
func (c *Cache) Close() error {
	if !c.owned {
		return nil
	}
	return c.client.Close()
}

// Available implements core.Prober.
func (c *Cache) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.client.Ping(ctx).Err() == nil
}

// Open implements core.Cache.
func (c *Cache) Open(ctx context.Context, namespace string) (core.Bucket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := c.prefix + namespace
	return &Bucket{
		client:  c.client,
		hash:    base + ":entries",
		channel: base + ":events",
		logger:  c.logger,
	}, nil
}

// ComponentType implements introspection.Component.
func (c *Cache) ComponentType() string {
	return "redis"
}

// CacheState exposes internal state for observability.
type CacheState struct {
	Addr   string `json:"addr"`
	Prefix string `json:"prefix"`
}

// State implements introspection.Introspectable.
func (c *Cache) State() any {
	return CacheState{Addr: c.client.Options().Addr, Prefix: c.prefix}
}

// Bucket is one namespace hash.
type Bucket struct {
	client  *redis.Client
	hash    string
	channel string
	logger  *slog.Logger
}

type message struct {
	Type core.EventType `json:"type"`
	Key  string         `json:"key"`
}

// Put implements core.Bucket.
func (b *Bucket) Put(ctx context.Context, key string, value []byte) error {
	if err := b.client.HSet(ctx, b.hash, key, value).Err(); err != nil {
		return classify("put", key, err)
	}
	b.publish(ctx, core.EventPut, key)
	return nil
}

// Match implements core.Bucket.
func (b *Bucket) Match(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := b.client.HGet(ctx, b.hash, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify("match", key, err)
	}
	return value, true, nil
}

// Keys implements core.Bucket.
func (b *Bucket) Keys(ctx context.Context) ([]string, error) {
	keys, err := b.client.HKeys(ctx, b.hash).Result()
	if err != nil {
		return nil, classify("keys", b.hash, err)
	}
	return keys, nil
}

// Delete implements core.Bucket.
func (b *Bucket) Delete(ctx context.Context, key string) (bool, error) {
	n, err := b.client.HDel(ctx, b.hash, key).Result()
	if err != nil {
		return false, classify("delete", key, err)
	}
	if n > 0 {
		b.publish(ctx, core.EventDelete, key)
	}
	return n > 0, nil
}

// publish announces a change. Failures are logged; the write already succeeded.
func (b *Bucket) publish(ctx context.Context, t core.EventType, key string) {
	payload, _ := json.Marshal(message{Type: t, Key: key})
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.logger.Warn("failed to publish change", "key", key, "error", err)
	}
}

// Watch implements core.Watcher by subscribing to the namespace channel.
func (b *Bucket) Watch(ctx context.Context) (<-chan core.KeyEvent, error) {
	ps := b.client.Subscribe(ctx, b.channel)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, classify("watch", b.channel, err)
	}

	out := make(chan core.KeyEvent)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var msg message
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					b.logger.Warn("ignoring malformed change message", "error", err)
					continue
				}
				select {
				case out <- core.KeyEvent{Type: msg.Type, Key: msg.Key}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// classify maps Redis replies onto core errors. OOM means maxmemory was hit.
func classify(op, key string, err error) error {
	if strings.HasPrefix(err.Error(), "OOM") {
		return fmt.Errorf("%w: %s %s: %v", core.ErrQuotaExceeded, op, key, err)
	}
	return fmt.Errorf("%s %s: %w", op, key, err)
}

var _ core.Cache = (*Cache)(nil)
var _ core.Prober = (*Cache)(nil)
var _ core.Bucket = (*Bucket)(nil)
var _ core.Watcher = (*Bucket)(nil)
var _ introspection.Introspectable = (*Cache)(nil)
var _ introspection.Component = (*Cache)(nil)
