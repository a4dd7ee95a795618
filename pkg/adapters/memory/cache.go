// Package memory provides an in-process implementation of core.Cache.
// It keeps insertion order, can enforce a byte quota, and can be switched
// offline or made to fail, which makes it the test double for the store.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/aretw0/sticky/pkg/core"
)

const watchBuffer = 64

// Cache is an in-memory core.Cache.
type Cache struct {
	mu          sync.RWMutex
	buckets     map[string]*Bucket
	maxBytes    int
	usedBytes   int
	unavailable bool
	failures    map[string]error
}

// Option configures a Cache.
type Option func(*Cache)

// WithQuota limits the total size of stored values in bytes. Zero means unlimited.
func WithQuota(bytes int) Option {
	return func(c *Cache) {
		c.maxBytes = bytes
	}
}

// New creates an empty Cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		buckets:  make(map[string]*Bucket),
		failures: make(map[string]error),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetAvailable switches the cache on or off.
func (c *Cache) SetAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unavailable = !available
}

// FailOn makes every subsequent call of op ("put", "match", "keys", "delete")
// return err. A nil err clears the failure.
func (c *Cache) FailOn(op string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.failures, op)
		return
	}
	c.failures[op] = err
}

// Available implements core.Prober.
func (c *Cache) Available(ctx context.Context) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.unavailable
}

// Open implements core.Cache.
func (c *Cache) Open(ctx context.Context, namespace string) (core.Bucket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unavailable {
		return nil, core.ErrUnavailable
	}
	b, ok := c.buckets[namespace]
	if !ok {
		b = &Bucket{cache: c, values: make(map[string][]byte)}
		c.buckets[namespace] = b
	}
	return b, nil
}

// check reports the injected failure or unavailability for op. Caller holds c.mu.
func (c *Cache) check(op string) error {
	if c.unavailable {
		return core.ErrUnavailable
	}
	return c.failures[op]
}

// ComponentType implements introspection.Component.
func (c *Cache) ComponentType() string {
	return "memory"
}

// CacheState exposes internal state for observability.
type CacheState struct {
	Buckets   int  `json:"buckets"`
	UsedBytes int  `json:"used_bytes"`
	MaxBytes  int  `json:"max_bytes"`
	Available bool `json:"available"`
}

// State implements introspection.Introspectable.
func (c *Cache) State() any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheState{
		Buckets:   len(c.buckets),
		UsedBytes: c.usedBytes,
		MaxBytes:  c.maxBytes,
		Available: !c.unavailable,
	}
}

var _ core.Cache = (*Cache)(nil)
var _ core.Prober = (*Cache)(nil)
var _ introspection.Introspectable = (*Cache)(nil)
var _ introspection.Component = (*Cache)(nil)

// Bucket is a namespace of a memory Cache. Keys are reported in insertion order.
type Bucket struct {
	cache    *Cache
	order    []string
	values   map[string][]byte
	watchers []chan core.KeyEvent
}

// Put implements core.Bucket.
func (b *Bucket) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c := b.cache
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check("put"); err != nil {
		return err
	}

	old, exists := b.values[key]
	used := c.usedBytes - len(old) + len(value)
	if c.maxBytes > 0 && used > c.maxBytes {
		return fmt.Errorf("%w: %d of %d bytes", core.ErrQuotaExceeded, used, c.maxBytes)
	}

	b.values[key] = append([]byte(nil), value...)
	if !exists {
		b.order = append(b.order, key)
	}
	c.usedBytes = used
	b.notify(core.KeyEvent{Type: core.EventPut, Key: key})
	return nil
}

// Match implements core.Bucket.
func (b *Bucket) Match(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	c := b.cache
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.check("match"); err != nil {
		return nil, false, err
	}

	v, ok := b.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Keys implements core.Bucket.
func (b *Bucket) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := b.cache
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.check("keys"); err != nil {
		return nil, err
	}
	return append([]string(nil), b.order...), nil
}

// Delete implements core.Bucket.
func (b *Bucket) Delete(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	c := b.cache
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check("delete"); err != nil {
		return false, err
	}

	old, ok := b.values[key]
	if !ok {
		return false, nil
	}
	delete(b.values, key)
	for i, k := range b.order {
		if k == key {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	c.usedBytes -= len(old)
	b.notify(core.KeyEvent{Type: core.EventDelete, Key: key})
	return true, nil
}

// Watch implements core.Watcher. Events are dropped for a watcher whose
// buffer is full.
func (b *Bucket) Watch(ctx context.Context) (<-chan core.KeyEvent, error) {
	ch := make(chan core.KeyEvent, watchBuffer)

	c := b.cache
	c.mu.Lock()
	b.watchers = append(b.watchers, ch)
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, w := range b.watchers {
			if w == ch {
				b.watchers = append(b.watchers[:i], b.watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

// notify fans an event out to watchers. Caller holds cache.mu.
func (b *Bucket) notify(e core.KeyEvent) {
	for _, w := range b.watchers {
		select {
		case w <- e:
		default:
		}
	}
}

var _ core.Bucket = (*Bucket)(nil)
var _ core.Watcher = (*Bucket)(nil)
