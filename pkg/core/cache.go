package core

import "context"

// Cache is the external key/value persistence the store writes to.
// Adhering to this interface keeps the core independent of the underlying
// storage mechanism (memory, filesystem, SQLite, Redis).
type Cache interface {
	// Open returns the bucket for a namespace, creating it if needed.
	Open(ctx context.Context, namespace string) (Bucket, error)
}

// Bucket is a single namespace inside a Cache.
// Implementations must be safe for concurrent use.
type Bucket interface {
	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Match returns the value stored under key. The boolean is false when absent.
	Match(ctx context.Context, key string) ([]byte, bool, error)

	// Keys returns every key in the bucket.
	Keys(ctx context.Context) ([]string, error)

	// Delete removes key and reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
}

// Prober is implemented by caches that can tell whether they are reachable
// without side effects.
type Prober interface {
	Available(ctx context.Context) bool
}

// Watcher is implemented by buckets that can report external changes.
type Watcher interface {
	// Watch streams key changes until ctx is cancelled. The channel is closed on exit.
	Watch(ctx context.Context) (<-chan KeyEvent, error)
}
