// Package sqlite stores cache entries in a single SQLite table using the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/introspection"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/aretw0/sticky/pkg/core"
)

const schema = `CREATE TABLE IF NOT EXISTS cache_entries (
	namespace TEXT NOT NULL,
	key       TEXT NOT NULL,
	value     BLOB NOT NULL,
	PRIMARY KEY (namespace, key)
)`

// Config configures a SQLite cache.
type Config struct {
	// Path is a file path or ":memory:".
	Path string
	// MaxPages caps the database size via PRAGMA max_page_count. Zero means no cap.
	MaxPages int
}

// Cache is a core.Cache backed by SQLite.
type Cache struct {
	db     *sql.DB
	path   string
	ownsDB bool
}

// Open opens (or creates) the database at config.Path and prepares the schema.
func Open(ctx context.Context, config Config) (*Cache, error) {
	if config.Path == "" {
		return nil, errors.New("sqlite path cannot be empty")
	}
	db, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: ":memory:" databases are per-connection and SQLite
	// serializes writers anyway.
	db.SetMaxOpenConns(1)

	c := &Cache{db: db, path: config.Path, ownsDB: true}
	if err := c.migrate(ctx, config.MaxPages); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// NewWithDB wraps an existing database handle. The caller keeps ownership.
func NewWithDB(ctx context.Context, db *sql.DB) (*Cache, error) {
	c := &Cache{db: db, path: "external"}
	if err := c.migrate(ctx, 0); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) migrate(ctx context.Context, maxPages int) error {
	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if maxPages > 0 {
		if _, err := c.db.ExecContext(ctx, fmt.Sprintf("PRAGMA max_page_count = %d", maxPages)); err != nil {
			return fmt.Errorf("set max_page_count: %w", err)
		}
	}
	return nil
}

// Close closes the database if this cache opened it.
func (c *Cache) Close() error {
	if !c.ownsDB {
		return nil
	}
	return c.db.Close()
}

// Available implements core.Prober.
func (c *Cache) Available(ctx context.Context) bool {
	return c.db.PingContext(ctx) == nil
}

// Open implements core.Cache. Namespaces are rows partitions; nothing is created.
func (c *Cache) Open(ctx context.Context, namespace string) (core.Bucket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Bucket{db: c.db, namespace: namespace}, nil
}

// ComponentType implements introspection.Component.
func (c *Cache) ComponentType() string {
	return "sqlite"
}

// CacheState exposes internal state for observability.
type CacheState struct {
	Path    string `json:"path"`
	Entries int    `json:"entries"`
}

// State implements introspection.Introspectable.
func (c *Cache) State() any {
	state := CacheState{Path: c.path}
	_ = c.db.QueryRow(`SELECT COUNT(*) FROM cache_entries`).Scan(&state.Entries)
	return state
}

// Bucket is one namespace of the cache_entries table.
type Bucket struct {
	db        *sql.DB
	namespace string
}

// Put implements core.Bucket.
func (b *Bucket) Put(ctx context.Context, key string, value []byte) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO cache_entries (namespace, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value`,
		b.namespace, key, value)
	if err != nil {
		if isFull(err) {
			return fmt.Errorf("%w: %v", core.ErrQuotaExceeded, err)
		}
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Match implements core.Bucket.
func (b *Bucket) Match(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.QueryRowContext(ctx,
		`SELECT value FROM cache_entries WHERE namespace = ? AND key = ?`,
		b.namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("match %s: %w", key, err)
	}
	return value, true, nil
}

// Keys implements core.Bucket. Keys come back in insertion order.
func (b *Bucket) Keys(ctx context.Context) ([]string, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT key FROM cache_entries WHERE namespace = ? ORDER BY rowid`, b.namespace)
	if err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Delete implements core.Bucket.
func (b *Bucket) Delete(ctx context.Context, key string) (bool, error) {
	res, err := b.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE namespace = ? AND key = ?`, b.namespace, key)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// isFull reports SQLITE_FULL, raised when max_page_count or the disk is exhausted.
func isFull(err error) bool {
	var se *sqlitedrv.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_FULL {
		return true
	}
	return strings.Contains(err.Error(), "database or disk is full")
}

var _ core.Cache = (*Cache)(nil)
var _ core.Prober = (*Cache)(nil)
var _ core.Bucket = (*Bucket)(nil)
var _ introspection.Introspectable = (*Cache)(nil)
var _ introspection.Component = (*Cache)(nil)
