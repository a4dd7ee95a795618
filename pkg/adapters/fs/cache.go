// Package fs stores cache entries as JSON files, one file per key, in one
// directory per namespace. Writes are atomic (temp file + rename).
package fs

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	iofs "io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/afero"

	"github.com/aretw0/sticky/pkg/core"
)

const entryExt = ".json"

// Config configures a file-backed cache.
type Config struct {
	// Root is the directory holding one sub-directory per namespace.
	Root string
	// Fs defaults to the OS filesystem.
	Fs afero.Fs
	// MustExist makes the cache unavailable when Root does not exist yet.
	MustExist    bool
	Logger       *slog.Logger
	ErrorHandler func(error)
}

// Cache is a core.Cache rooted at a directory.
type Cache struct {
	root   string
	fs     afero.Fs
	config Config

	mu            sync.RWMutex
	opened        map[string]*Bucket
	watcherActive bool
}

// New creates a file-backed Cache. It does not touch the filesystem.
func New(config Config) *Cache {
	if config.Fs == nil {
		config.Fs = afero.NewOsFs()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Cache{
		root:   config.Root,
		fs:     config.Fs,
		config: config,
		opened: make(map[string]*Bucket),
	}
}

// Available implements core.Prober. The root must be a directory, or be
// creatable when MustExist is false.
func (c *Cache) Available(ctx context.Context) bool {
	if c.root == "" {
		return false
	}
	info, err := c.fs.Stat(c.root)
	if err == nil {
		return info.IsDir()
	}
	return errors.Is(err, iofs.ErrNotExist) && !c.config.MustExist
}

// Open implements core.Cache.
func (c *Cache) Open(ctx context.Context, namespace string) (core.Bucket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.Available(ctx) {
		return nil, fmt.Errorf("%w: %s", core.ErrUnavailable, c.root)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.opened[namespace]; ok {
		return b, nil
	}

	dir := filepath.Join(c.root, encodeName(namespace))
	if err := c.fs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create namespace dir: %w", err)
	}
	b := &Bucket{cache: c, dir: dir}
	c.opened[namespace] = b
	return b, nil
}

func (c *Cache) setWatcherActive(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watcherActive = active
}

// Bucket is one namespace directory.
type Bucket struct {
	cache *Cache
	dir   string
}

func (b *Bucket) path(key string) string {
	return filepath.Join(b.dir, encodeName(key)+entryExt)
}

// Put implements core.Bucket.
func (b *Bucket) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeFileAtomic(b.cache.fs, b.path(key), value, 0644); err != nil {
		if errors.Is(err, syscall.ENOSPC) {
			return fmt.Errorf("%w: %v", core.ErrQuotaExceeded, err)
		}
		return err
	}
	return nil
}

// Match implements core.Bucket.
func (b *Bucket) Match(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	data, err := afero.ReadFile(b.cache.fs, b.path(key))
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Keys implements core.Bucket.
func (b *Bucket) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := afero.ReadDir(b.cache.fs, b.dir)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		key, ok := keyFromFile(e.Name())
		if e.IsDir() || !ok {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Delete implements core.Bucket.
func (b *Bucket) Delete(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	err := b.cache.fs.Remove(b.path(key))
	if errors.Is(err, iofs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// keyFromFile decodes an entry file name back into its key.
// Temp files and foreign files are rejected.
func keyFromFile(name string) (string, bool) {
	if strings.HasPrefix(name, TempFilePrefix) || !strings.HasSuffix(name, entryExt) {
		return "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSuffix(name, entryExt))
	if err != nil {
		return "", false
	}
	return string(raw), true
}

// encodeName turns an arbitrary key into a portable file name.
func encodeName(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

var _ core.Cache = (*Cache)(nil)
var _ core.Prober = (*Cache)(nil)
var _ core.Bucket = (*Bucket)(nil)
