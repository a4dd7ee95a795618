package platform

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/sticky/pkg/adapters/fs"
	"github.com/aretw0/sticky/pkg/adapters/memory"
	"github.com/aretw0/sticky/pkg/adapters/redis"
	"github.com/aretw0/sticky/pkg/adapters/sqlite"
	"github.com/aretw0/sticky/pkg/core"
)

// Board is a wired controller together with the store and backend behind it.
type Board struct {
	Controller *core.Controller
	Store      *core.Store
	Cache      core.Cache
}

// Close releases the backend connection, if it holds one.
func (b *Board) Close() error {
	if c, ok := b.Cache.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// New wires a controller from the options.
//
//	board, err := sticky.New(ctx, sticky.WithStore("sqlite:///var/lib/sticky/board.db"))
func New(ctx context.Context, opts ...Option) (*Board, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	policy, err := core.ParsePolicy(o.config.Policy)
	if err != nil {
		return nil, err
	}
	alloc, err := core.NewAllocator(o.config.layout())
	if err != nil {
		return nil, err
	}

	cache := o.cache
	if cache == nil {
		cache, err = openCache(ctx, o.config.Store, o, logger)
		if err != nil {
			return nil, err
		}
	}

	store := core.NewStore(cache, core.StoreConfig{
		Namespace: o.config.Namespace,
		KeyPrefix: o.config.KeyPrefix,
		Policy:    policy,
		Logger:    logger,
	})
	ctrl := core.NewController(store, alloc, core.NewWorkspace(), core.WithLogger(logger))
	return &Board{Controller: ctrl, Store: store, Cache: cache}, nil
}

// OpenCache builds the backend named by uri. Only the logger and dev safety
// options are consulted.
func OpenCache(ctx context.Context, uri string, opts ...Option) (core.Cache, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	return openCache(ctx, uri, o, logger)
}

func openCache(ctx context.Context, uri string, o *options, logger *slog.Logger) (core.Cache, error) {
	scheme, rest, found := strings.Cut(uri, "://")
	if !found {
		scheme, rest = "file", uri
	}

	switch scheme {
	case "memory", "mem":
		return memory.New(), nil
	case "file":
		root := resolvePath(rest, o, logger)
		return fs.New(fs.Config{
			Root:   root,
			Logger: logger,
			ErrorHandler: func(err error) {
				logger.Error("watcher error", "root", root, "error", err)
			},
		}), nil
	case "sqlite":
		path := rest
		if path != ":memory:" {
			path = resolvePath(rest, o, logger)
		}
		return sqlite.Open(ctx, sqlite.Config{Path: path})
	case "redis", "rediss":
		return redis.New(ctx, uri, redis.WithLogger(logger))
	default:
		return nil, fmt.Errorf("unknown store scheme %q", scheme)
	}
}

// resolvePath applies the dev sandbox to file-backed stores.
func resolvePath(path string, o *options, logger *slog.Logger) string {
	useTemp := o.devSafety && IsDevRun()
	resolved := ResolveStorePath(path, useTemp)
	if useTemp && resolved != path {
		logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolved)
	}
	return resolved
}
