package platform

import (
	"log/slog"

	"github.com/aretw0/sticky/pkg/core"
)

// options holds the internal configuration for a sticky controller.
type options struct {
	cache     core.Cache
	logger    *slog.Logger
	config    Config
	devSafety bool
}

// Option defines a functional option for configuring sticky.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		config:    DefaultConfig(),
		devSafety: true,
	}
}

// WithConfig replaces the whole configuration, typically one read by LoadConfig.
// Options applied after it still override individual fields.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithLogger sets the logger for the controller, the store and the backend.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCache injects a backend, skipping the store URI entirely.
func WithCache(cache core.Cache) Option {
	return func(o *options) {
		o.cache = cache
	}
}

// WithStore selects the backend by URI (memory://, file:///path, sqlite:///path,
// sqlite://:memory:, redis://host:port/db). A bare path means file.
func WithStore(uri string) Option {
	return func(o *options) {
		o.config.Store = uri
	}
}

// WithPolicy sets what writes do when the backend is unreachable.
func WithPolicy(p core.UnavailablePolicy) Option {
	return func(o *options) {
		o.config.Policy = p.String()
	}
}

// WithNamespace sets the bucket notes live in.
func WithNamespace(ns string) Option {
	return func(o *options) {
		o.config.Namespace = ns
	}
}

// WithLayout sets the board grid.
func WithLayout(l core.Layout) Option {
	return func(o *options) {
		o.config.Layout = &l
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or `go test`.
// By default (true), file and sqlite stores are re-rooted under a temporary
// directory so development runs never touch a real board.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}
