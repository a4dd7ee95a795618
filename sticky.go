package sticky

import (
	"context"
	"log/slog"

	"github.com/aretw0/sticky/internal/platform"
	"github.com/aretw0/sticky/pkg/core"
)

// --- Types ---

// Board is a wired controller together with its store and backend.
type Board = platform.Board

// Config is the on-disk configuration of a board.
type Config = platform.Config

// --- Configuration ---

// Option defines a functional option for configuring a board.
type Option = platform.Option

// WithConfig applies a whole configuration, typically one read by LoadConfig.
func WithConfig(cfg Config) Option {
	return platform.WithConfig(cfg)
}

// WithLogger sets the logger for the controller, the store and the backend.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithCache allows injecting a custom backend.
func WithCache(cache core.Cache) Option {
	return platform.WithCache(cache)
}

// WithStore selects the backend by URI.
func WithStore(uri string) Option {
	return platform.WithStore(uri)
}

// WithPolicy sets what writes do when the backend is unreachable.
func WithPolicy(p core.UnavailablePolicy) Option {
	return platform.WithPolicy(p)
}

// WithNamespace sets the bucket notes live in.
func WithNamespace(ns string) Option {
	return platform.WithNamespace(ns)
}

// WithLayout sets the board grid.
func WithLayout(l core.Layout) Option {
	return platform.WithLayout(l)
}

// WithDevSafety controls the temporary-directory sandbox used under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// --- Factory ---

// New wires a board from the options.
func New(ctx context.Context, opts ...Option) (*Board, error) {
	return platform.New(ctx, opts...)
}

// OpenCache builds the backend named by uri: memory://, file:///path,
// sqlite:///path, sqlite://:memory: or redis://host:port/db.
func OpenCache(ctx context.Context, uri string, opts ...Option) (core.Cache, error) {
	return platform.OpenCache(ctx, uri, opts...)
}

// LoadConfig reads a YAML configuration file. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	return platform.LoadConfig(path)
}

// --- Safety & Utils ---

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindBoardRoot recursively looks upwards for a .sticky directory or sticky.yaml.
func FindBoardRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
