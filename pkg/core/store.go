package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultNamespace is the bucket notes are stored in.
	DefaultNamespace = "cache-sticky"
	// DefaultKeyPrefix partitions note keys from unrelated entries of the same bucket.
	DefaultKeyPrefix = "https://cache-sticky.local/notes/"

	defaultFetchConcurrency = 8
)

// UnavailablePolicy decides what mutating store calls do when the cache
// cannot be reached. It applies to every write the same way.
type UnavailablePolicy int

const (
	// FailLoud returns ErrUnavailable.
	FailLoud UnavailablePolicy = iota
	// Degrade logs a warning and reports success without persisting.
	Degrade
)

func (p UnavailablePolicy) String() string {
	switch p {
	case FailLoud:
		return "fail"
	case Degrade:
		return "degrade"
	default:
		return fmt.Sprintf("UnavailablePolicy(%d)", int(p))
	}
}

// ParsePolicy accepts "fail" or "degrade". An empty string selects FailLoud.
func ParsePolicy(s string) (UnavailablePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail", "fail-loud":
		return FailLoud, nil
	case "degrade", "warn":
		return Degrade, nil
	default:
		return FailLoud, fmt.Errorf("unknown unavailable policy %q", s)
	}
}

// StoreConfig configures a Store.
type StoreConfig struct {
	Namespace string
	KeyPrefix string
	Policy    UnavailablePolicy
	Logger    *slog.Logger
	// Concurrency bounds the parallel fetches performed by List. Zero means 8.
	Concurrency int
}

// Store maps note IDs to serialized records inside a Cache.
type Store struct {
	cache  Cache
	config StoreConfig
	logger *slog.Logger

	mu     sync.Mutex
	bucket Bucket
}

// NewStore creates a Store. A nil cache yields a store that is never available.
func NewStore(cache Cache, config StoreConfig) *Store {
	if config.Namespace == "" {
		config.Namespace = DefaultNamespace
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = DefaultKeyPrefix
	}
	if config.Concurrency <= 0 {
		config.Concurrency = defaultFetchConcurrency
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{cache: cache, config: config, logger: logger}
}

func (s *Store) key(id string) string {
	return s.config.KeyPrefix + id
}

// IsAvailable reports whether the backing cache is reachable. It has no side effects.
func (s *Store) IsAvailable(ctx context.Context) bool {
	if s.cache == nil {
		return false
	}
	if p, ok := s.cache.(Prober); ok {
		return p.Available(ctx)
	}
	return true
}

// open returns the namespace bucket, opening it on first use.
func (s *Store) open(ctx context.Context) (Bucket, error) {
	if !s.IsAvailable(ctx) {
		return nil, ErrUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bucket != nil {
		return s.bucket, nil
	}
	b, err := s.cache.Open(ctx, s.config.Namespace)
	if err != nil {
		return nil, err
	}
	s.bucket = b
	return b, nil
}

// writeFailure classifies a failed write according to the store policy.
func (s *Store) writeFailure(op string, err error) error {
	switch {
	case errors.Is(err, ErrUnavailable):
		if s.config.Policy == Degrade {
			s.logger.Warn("cache not available, change will not persist", "op", op, "error", err)
			return nil
		}
		if err == ErrUnavailable {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	case errors.Is(err, ErrQuotaExceeded):
		return err
	default:
		return &OperationError{Op: op, Err: err}
	}
}

// Put validates and writes a note. The stored copy always has IsEditing false.
func (s *Store) Put(ctx context.Context, n Note) error {
	n.IsEditing = false
	if err := ValidateRecord(n); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	b, err := s.open(ctx)
	if err != nil {
		return s.writeFailure("put", err)
	}

	data, err := EncodeNote(n)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if err := b.Put(ctx, s.key(n.ID), data); err != nil {
		s.logger.Warn("failed to store note", "id", n.ID, "error", err)
		return s.writeFailure("put", err)
	}

	s.logger.Debug("note stored", "id", n.ID)
	return nil
}

// Get retrieves a note. Absent, corrupt and unreachable entries all report
// false; only context cancellation is returned as an error.
func (s *Store) Get(ctx context.Context, id string) (Note, bool, error) {
	if id == "" {
		return Note{}, false, nil
	}

	b, err := s.open(ctx)
	if err != nil {
		s.logger.Warn("cache not available, returning no note", "id", id, "error", err)
		return Note{}, false, ctx.Err()
	}

	return s.fetch(ctx, b, s.key(id))
}

func (s *Store) fetch(ctx context.Context, b Bucket, key string) (Note, bool, error) {
	data, ok, err := b.Match(ctx, key)
	if err != nil {
		s.logger.Warn("failed to read note", "key", key, "error", err)
		return Note{}, false, ctx.Err()
	}
	if !ok {
		return Note{}, false, nil
	}

	n, err := DecodeNote(data)
	if err != nil {
		s.logger.Warn("skipping corrupted note", "key", key, "error", err)
		return Note{}, false, nil
	}
	if s.key(n.ID) != key {
		s.logger.Warn("skipping note stored under a foreign key", "key", key, "id", n.ID)
		return Note{}, false, nil
	}
	n.IsEditing = false
	return n, true, nil
}

// noteKeys returns every key of b under the note prefix.
func (s *Store) noteKeys(ctx context.Context, b Bucket) ([]string, error) {
	keys, err := b.Keys(ctx)
	if err != nil {
		return nil, err
	}
	filtered := keys[:0:0]
	for _, k := range keys {
		if strings.HasPrefix(k, s.config.KeyPrefix) {
			filtered = append(filtered, k)
		}
	}
	return filtered, nil
}

// List returns every valid stored note ordered by creation time, then ID.
// Invalid entries are logged and skipped.
func (s *Store) List(ctx context.Context) ([]Note, error) {
	b, err := s.open(ctx)
	if err != nil {
		s.logger.Warn("cache not available, returning no notes", "error", err)
		return []Note{}, ctx.Err()
	}

	keys, err := s.noteKeys(ctx, b)
	if err != nil {
		s.logger.Warn("failed to enumerate notes", "error", err)
		return []Note{}, ctx.Err()
	}

	found := make([]*Note, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)
	for i, key := range keys {
		g.Go(func() error {
			n, ok, err := s.fetch(gctx, b, key)
			if err != nil {
				return err
			}
			if ok {
				found[i] = &n
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return []Note{}, err
	}

	notes := make([]Note, 0, len(found))
	for _, n := range found {
		if n != nil {
			notes = append(notes, *n)
		}
	}
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].CreatedAt != notes[j].CreatedAt {
			return notes[i].CreatedAt < notes[j].CreatedAt
		}
		return notes[i].ID < notes[j].ID
	})
	return notes, nil
}

// Clear deletes every note. Entries outside the note prefix are kept.
func (s *Store) Clear(ctx context.Context) error {
	b, err := s.open(ctx)
	if err != nil {
		return s.writeFailure("clear", err)
	}

	keys, err := s.noteKeys(ctx, b)
	if err != nil {
		return s.writeFailure("clear", err)
	}

	var errs []error
	for _, key := range keys {
		if _, err := b.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	if len(errs) > 0 {
		return &OperationError{Op: "clear", Err: errors.Join(errs...)}
	}

	s.logger.Debug("notes cleared", "count", len(keys))
	return nil
}

// Watch observes changes to stored notes whose ID matches pattern
// (doublestar syntax; empty matches everything).
func (s *Store) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	if pattern == "" {
		pattern = "**"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}

	b, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	w, ok := b.(Watcher)
	if !ok {
		return nil, ErrWatchUnsupported
	}
	raw, err := w.Watch(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		for ke := range raw {
			id, ok := strings.CutPrefix(ke.Key, s.config.KeyPrefix)
			if !ok {
				continue
			}
			if match, _ := doublestar.Match(pattern, id); !match {
				continue
			}
			select {
			case out <- Event{Type: ke.Type, ID: id, Timestamp: time.Now().Unix()}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
