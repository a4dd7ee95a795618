package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"github.com/aretw0/sticky/pkg/core"
)

type watchWorker struct {
	bucket  *Bucket
	events  chan core.KeyEvent
	watcher *fsnotify.Watcher
	logger  *slog.Logger
}

// Watch implements core.Watcher. Files created, rewritten or removed by any
// process are reported. Only the OS filesystem can be watched.
func (b *Bucket) Watch(ctx context.Context) (<-chan core.KeyEvent, error) {
	if _, ok := b.cache.fs.(*afero.OsFs); !ok {
		return nil, errors.New("watching requires the OS filesystem")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(b.dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", b.dir, err)
	}

	w := &watchWorker{
		bucket:  b,
		events:  make(chan core.KeyEvent),
		watcher: watcher,
		logger:  b.cache.config.Logger,
	}
	b.cache.setWatcherActive(true)

	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		if b.cache.config.ErrorHandler != nil {
			b.cache.config.ErrorHandler(fmt.Errorf("watcher stopped: %w", err))
		} else {
			w.logger.Error("watcher stopped", "error", err)
		}
	}))
	return w.events, nil
}

// mapEvent translates a filesystem event into a key event.
func mapEvent(event fsnotify.Event) (core.KeyEvent, bool) {
	key, ok := keyFromFile(filepath.Base(event.Name))
	if !ok {
		return core.KeyEvent{}, false
	}
	switch {
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		return core.KeyEvent{Type: core.EventPut, Key: key}, true
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		return core.KeyEvent{Type: core.EventDelete, Key: key}, true
	}
	return core.KeyEvent{}, false
}

// run is the main event loop for the watcher worker.
func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			// Stack only when debug logging is enabled.
			if w.logger.Enabled(ctx, slog.LevelDebug) {
				w.logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				w.logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer close(w.events)
	defer w.bucket.cache.setWatcherActive(false)
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.logger.Debug("event received", "name", event.Name, "op", event.Op.String())

			ke, ok := mapEvent(event)
			if !ok {
				continue
			}
			select {
			case w.events <- ke:
			case <-ctx.Done():
				return nil
			}

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("fsnotify error", "error", wErr)
			if h := w.bucket.cache.config.ErrorHandler; h != nil {
				h(wErr)
			}
		}
	}
}

var _ core.Watcher = (*Bucket)(nil)
