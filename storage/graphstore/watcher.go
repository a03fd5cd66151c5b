package graphstore

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/RiddheshMore/ros-component-explorer/errors"
)

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads a Store when its triple file changes. The parent directory is
// watched so that editors replacing the file by rename are still seen.
type Watcher struct {
	store    *Store
	target   string
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a watcher for the store's file. A non-positive debounce uses
// DefaultDebounce.
func NewWatcher(store *Store, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	target, err := filepath.Abs(store.Path())
	if err != nil {
		target = filepath.Clean(store.Path())
	}
	return &Watcher{
		store:    store,
		target:   target,
		debounce: debounce,
		logger:   store.logger.With("component", "graphstore-watcher"),
	}
}

// Run watches until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapFatal(err, "Watcher", "Run", "create file watcher")
	}
	defer fw.Close()

	dir := filepath.Dir(w.target)
	if err := fw.Add(dir); err != nil {
		return errors.WrapFatal(err, "Watcher", "Run", "watch "+dir)
	}
	w.logger.InfoContext(ctx, "Watching triple file for changes", "dir", dir)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WarnContext(ctx, "File watcher error", "error", err)

		case <-fire:
			fire = nil
			w.logger.InfoContext(ctx, "Triple file changed, reloading")
			// Load logs its own failures.
			_ = w.store.Load(ctx)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	name, err := filepath.Abs(ev.Name)
	if err != nil {
		name = filepath.Clean(ev.Name)
	}
	if name != w.target {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}
