// Package watch rebuilds the site whenever content or template files change,
// with an optional fixed-interval rebuild on top.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// defaultDebounce coalesces editor save bursts into one rebuild.
const defaultDebounce = 300 * time.Millisecond

// RebuildFunc runs one full site build.
type RebuildFunc func(ctx context.Context) error

// Watcher monitors a set of directory trees and triggers rebuilds.
type Watcher struct {
	dirs     []string
	rebuild  RebuildFunc
	debounce time.Duration
	every    time.Duration

	watcher *fsnotify.Watcher
	trigger chan struct{}
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithInterval adds a periodic rebuild at the given interval, independent of
// file events. Zero disables it.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) { w.every = d }
}

// WithDebounce overrides the event debounce window.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New creates a Watcher over the given directory trees. Directories that do
// not exist yet are skipped with a warning.
func New(dirs []string, rebuild RebuildFunc, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	w := &Watcher{
		dirs:     dirs,
		rebuild:  rebuild,
		debounce: defaultDebounce,
		watcher:  fw,
		trigger:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run builds once, then blocks rebuilding on changes until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for _, dir := range w.dirs {
		if err := w.addTree(dir); err != nil {
			return err
		}
	}

	var scheduler gocron.Scheduler
	if w.every > 0 {
		s, err := gocron.NewScheduler()
		if err != nil {
			return fmt.Errorf("create scheduler: %w", err)
		}
		_, err = s.NewJob(
			gocron.DurationJob(w.every),
			gocron.NewTask(w.fire),
			gocron.WithName("periodic-rebuild"),
		)
		if err != nil {
			return fmt.Errorf("schedule periodic rebuild: %w", err)
		}
		s.Start()
		scheduler = s
		slog.Info("Periodic rebuild enabled", slog.Duration("interval", w.every))
	}
	defer func() {
		if scheduler != nil {
			if err := scheduler.Shutdown(); err != nil {
				slog.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}
	}()

	if err := w.rebuild(ctx); err != nil {
		slog.Error("Initial build failed", logfields.Error(err))
	}

	go w.eventLoop(ctx)

	slog.Info("Watching for changes", logfields.Count(len(w.dirs)))
	return w.rebuildLoop(ctx)
}

// addTree watches dir and every subdirectory beneath it.
func (w *Watcher) addTree(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		slog.Warn("Watch directory missing, skipping", logfields.Path(dir))
		return nil
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}
			// New directories must be added before their first file event.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						slog.Warn("Failed to watch new directory",
							logfields.Path(event.Name), logfields.Error(err))
					}
				}
			}
			if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) ||
				event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
				slog.Debug("Change detected", logfields.Path(event.Name))
				w.fire()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("File watcher error", logfields.Error(err))
		}
	}
}

// fire requests a rebuild; a pending request absorbs further ones.
func (w *Watcher) fire() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// rebuildLoop debounces trigger signals into builds. Build failures are
// logged, not fatal; the watcher keeps running so the author can fix the
// content and save again.
func (w *Watcher) rebuildLoop(ctx context.Context) error {
	var timer *time.Timer
	var fireAt <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.trigger:
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fireAt = timer.C
		case <-fireAt:
			fireAt = nil
			if err := w.rebuild(ctx); err != nil {
				slog.Error("Rebuild failed", logfields.Error(err))
			}
		}
	}
}
