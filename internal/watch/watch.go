// Package watch rebuilds the project when its sources change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"github.com/orthopole/matex/internal/config"
)

const debounceDelay = 300 * time.Millisecond

// RebuildFunc runs one build. Watch keeps running when it returns an error;
// the next change triggers another attempt.
type RebuildFunc func(ctx context.Context) error

// Watcher recompiles the project on source changes and, optionally, on a
// fixed interval.
type Watcher struct {
	root     string
	cfg      *config.Config
	rebuild  RebuildFunc
	interval time.Duration
}

// New creates a watcher. interval zero disables scheduled rebuilds.
func New(root string, cfg *config.Config, interval time.Duration, rebuild RebuildFunc) *Watcher {
	return &Watcher{root: root, cfg: cfg, rebuild: rebuild, interval: interval}
}

// Run blocks until ctx is canceled, rebuilding on changes to any directory
// containing a configured source.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, dir := range w.sourceDirs() {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		slog.Debug("Watching directory", "dir", dir)
	}

	rebuildReq, trigger := newDebouncer()
	w.startRebuildWorker(ctx, rebuildReq)

	scheduler, err := w.startScheduler(trigger)
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				slog.Warn("Scheduler shutdown error", "error", err)
			}
		}()
	}

	slog.Info("Watching for changes", "sources", len(w.cfg.Sources))
	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping watcher")
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if shouldIgnore(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				slog.Debug("Change detected", "path", ev.Name, "op", ev.Op.String())
				trigger()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", "error", err)
		}
	}
}

// sourceDirs returns the unique directories containing configured sources.
func (w *Watcher) sourceDirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, source := range w.cfg.Sources {
		dir := filepath.Dir(filepath.Join(w.root, source))
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// newDebouncer coalesces bursts of filesystem events into single rebuild
// requests.
func newDebouncer() (chan struct{}, func()) {
	var mu sync.Mutex
	var timer *time.Timer
	rebuildReq := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounceDelay, func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}
	return rebuildReq, trigger
}

func (w *Watcher) startRebuildWorker(ctx context.Context, rebuildReq chan struct{}) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-rebuildReq:
				if !ok {
					return
				}
				slog.Info("Change detected; rebuilding")
				if err := w.rebuild(ctx); err != nil {
					slog.Warn("Rebuild failed", "error", err)
				}
			}
		}
	}()
}

// startScheduler sets up the optional periodic full rebuild.
func (w *Watcher) startScheduler(trigger func()) (gocron.Scheduler, error) {
	if w.interval <= 0 {
		return nil, nil
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(trigger),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule periodic rebuild: %w", err)
	}
	scheduler.Start()
	slog.Info("Scheduled periodic rebuild", "interval", w.interval)
	return scheduler, nil
}

// shouldIgnore filters editor swap files and hidden files.
func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "#") {
		return true
	}
	switch {
	case strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"), strings.HasSuffix(base, "~"):
		return true
	}
	return false
}
