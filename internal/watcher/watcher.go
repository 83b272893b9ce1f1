// Package watcher re-runs the conversion when the export directory changes.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before a run.
const DefaultDebounce = 500 * time.Millisecond

// RunFunc performs one full conversion.
type RunFunc func(ctx context.Context) error

// Watch starts an fsnotify watcher on dir and calls run after a burst of
// page changes has been quiet for debounce. It blocks until ctx is
// cancelled. Run errors are logged and do not stop the watcher.
func Watch(ctx context.Context, dir string, debounce time.Duration, logger *slog.Logger, run RunFunc) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watcher: add %s: %w", dir, err)
	}
	logger.Info("watcher: started", slog.String("dir", dir), slog.Duration("debounce", debounce))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(debounce)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			logger.Info("watcher: export changed, converting")
			if err := run(ctx); err != nil {
				logger.Error("watcher: run failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			logger.Debug("watcher: event",
				slog.String("path", filepath.Base(ev.Name)),
				slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if !strings.HasSuffix(strings.ToLower(ev.Name), ".html") {
		return false
	}
	return ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
