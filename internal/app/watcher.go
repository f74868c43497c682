package app

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
	"git.home.luguber.info/inful/lorasensor/internal/logfields"
)

// ConfigWatcher fires onChange once a burst of edits to the node file has
// been quiet for the debounce period. The parent directory is watched
// because editors often save by rename.
type ConfigWatcher struct {
	path     string
	onChange func()
	debounce time.Duration
	fs       *fsnotify.Watcher

	once sync.Once
	done chan struct{}
}

func NewConfigWatcher(path string, onChange func(), debounce time.Duration) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to resolve config path").
			WithContext("path", path).
			Build()
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRuntime, "failed to create file watcher").Build()
	}
	return &ConfigWatcher{path: abs, onChange: onChange, debounce: debounce, fs: fs, done: make(chan struct{})}, nil
}

func (w *ConfigWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.fs.Add(dir); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to watch config directory").
			WithContext("path", dir).
			Build()
	}
	slog.Debug("Watching node configuration", logfields.Path(w.path))
	go w.loop(ctx)
	return nil
}

// Stop may be called more than once.
func (w *ConfigWatcher) Stop() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}

func (w *ConfigWatcher) loop(ctx context.Context) {
	name := filepath.Base(w.path)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Has(fsnotify.Remove) {
				slog.Warn("Node configuration removed", logfields.Path(ev.Name))
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				slog.Debug("Node configuration touched", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("Config watcher error", logfields.Error(err))
		case <-timer.C:
			slog.Info("Node configuration changed", logfields.Path(w.path))
			w.onChange()
		}
	}
}
