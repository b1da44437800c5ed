package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchOption configures Watch.
type WatchOption func(*watchOptions)

type watchOptions struct {
	logger *slog.Logger
}

// WithLogger routes reload messages to logger instead of slog.Default.
func WithLogger(logger *slog.Logger) WatchOption {
	return func(o *watchOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Watch reloads path whenever it is written, created or renamed into place
// and passes the result to fn. Parse failures are passed as err with the
// zero Config; the caller keeps its previous settings.
//
// The parent directory is watched rather than the file, so editors that
// save by rename are seen. Watch blocks until ctx is done and then returns
// ctx.Err().
func Watch(ctx context.Context, path string, fn func(Config, error), opts ...WatchOption) error {
	o := watchOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("config: watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Debug("watching config", "path", abs)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev, abs) {
				continue
			}
			cfg, err := Load(abs)
			if err != nil {
				logger.Warn("config reload failed", "path", abs, "error", err)
				fn(Config{}, err)
				continue
			}
			logger.Info("config reloaded", "path", abs, "seed", cfg.Seed, "size", cfg.Size, "speed", cfg.Speed)
			fn(cfg, nil)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("config watcher error", "error", err)
		}
	}
}

func relevant(ev fsnotify.Event, abs string) bool {
	name, err := filepath.Abs(ev.Name)
	if err != nil || name != abs {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}
