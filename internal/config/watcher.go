package config

import (
	"context"
	"crypto/sha256"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher polls a config file and swaps in the new value when its content
// changes. Sessions take a copy from Current at press time.
type Watcher struct {
	path     string
	interval time.Duration
	logger   *slog.Logger
	onChange func(old, new Config)

	mu        sync.Mutex
	current   Config
	lastMtime time.Time
	lastHash  [sha256.Size]byte
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. The default is 5 seconds.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithOnChange registers a callback invoked after each successful reload.
func WithOnChange(fn func(old, new Config)) WatcherOption {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// NewWatcher seeds the watcher with an already loaded configuration.
func NewWatcher(loaded Loaded, logger *slog.Logger, opts ...WatcherOption) *Watcher {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	w := &Watcher{
		path:     loaded.Path,
		interval: 5 * time.Second,
		logger:   logger,
		current:  loaded.Config,
	}
	for _, opt := range opts {
		opt(w)
	}

	if snap, err := readSnapshot(w.path); err == nil {
		w.lastHash = snap.hash
		w.lastMtime = snap.mtime
	}
	return w
}

// Current returns the most recently loaded valid config.
func (w *Watcher) Current() Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Run polls until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.check()
		}
	}
}

func (w *Watcher) check() {
	info, err := os.Stat(w.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			w.logger.Warn("config watcher: cannot stat file", "path", w.path, "error", err.Error())
		}
		return
	}

	w.mu.Lock()
	mtime := w.lastMtime
	w.mu.Unlock()
	if info.ModTime().Equal(mtime) {
		return
	}

	snap, err := readSnapshot(w.path)
	if err != nil {
		w.logger.Warn("config watcher: read failed", "path", w.path, "error", err.Error())
		return
	}

	w.mu.Lock()
	if snap.hash == w.lastHash {
		w.lastMtime = snap.mtime
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	cfg, warnings, err := Parse(string(snap.data), Default())
	if err != nil {
		w.logger.Warn("config watcher: keeping previous config", "path", w.path, "error", err.Error())
		w.mu.Lock()
		w.lastHash = snap.hash
		w.lastMtime = snap.mtime
		w.mu.Unlock()
		return
	}
	for _, warning := range warnings {
		w.logger.Warn("config warning", "path", w.path, "message", warning.Message)
	}

	w.mu.Lock()
	old := w.current
	w.current = cfg
	w.lastHash = snap.hash
	w.lastMtime = snap.mtime
	w.mu.Unlock()

	w.logger.Info("config reloaded", "path", w.path)
	if w.onChange != nil {
		w.onChange(old, cfg)
	}
}
