package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Store holds the live configuration shared between the agent, the tray
// menu and the web UI. Readers always get a copy so a settings save can
// never mutate a correction cycle that is already running.
type Store struct {
	mu  sync.RWMutex
	cfg *Config

	changed chan struct{}
}

// NewStore wraps an initial configuration.
func NewStore(cfg *Config) *Store {
	return &Store{
		cfg:     cfg,
		changed: make(chan struct{}, 1),
	}
}

// Get returns a copy of the current configuration.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.cfg
}

// Set replaces the current configuration and signals Changed.
func (s *Store) Set(cfg *Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	s.signal()
}

// Changed returns a channel that receives a tick whenever the
// configuration is replaced, either through Set or a file reload.
// The channel is buffered with size 1; rapid updates coalesce.
func (s *Store) Changed() <-chan struct{} {
	return s.changed
}

func (s *Store) signal() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// Watch reloads the store whenever the config file changes on disk, so
// edits made outside the app (or by the web UI save) take effect without
// a restart. Runs until ctx is cancelled.
func (s *Store) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory, not the file: atomic saves rename a temp file
	// over the target, which drops a watch placed on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != filepath.Base(path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				// Editors and atomic renames fire bursts of events.
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(200*time.Millisecond, func() {
					s.reload(path)
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("Config watcher error", "error", err)
			}
		}
	}()

	return nil
}

func (s *Store) reload(path string) {
	cfg, err := LoadFile(path)
	if err != nil {
		slog.Error("Failed to reload config, keeping previous", "path", path, "error", err)
		return
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		slog.Error("Reloaded config is invalid, keeping previous", "error", err)
		return
	}

	s.Set(cfg)
	slog.Info("Configuration reloaded", "path", path)
}
