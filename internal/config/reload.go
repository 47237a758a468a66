// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/callvault/internal/log"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Reloader is the subset of Loader used by ConfigHolder.
type Reloader interface {
	Load() (AppConfig, error)
}

// ConfigHolder holds configuration with atomic reloading capability.
// Only settings that are safe to change at runtime are propagated to
// listeners; everything else takes effect on restart.
type ConfigHolder struct {
	mu         sync.RWMutex
	current    AppConfig
	loader     Reloader
	configPath string
	watcher    *fsnotify.Watcher
	logger     zerolog.Logger
	debounce   time.Duration

	reloadMu        sync.RWMutex
	reloadListeners []chan<- AppConfig
}

// NewConfigHolder creates a new configuration holder with initial config.
func NewConfigHolder(initial AppConfig, loader Reloader, configPath string) *ConfigHolder {
	return &ConfigHolder{
		current:    initial,
		loader:     loader,
		configPath: configPath,
		logger:     log.WithComponent("config"),
		debounce:   500 * time.Millisecond,
	}
}

// Get returns the current configuration.
func (h *ConfigHolder) Get() AppConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload loads and validates the file again. On failure the old configuration is kept.
func (h *ConfigHolder) Reload(_ context.Context) error {
	h.logger.Info().Str(log.FieldEvent, "config.reload_start").Msg("reloading configuration")

	newCfg, err := h.loader.Load()
	if err != nil {
		h.logger.Error().Err(err).Str(log.FieldEvent, "config.reload_failed").Msg("failed to load new configuration")
		return fmt.Errorf("load config: %w", err)
	}

	h.mu.Lock()
	oldCfg := h.current
	h.current = newCfg
	h.mu.Unlock()

	h.logChanges(oldCfg, newCfg)
	if oldCfg.Log.Level != newCfg.Log.Level {
		if err := log.SetLevel(newCfg.Log.Level); err != nil {
			h.logger.Warn().Err(err).Msg("could not apply new log level")
		}
	}
	h.notifyListeners(newCfg)

	h.logger.Info().Str(log.FieldEvent, "config.reload_success").Msg("configuration reloaded successfully")
	return nil
}

// StartWatcher starts watching the config file for changes.
// If configPath is empty, this is a no-op (config comes from ENV only).
func (h *ConfigHolder) StartWatcher(ctx context.Context) error {
	if h.configPath == "" {
		h.logger.Info().Str(log.FieldEvent, "config.watcher_disabled").Msg("config file watcher disabled (using ENV-only configuration)")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(h.configPath); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config file: %w", err)
	}
	h.watcher = watcher

	h.logger.Info().
		Str(log.FieldEvent, "config.watcher_started").
		Str("path", h.configPath).
		Msg("watching config file for changes")

	go h.watchLoop(ctx, watcher)
	return nil
}

func (h *ConfigHolder) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str(log.FieldEvent, "config.watcher_stopped").Msg("config watcher stopped")
			_ = watcher.Close()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			// Write and Create cover in-place edits and editor rename-swap saves.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			h.logger.Debug().
				Str(log.FieldEvent, "config.file_changed").
				Str("op", event.Op.String()).
				Msg("config file changed")

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(h.debounce, func() {
				if err := h.Reload(ctx); err != nil {
					h.logger.Error().Err(err).Str(log.FieldEvent, "config.auto_reload_failed").Msg("automatic config reload failed")
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Str(log.FieldEvent, "config.watcher_error").Msg("config watcher error")
		}
	}
}

// Stop stops the config watcher (if running).
func (h *ConfigHolder) Stop() {
	if h.watcher != nil {
		_ = h.watcher.Close()
	}
}

// RegisterListener registers a channel to receive config reload notifications.
// Sends are non-blocking; the caller owns the channel.
func (h *ConfigHolder) RegisterListener(ch chan<- AppConfig) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()
	h.reloadListeners = append(h.reloadListeners, ch)
}

func (h *ConfigHolder) notifyListeners(newCfg AppConfig) {
	h.reloadMu.RLock()
	defer h.reloadMu.RUnlock()

	for _, ch := range h.reloadListeners {
		select {
		case ch <- newCfg:
		default:
			h.logger.Warn().Str(log.FieldEvent, "config.listener_skip").Msg("skipped notifying listener (channel full)")
		}
	}
}

func (h *ConfigHolder) logChanges(old, newCfg AppConfig) {
	if old.Log.Level != newCfg.Log.Level {
		h.logger.Info().Str("old", old.Log.Level).Str("new", newCfg.Log.Level).Msg("config changed: log.level")
	}
	if old.Session.AllowGlobalFallback != newCfg.Session.AllowGlobalFallback {
		h.logger.Info().
			Bool("old", old.Session.AllowGlobalFallback).
			Bool("new", newCfg.Session.AllowGlobalFallback).
			Msg("config changed: session.allowGlobalFallback")
	}
	if old.ObjectStore.Backend != newCfg.ObjectStore.Backend {
		h.logger.Warn().
			Str("old", old.ObjectStore.Backend).
			Str("new", newCfg.ObjectStore.Backend).
			Msg("config changed: objectStore.backend (restart required)")
	}
}
