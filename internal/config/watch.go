// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/qbridge/qbridge/internal/log"
)

// WatchLogLevel watches the config file and applies log-level changes without
// a restart. Only the level is hot-reloadable; everything else needs a
// restart because the runtime is process-wide state. Blocks until ctx ends.
func WatchLogLevel(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: editors replace files, which would orphan a
	// file-level watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	logger := log.WithComponent("config")
	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := LoadFile(Defaults(), path)
			if err != nil {
				logger.Warn().Err(err).Msg("config reload skipped")
				continue
			}
			if err := log.SetLevel(cfg.LogLevel); err != nil {
				logger.Warn().Str("level", cfg.LogLevel).Err(err).Msg("bad log level in config")
				continue
			}
			logger.Info().Str("level", cfg.LogLevel).Msg("log level reloaded")
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("config watcher error")
		}
	}
}
