package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"
)

// Watch reloads the file at path whenever it is written or replaced and passes every
// configuration that loads and validates to fn. Invalid edits are logged and skipped.
// The parent directory is watched so editors that save by renaming are seen too.
//
// Parameters:
//   - ctx: stops watching
//   - path: the file path, empty for DefaultPath
//   - logger: receives reload errors, nil for slog.Default()
//   - fn: called on the watcher goroutine with each new configuration
//
// Returns:
//   - error: a watcher setup error, or nil once ctx is done
func Watch(ctx context.Context, path string, logger *slog.Logger, fn func(Config)) error {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		path = DefaultPath
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("config path %s: %w", path, err)
	}
	expanded = filepath.Clean(expanded)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(expanded)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(expanded), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != expanded || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			cfg, err := Load(expanded)
			if err != nil {
				logger.Error("reload config", "path", expanded, "err", err)
				continue
			}
			logger.Info("config reloaded", "path", expanded)
			fn(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("config watcher", "err", err)
		}
	}
}
