package config

import (
	"errors"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch observes the resolved config.toml for changes and invokes fn with
// the freshly loaded config after each write. This lets rendering options
// (format.raw, format.tools) apply to a running proxy without a restart.
//
// The returned stop function releases the watcher. Watch fails when no
// config path was resolved.
func (c *Configer) Watch(logger *zap.Logger, fn func(*Config)) (func(), error) {
	if c.targetPath == "" {
		return nil, errors.New("no config path to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file: editors and SaveConfig replace the
	// file, which would otherwise drop the watch.
	if err := watcher.Add(filepath.Dir(c.targetPath)); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != c.targetPath {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}

				cfg, err := c.LoadConfig()
				if err != nil {
					logger.Warn("config reload failed", zap.Error(err))
					continue
				}

				logger.Info("config reloaded", zap.String("path", c.targetPath))
				fn(cfg)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watch error", zap.Error(err))
			}
		}
	}()

	return func() { _ = watcher.Close() }, nil
}
