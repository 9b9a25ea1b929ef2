package config

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config file whenever it changes on disk and hands each
// successfully loaded Config to apply. A file that fails to load keeps the
// previously applied config; apply is only ever called with a valid one.
// Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, apply func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	slog.Info("config: watching", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Atomic saves show up as Create (rename over the old file), not
			// Write, so both count as a change.
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Load(path)
			if err != nil {
				slog.Error("config: reload rejected, previous config stays active",
					"path", path, "err", err)
				continue
			}
			slog.Info("config: reloaded", "path", path)
			apply(cfg)

			// An atomic save replaces the inode; re-arm the watch on the new one.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watch error", "err", err)
		}
	}
}
