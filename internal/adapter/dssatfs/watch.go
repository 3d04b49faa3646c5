package dssatfs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Reloader is implemented by caches that can be refreshed from disk.
type Reloader interface {
	Reload() error
}

// WatchFile calls r.Reload whenever the file at path is written, created or
// renamed into place. The parent directory is watched so that editors which
// replace the file are noticed. WatchFile blocks until ctx is cancelled.
func WatchFile(ctx context.Context, path string, r Reloader, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	dir, name := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("watching file for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := r.Reload(); err != nil {
				logger.Warn("reload after file change failed", "path", path, "op", event.Op.String(), "error", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("file watcher error", "path", path, "error", err)
		}
	}
}
