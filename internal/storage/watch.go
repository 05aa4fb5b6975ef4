package storage

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Change kinds reported by Watch.
const (
	ChangeWritten = "written"
	ChangeRemoved = "removed"
)

// ChangeCallback is called for every key whose backing file changed.
type ChangeCallback func(kind, key string)

// Watch observes the FS data directory and reports key-level changes until
// ctx is cancelled. Writes made by this process are reported as well; the
// callback must tolerate its own echoes.
func Watch(ctx context.Context, fs *FS, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(fs.root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", fs.root))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			key := filepath.Base(ev.Name)
			if strings.HasPrefix(key, tmpPrefix) || ValidateKey(key) != nil {
				continue
			}

			var kind string
			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				kind = ChangeWritten
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				kind = ChangeRemoved
			default:
				continue
			}
			logger.Debug("watcher: key changed", slog.String("key", key), slog.String("op", kind))
			if cb != nil {
				cb(kind, key)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: error", slog.String("error", err.Error()))
		}
	}
}
