// SPDX-License-Identifier: EPL-2.0

package config

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls fn with the new configuration every time the file at path
// changes to valid content that differs from the last seen version. An
// invalid edit is logged and skipped; the previous configuration stays in
// effect. Watch blocks until ctx is done.
//
// The parent directory is watched rather than the file, so editors that
// save by renaming over the original are followed.
func Watch(ctx context.Context, path string, fn func(*Config), log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	path = filepath.Clean(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: create fsnotify watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("config: watch %q: %w", path, err)
	}

	var last [sha256.Size]byte
	if data, err := os.ReadFile(path); err == nil {
		last = sha256.Sum256(data)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			data, err := os.ReadFile(path)
			if err != nil {
				log.Warn("config watcher: cannot read file", "path", path, "err", err)
				continue
			}
			// A truncate-then-write save shows up as an empty file first.
			if len(bytes.TrimSpace(data)) == 0 {
				continue
			}
			hash := sha256.Sum256(data)
			if hash == last {
				continue
			}

			cfg, err := LoadFromReader(bytes.NewReader(data))
			if err != nil {
				log.Warn("config watcher: ignoring invalid config", "path", path, "err", err)
				continue
			}
			cfg.resolvePaths(filepath.Dir(path))
			last = hash

			log.Info("config watcher: configuration reloaded", "path", path)
			fn(cfg)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watcher: error", "err", err)
		}
	}
}
