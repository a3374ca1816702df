// Package watch reports debounced changes to SQL files.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a burst of events is reported.
const DefaultDebounce = 100 * time.Millisecond

// Options configures Run.
type Options struct {
	// Debounce is the quiet period. Zero means DefaultDebounce.
	Debounce time.Duration
	Logger   *slog.Logger
}

// Run watches paths until ctx is cancelled and calls onChange with the last
// changed *.sql file of every burst. Directories are watched recursively;
// a file path watches its parent directory. Paths that cannot be watched
// are logged and skipped.
func Run(ctx context.Context, paths []string, onChange func(name string), opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	for _, p := range paths {
		if err := addRecursive(watcher, p); err != nil {
			logger.Error("failed to watch path", "path", p, "error", err)
		}
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !IsSQLChange(event) {
				continue
			}
			logger.Debug("file event", "file", event.Name, "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			name := event.Name
			timer = time.AfterFunc(debounce, func() {
				if ctx.Err() == nil {
					onChange(name)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)
		}
	}
}

// IsSQLChange reports whether an event modifies a *.sql file.
func IsSQLChange(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return strings.EqualFold(filepath.Ext(event.Name), ".sql")
}

func addRecursive(watcher *fsnotify.Watcher, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return watcher.Add(filepath.Dir(path))
	}
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(p)
		}
		return nil
	})
}
