package tristate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches a file and emits its contents on every change.
//
// The parent directory is watched rather than the file itself, so files
// that are replaced atomically (written elsewhere and renamed into place)
// or created after Watch is called are still observed. Removing or
// renaming the file away emits nil.
type FileWatcher struct {
	path string
}

// NewFileWatcher creates a FileWatcher for the given file path.
func NewFileWatcher(path string) *FileWatcher {
	return &FileWatcher{path: filepath.Clean(path)}
}

// Watch begins watching and returns a channel of file contents. The current
// contents are emitted immediately; nothing is emitted initially if the
// file does not exist yet.
func (w *FileWatcher) Watch(ctx context.Context) (<-chan []byte, error) {
	events, err := watchParent(ctx, w.path)
	if err != nil {
		return nil, err
	}

	out := make(chan []byte)
	go func() {
		defer close(out)

		send := func(data []byte) bool {
			select {
			case out <- data:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if data, err := os.ReadFile(w.path); err == nil {
			if !send(data) {
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case op, ok := <-events:
				if !ok {
					return
				}
				if op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					if _, err := os.Stat(w.path); errors.Is(err, fs.ErrNotExist) {
						if !send(nil) {
							return
						}
						continue
					}
				}
				if op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				data, err := os.ReadFile(w.path)
				if err != nil {
					continue
				}
				if !send(data) {
					return
				}
			}
		}
	}()

	return out, nil
}

// FilePresence returns a condition that is True while path exists and
// False while it does not.
func FilePresence(path string) *Condition {
	path = filepath.Clean(path)
	return New(MonitorFunc(func(ctx context.Context, c *Condition) {
		events, err := watchParent(ctx, path)
		if err != nil {
			c.reportSourceError(ctx, "watch", err)
			return
		}

		report := func() {
			_, err := os.Stat(path)
			c.report(ctx, Of(err == nil))
		}

		report()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				report()
			}
		}
	})).Named("file:" + filepath.Base(path))
}

// watchParent watches the directory containing path and forwards the
// operations that concern path itself. Watcher errors are skipped.
func watchParent(ctx context.Context, path string) (<-chan fsnotify.Op, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	out := make(chan fsnotify.Op)
	go func() {
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				select {
				case out <- event.Op:
				case <-ctx.Done():
					return
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return out, nil
}

var _ Watcher = (*FileWatcher)(nil)
