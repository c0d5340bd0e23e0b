package fixture

import (
	"context"
	"path/filepath"
	"time"

	"contentnav/internal/debounce"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the burst of events editors emit on save.
const reloadDebounce = 100 * time.Millisecond

// Watch reloads the repository whenever the fixture file at path changes,
// then calls onReload. It blocks until ctx is done. A file that fails to
// parse is logged and the previous contents are kept.
func (r *Repository) Watch(ctx context.Context, path string, onReload func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: editors often replace the file instead of writing it
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	target := filepath.Clean(path)
	debouncer := debounce.New(reloadDebounce)
	defer debouncer.Cancel()

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
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			debouncer.Trigger(func() {
				if err := r.Reload(path); err != nil {
					r.logger.Error("fixture reload failed", "path", path, "error", err)
					return
				}
				r.logger.Info("fixture reloaded", "path", path)
				if onReload != nil {
					onReload()
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Error("watcher error", "error", err)
		}
	}
}

// Reload replaces the repository contents with the fixture at path.
func (r *Repository) Reload(path string) error {
	tree, err := ParseFile(path)
	if err != nil {
		return err
	}
	r.replace(tree)
	return nil
}
