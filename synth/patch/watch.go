package patch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period Watch waits for after the last change
// before reloading.
const DefaultDebounce = 100 * time.Millisecond

// Watch reloads the patch at path every time it is written or created and
// passes the result to fn. A burst of events within
// debounce collapses into one reload. Load failures and watcher errors are
// passed to fn as well; they never stop the watch.
//
// The parent directory is watched rather than the file itself so editors
// that save by rename keep being tracked. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, debounce time.Duration, fn func(*File, error)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("patch: watch: %w", err)
	}
	defer w.Close()

	target := filepath.Clean(path)

	err = w.Add(filepath.Dir(target))
	if err != nil {
		return fmt.Errorf("patch: watch %s: %w", path, err)
	}

	timer := time.NewTimer(debounce)
	timer.Stop()

	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(ev.Name) != target {
				continue
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}

			fn(nil, fmt.Errorf("patch: watch %s: %w", path, err))

		case <-timer.C:
			fn(Load(path))
		}
	}
}
