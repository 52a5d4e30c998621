package docstore

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDebounce is how long Watch waits for writes to settle before
// reloading.
var WatchDebounce = 50 * time.Millisecond

// Watch drops the cached document whenever the primary file changes on disk
// and, when onChange is non-nil, hands it the reloaded document. The
// directory is watched rather than the file since saves replace the file.
// Watch blocks until ctx is done.
func (e *Engine[T]) Watch(ctx context.Context, onChange func(T)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return e.storeErr(OpWatch, e.loc.Dir(), err)
	}
	defer watcher.Close()
	if err := watcher.Add(e.loc.Dir()); err != nil {
		return e.storeErr(OpWatch, e.loc.Dir(), err)
	}

	primary := filepath.Clean(e.loc.Primary)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != primary {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				timer.Reset(WatchDebounce)
			}
		case <-timer.C:
			e.Invalidate()
			e.record(ctx, outcome{op: OpWatch, detail: "primary changed on disk"})
			if onChange != nil {
				onChange(e.Load())
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.record(ctx, outcome{op: OpWatch, err: err})
		}
	}
}
