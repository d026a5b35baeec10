package viewer

import (
	"context"
	"path/filepath"
	"time"

	"github.com/edaniels/golog"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/ohnishi-git-dev/CloudPeek/pointcloud"
)

// ReloadFunc parses the watched file and returns the batch that should
// replace the displayed cloud.
type ReloadFunc func(path string) (pointcloud.Batch, error)

// watchDebounce is how long writes may settle before a reload; editors and
// exporters produce bursts of events per save.
const watchDebounce = 250 * time.Millisecond

// WatchFile watches path and swaps the viewer's points whenever the file
// is rewritten. It blocks until ctx is canceled or the viewer stops.
// Reload failures are logged, not fatal: a half-written file just keeps
// the previous cloud on screen.
func WatchFile(ctx context.Context, path string, v *Viewer, reload ReloadFunc, logger golog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "cannot create file watcher")
	}
	defer utils.UncheckedErrorFunc(watcher.Close)

	// Watch the directory: editors often replace the file inode on save,
	// which a watch on the file itself would lose.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return errors.Wrapf(err, "cannot watch %q", dir)
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !utils.SelectContextOrWait(ctx, watchDebounce) {
				return ctx.Err()
			}
			drainPending(watcher)

			batch, err := reload(path)
			if err != nil {
				logger.Errorw("reload failed, keeping previous points", "path", path, "error", err)
				continue
			}
			v.SetPoints(batch)
			logger.Infow("reloaded points", "path", path, "points", len(batch))
			if !v.IsRunning() {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Errorw("file watch error", "error", err)
		}
	}
}

// drainPending collapses the rest of an event burst so one save triggers
// one reload.
func drainPending(watcher *fsnotify.Watcher) {
	for {
		select {
		case <-watcher.Events:
		default:
			return
		}
	}
}
