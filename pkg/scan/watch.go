package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/gitscroll/pkg/tree"
)

// DefaultDebounce is how long Watch waits after the last filesystem event
// before rescanning.
const DefaultDebounce = 250 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	Debounce time.Duration

	// OnError receives rescan and watcher errors. Watch keeps running after
	// reporting them.
	OnError func(error)
}

// Watch rescans dir whenever its content changes and sends each new
// snapshot on out. Snapshots whose fingerprint equals the last one sent
// (or the initial scan) are dropped. Watch blocks until ctx is done and
// never closes out.
func (b *Builder) Watch(ctx context.Context, dir string, out chan<- *tree.Snapshot, opts WatchOptions) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	report := opts.OnError
	if report == nil {
		report = func(error) {}
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	initial, err := b.Build(ctx, abs)
	if err != nil {
		return err
	}
	last := initial.Fingerprint

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := b.addWatches(w, abs); err != nil {
		return err
	}

	// The timer starts stopped; each event re-arms it.
	timer := time.NewTimer(time.Hour)
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
			if b.Ignored(filepath.Base(ev.Name)) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Lstat(ev.Name); err == nil && fi.IsDir() {
					if err := b.addWatches(w, ev.Name); err != nil {
						report(err)
					}
				}
			}
			timer.Reset(opts.Debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			report(err)

		case <-timer.C:
			snap, err := b.Build(ctx, abs)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				report(err)
				continue
			}
			if snap.Fingerprint == last {
				continue
			}
			select {
			case out <- snap:
				last = snap.Fingerprint
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// addWatches registers root and every non-ignored directory below it.
// fsnotify does not watch recursively.
func (b *Builder) addWatches(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && b.Ignored(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
