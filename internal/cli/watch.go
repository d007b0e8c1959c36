package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/yaklabco/asmbridge/internal/logging"
	"github.com/yaklabco/asmbridge/pkg/fsutil"
)

// defaultDebounce is how long the watcher waits for changes to settle.
const defaultDebounce = 200 * time.Millisecond

type watchOptions struct {
	// Paths are the user-specified files or directories. Empty means the
	// working directory.
	Paths      []string
	WorkingDir string
	Delay      time.Duration
}

// watch runs fn once and again after every settled burst of file system
// changes under opts.Paths. It returns when ctx is done. Errors from fn
// are logged; ErrIssuesFound is expected between edits and not logged.
func watch(ctx context.Context, opts watchOptions, fn func(context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	logger := logging.FromContext(ctx)

	roots := opts.Paths
	if len(roots) == 0 {
		roots = []string{"."}
	}
	for _, root := range roots {
		if !filepath.IsAbs(root) {
			root = filepath.Join(opts.WorkingDir, root)
		}
		if err := addWatchTree(watcher, root); err != nil {
			return err
		}
	}

	logger.Info("watching for changes", logging.FieldPaths, roots)

	seen := &contentFilter{snapshots: make(map[string]*fsutil.Snapshot)}
	changes := make(chan struct{}, 1)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(changes)
		for {
			select {
			case <-gctx.Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if err := addWatchTree(watcher, event.Name); err != nil {
							logger.Warn("cannot watch directory", logging.FieldPath, event.Name, logging.FieldError, err)
						}
					}
				}
				if seen.changed(gctx, event) {
					notify(changes)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Warn("watch error", logging.FieldError, err)
			}
		}
	})

	g.Go(func() error {
		runOnce(gctx, fn)
		for range debounce(gctx, changes, opts.Delay) {
			runOnce(gctx, fn)
		}
		return nil
	})

	return g.Wait()
}

// contentFilter drops events that leave a file's content as it was, such
// as a touch or a save without edits. It is used from one goroutine.
type contentFilter struct {
	snapshots map[string]*fsutil.Snapshot
}

func (f *contentFilter) changed(ctx context.Context, event fsnotify.Event) bool {
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		delete(f.snapshots, event.Name)
		return true
	}

	if prev, ok := f.snapshots[event.Name]; ok {
		if changed, err := fsutil.Changed(ctx, prev); err == nil && !changed {
			return false
		}
	}

	_, snap, err := fsutil.ReadFile(ctx, event.Name)
	if err != nil {
		delete(f.snapshots, event.Name)
		return true
	}
	f.snapshots[event.Name] = snap
	return true
}

func runOnce(ctx context.Context, fn func(context.Context) error) {
	err := fn(ctx)
	if err == nil || errors.Is(err, ErrIssuesFound) || ctx.Err() != nil {
		return
	}
	logging.FromContext(ctx).Error("check failed", logging.FieldError, err)
}

// notify performs a non-blocking send.
func notify(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// debounce forwards one signal for each burst on in. A burst ends after
// delay passes without another signal. The returned channel is closed once
// in is closed or ctx is done.
func debounce(ctx context.Context, in <-chan struct{}, delay time.Duration) <-chan struct{} {
	out := make(chan struct{})

	go func() {
		defer close(out)

		timer := time.NewTimer(delay)
		if !timer.Stop() {
			<-timer.C
		}
		pending := false

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-in:
				if !ok {
					return
				}
				timer.Reset(delay)
				pending = true
			case <-timer.C:
				if !pending {
					continue
				}
				pending = false
				select {
				case out <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// addWatchTree watches root and, for directories, every non-hidden
// directory below it. fsnotify watches are not recursive.
func addWatchTree(watcher *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	if !info.IsDir() {
		if err := watcher.Add(root); err != nil {
			return fmt.Errorf("watch %s: %w", root, err)
		}
		return nil
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
