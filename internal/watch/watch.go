// Package watch is the thin external-watcher demo named in spec.md §1:
// an fsnotify loop over a configured incoming directory, invoking a
// callback once per new file instead of requiring an operator to run
// `ingestpipe run` by hand. Grounded on the teacher's
// internal/sync/observer_local.go FsWatcher abstraction and watch loop,
// stripped to file-creation events only — this package has no baseline
// to diff against, unlike the teacher's full local/remote reconciler.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"
)

// FsWatcher abstracts filesystem event monitoring, satisfied by
// *fsnotify.Watcher; tests inject a fake.
type FsWatcher interface {
	Add(name string) error
	Close() error
	Events() <-chan fsnotify.Event
	Errors() <-chan error
}

type fsnotifyWrapper struct{ w *fsnotify.Watcher }

func (fw *fsnotifyWrapper) Add(name string) error         { return fw.w.Add(name) }
func (fw *fsnotifyWrapper) Close() error                  { return fw.w.Close() }
func (fw *fsnotifyWrapper) Events() <-chan fsnotify.Event { return fw.w.Events }
func (fw *fsnotifyWrapper) Errors() <-chan error          { return fw.w.Errors }

func newFsnotifyWatcher() (FsWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &fsnotifyWrapper{w: w}, nil
}

// Watcher watches incomingDir for newly-created files and invokes onFile
// for each one, in the order fsnotify delivers them.
type Watcher struct {
	incomingDir    string
	logger         *slog.Logger
	watcherFactory func() (FsWatcher, error)
}

// New constructs a Watcher rooted at incomingDir.
func New(incomingDir string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{incomingDir: incomingDir, logger: logger, watcherFactory: newFsnotifyWatcher}
}

// Run blocks until ctx is cancelled, calling onFile once for every file
// that appears under incomingDir. onFile errors are logged, not fatal —
// one bad submission must not stop the watch loop from seeing the next.
func (w *Watcher) Run(ctx context.Context, onFile func(ctx context.Context, path string) error) error {
	if err := os.MkdirAll(w.incomingDir, 0o755); err != nil {
		return fmt.Errorf("watch: creating incoming dir: %w", err)
	}

	watcher, err := w.watcherFactory()
	if err != nil {
		return fmt.Errorf("watch: creating filesystem watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.incomingDir); err != nil {
		return fmt.Errorf("watch: adding watch on %s: %w", w.incomingDir, err)
	}

	w.logger.Info("watch loop started", "incoming_dir", w.incomingDir)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events():
			if !ok {
				return nil
			}

			if !isNewFile(ev) {
				continue
			}

			w.logger.Info("new submission detected", "path", ev.Name)

			if err := onFile(ctx, ev.Name); err != nil {
				w.logger.Error("handling submission failed", "path", ev.Name, "error", err)
			}

		case err, ok := <-watcher.Errors():
			if !ok {
				return nil
			}

			w.logger.Error("watcher error", "error", err)
		}
	}
}

// isNewFile reports whether ev represents a file appearing in the
// watched directory: a Create event, which fsnotify also delivers for a
// file renamed into place. Write, Rename, Remove and Chmod events alone
// are ignored.
func isNewFile(ev fsnotify.Event) bool {
	return ev.Op&fsnotify.Create == fsnotify.Create
}
