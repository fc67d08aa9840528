package source

import (
	"context"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits for file activity to
// settle before rescanning.
const DefaultDebounce = 300 * time.Millisecond

// ChangeFunc receives the result of a rescan.
type ChangeFunc func(ctx context.Context, found []Discovered, err error)

// Watcher rescans a Dir whenever a manifest below it changes.
type Watcher struct {
	dir      *Dir
	debounce time.Duration
	onChange ChangeFunc
	logger   *zap.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	timer   *time.Timer
	ctx     context.Context
	cancel  context.CancelFunc
	stopped sync.WaitGroup // event loop and scheduled rescans

	rescanMu sync.Mutex // one rescan at a time
}

// NewWatcher creates a watcher for dir. A non-positive debounce uses
// DefaultDebounce.
func NewWatcher(dir *Dir, debounce time.Duration, onChange ChangeFunc, logger *zap.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
	}
}

// Start watches the root and every plugin directory below it until ctx is
// done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.dir.Root); err != nil {
		fsw.Close()
		return err
	}
	_ = filepath.WalkDir(w.dir.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() || path == w.dir.Root {
			return nil
		}
		if addErr := fsw.Add(path); addErr != nil {
			w.logger.Warn("cannot watch plugin directory", zap.String("path", path), zap.Error(addErr))
		}
		return filepath.SkipDir
	})

	w.mu.Lock()
	w.fsw = fsw
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	w.stopped.Add(1)
	go w.loop(w.ctx, fsw)

	w.logger.Info("watching plugin directory", zap.String("root", w.dir.Root))
	return nil
}

// Stop ends the watch and waits for the event loop and any running rescan
// to finish. A pending rescan is dropped, so onChange is never called after
// Stop returns.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return nil
	}
	w.cancel()
	w.cancel = nil
	if w.timer != nil {
		if w.timer.Stop() {
			w.stopped.Done()
		}
		w.timer = nil
	}
	fsw := w.fsw
	w.fsw = nil
	w.mu.Unlock()

	err := fsw.Close()
	w.stopped.Wait()
	return err
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer w.stopped.Done()
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handle(fsw, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("plugin watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(fsw *fsnotify.Watcher, event fsnotify.Event) {
	// New plugin directories need their own watch to see plugin.json.
	if event.Has(fsnotify.Create) && filepath.Dir(event.Name) == filepath.Clean(w.dir.Root) {
		if err := fsw.Add(event.Name); err == nil {
			w.logger.Debug("watching new plugin directory", zap.String("path", event.Name))
		}
	}

	if filepath.Base(event.Name) != ManifestFile && filepath.Dir(event.Name) != filepath.Clean(w.dir.Root) {
		return
	}
	w.schedule()
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel == nil {
		return
	}
	if w.timer != nil && w.timer.Stop() {
		w.stopped.Done()
	}
	ctx := w.ctx
	w.stopped.Add(1)
	w.timer = time.AfterFunc(w.debounce, func() {
		defer w.stopped.Done()
		w.rescan(ctx)
	})
}

func (w *Watcher) rescan(ctx context.Context) {
	w.rescanMu.Lock()
	defer w.rescanMu.Unlock()

	if ctx.Err() != nil {
		return
	}
	found, err := w.dir.Discover(ctx)
	if ctx.Err() != nil {
		return
	}
	w.logger.Info("plugin directory changed, rescanned",
		zap.String("root", w.dir.Root), zap.Int("found", len(found)))
	if w.onChange != nil {
		w.onChange(ctx, found, err)
	}
}
