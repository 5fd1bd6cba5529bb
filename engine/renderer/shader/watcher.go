package shader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses the burst of events an editor emits for a single save.
const DefaultDebounce = 100 * time.Millisecond

// watcher is the implementation of the Watcher interface.
type watcher struct {
	lib      Library
	fs       *fsnotify.Watcher
	log      *zap.Logger
	debounce time.Duration

	onReload func(*Program)
	onError  func(error)

	closeOnce sync.Once
}

// Watcher reloads library programs when their WGSL files change on disk.
type Watcher interface {
	// Run processes file events until ctx is cancelled or Close is called.
	//
	// Parameters:
	//   - ctx: cancels the event loop
	//
	// Returns:
	//   - error: ctx.Err() on cancellation, nil after Close
	Run(ctx context.Context) error

	// Close stops watching.
	Close() error
}

var _ Watcher = &watcher{}

// NewWatcher watches the directory of every program currently loaded in lib.
// onReload and onError run on the watcher goroutine; callers that touch render state
// must hand the result to the render goroutine themselves.
//
// Parameters:
//   - lib: the library to reload from
//   - onReload: receives each successfully reloaded program
//   - onError: receives reload and watch errors
//   - log: the logger; nil disables logging
//
// Returns:
//   - Watcher: the watcher
//   - error: error if the OS watcher cannot be created or a directory cannot be added
func NewWatcher(lib Library, onReload func(*Program), onError func(error), log *zap.Logger) (Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create shader watcher: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	w := &watcher{
		lib:      lib,
		fs:       fsw,
		log:      log.Named("shader"),
		debounce: DefaultDebounce,
		onReload: onReload,
		onError:  onError,
	}
	for _, key := range lib.Keys() {
		if err := fsw.Add(filepath.Join(lib.Dir(), key)); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to watch shader program %s: %w", key, err)
		}
	}
	return w, nil
}

func (w *watcher) Run(ctx context.Context) error {
	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".wgsl") {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			pending[filepath.Base(filepath.Dir(event.Name))] = true
			timer.Reset(w.debounce)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.report(err)
		case <-timer.C:
			for key := range pending {
				w.reload(key)
			}
			clear(pending)
		}
	}
}

func (w *watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.fs.Close()
	})
	return err
}

func (w *watcher) reload(key string) {
	p, err := w.lib.Reload(key)
	if err != nil {
		w.report(err)
		return
	}
	w.log.Info("shader program reloaded", zap.String("program", key))
	if w.onReload != nil {
		w.onReload(p)
	}
}

func (w *watcher) report(err error) {
	if errors.Is(err, fsnotify.ErrEventOverflow) {
		w.log.Warn("shader watcher overflow", zap.Error(err))
	} else {
		w.log.Error("shader reload failed", zap.Error(err))
	}
	if w.onError != nil {
		w.onError(err)
	}
}
