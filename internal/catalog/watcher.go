package catalog

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/zeromicro/go-zero/core/logx"
)

// reloadDelay coalesces the burst of events editors emit on save
const reloadDelay = 200 * time.Millisecond

// Watcher reloads a Store whenever its catalog file changes
type Watcher struct {
	watcher *fsnotify.Watcher
	store   *Store
	path    string
	// OnReload is called after every reload attempt; nil err means success. Optional.
	OnReload func(err error)
}

// NewWatcher creates a watcher for a file-backed store.
// The parent directory is watched so atomic rename-on-save is picked up.
func NewWatcher(store *Store, path string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	return &Watcher{watcher: w, store: store, path: abs}, nil
}

// Run blocks until ctx is cancelled or the watcher is closed
func (w *Watcher) Run(ctx context.Context) {
	logger := logx.WithContext(ctx)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
			} else {
				timer.Reset(reloadDelay)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			err := w.store.Reload(ctx)
			if err != nil {
				logger.Errorf("catalog reload failed, keeping previous snapshot: %v", err)
			}
			if w.OnReload != nil {
				w.OnReload(err)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Errorf("catalog watcher: %v", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != w.path {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}

// Stop releases the underlying watcher
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}
