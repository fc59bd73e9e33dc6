package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultWatchDebounce = 250 * time.Millisecond

// Watcher reloads config.toml whenever it changes on disk. The parent
// directory is watched so editors that replace the file via rename are seen.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(CoreConfig)
	onError  func(error)

	watcher  *fsnotify.Watcher
	stopOnce sync.Once
	done     chan struct{}
}

type WatcherOption func(*Watcher)

func WithWatchDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

func WithWatchErrors(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

func NewWatcher(path string, onChange func(CoreConfig), opts ...WatcherOption) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("config watcher: change handler is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("config watcher: watch %s: %w", filepath.Dir(abs), err)
	}
	w := &Watcher{
		path:     abs,
		debounce: defaultWatchDebounce,
		onChange: onChange,
		watcher:  fsw,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

func (w *Watcher) Run(ctx context.Context) {
	var (
		timer  *time.Timer
		reload <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			reload = timer.C
		case <-reload:
			reload = nil
			cfg, err := LoadCoreConfigFromPath(w.path)
			if err != nil {
				w.reportError(err)
				continue
			}
			w.onChange(cfg)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.reportError(err)
		}
	}
}

func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) reportError(err error) {
	if w.onError != nil && err != nil {
		w.onError(err)
	}
}
