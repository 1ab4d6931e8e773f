package settings

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 1500 * time.Millisecond

// Watcher watches the settings file and notifies handlers with freshly
// loaded settings after changes settle. Editors that replace the file on
// save emit create events, so both write and create are handled.
type Watcher struct {
	store    *Store
	base     Settings
	debounce time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	handlers []func(Settings)

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewWatcher creates a watcher over store. base supplies the values for
// fields missing from the file, same as Store.Load.
func NewWatcher(store *Store, base Settings, logger *slog.Logger) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		store:    store,
		base:     base,
		debounce: defaultDebounce,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetDebounce overrides the debounce interval. For tests.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// OnChange registers a handler called with the reloaded settings.
func (w *Watcher) OnChange(handler func(Settings)) {
	w.mu.Lock()
	w.handlers = append(w.handlers, handler)
	w.mu.Unlock()
}

// Start begins watching. The settings file must exist.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.store.Path()); err != nil {
		watcher.Close()
		return err
	}
	w.watcher = watcher
	w.logger.Info("Settings watcher started", "path", w.store.Path())
	go w.loop()
	return nil
}

// Stop ends watching and releases the inotify handle.
func (w *Watcher) Stop() error {
	w.cancel()
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

func (w *Watcher) loop() {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Settings watcher error", "error", err)
		}
	}
}

// reload loads fresh from disk so handlers never see stale data.
func (w *Watcher) reload() {
	loaded, err := w.store.Load(w.base)
	if err != nil {
		w.logger.Warn("Failed to reload settings", "error", err)
		return
	}

	w.mu.Lock()
	handlers := make([]func(Settings), len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.Unlock()

	w.logger.Info("Settings file changed")
	for _, handler := range handlers {
		handler(loaded)
	}
}
