// Package watcher observes the corpus directory and triggers a reindex
// callback when its contents settle after a burst of changes.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the directory must stay quiet before the
// callback fires. Editors emit several events per save; debouncing folds
// them into one reindex.
const DefaultDebounce = 2 * time.Second

// Watcher watches one corpus directory.
type Watcher struct {
	dir      string
	debounce time.Duration
	onChange func()

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	running bool
	doneCh  chan struct{}
}

// New creates a watcher for dir. onChange is invoked from the watcher's
// goroutine after events settle; it must be safe to call repeatedly.
func New(dir string, debounce time.Duration, onChange func()) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		onChange: onChange,
	}, nil
}

// Start begins watching. Non-blocking; returns once the underlying
// watcher is registered. Stop or context cancellation ends the loop.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		return err
	}

	w.fsw = fsw
	w.running = true
	w.doneCh = make(chan struct{})

	go w.loop(ctx)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.doneCh)

	// The timer starts stopped; any event re-arms it.
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			slog.Debug("corpus event",
				slog.String("path", event.Name),
				slog.String("op", event.Op.String()))
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("corpus watch error", slog.String("error", err.Error()))

		case <-timer.C:
			w.onChange()
		}
	}
}

// Stop ends the watch loop and releases the underlying watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false
	_ = w.fsw.Close()
	<-w.doneCh
}
