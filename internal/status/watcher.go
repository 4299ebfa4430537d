package status

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/twistedxcom/woodeye/internal/logging"
)

var watchLog = logging.ForComponent(logging.CompWatch)

// debounceWindow coalesces bursts of file events into one notification.
// Several hook events firing in quick succession must collapse to a single
// "re-query now" signal, not one per file.
const debounceWindow = 150 * time.Millisecond

// ChangeWatcher watches the status directory for filesystem events and
// raises a single coalesced notification per burst. It is constructed once,
// owned by the composition root, and lives until process shutdown.
type ChangeWatcher struct {
	dir     string
	watcher *fsnotify.Watcher

	notifyCh chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// NewChangeWatcher creates a watcher for the status directory, creating the
// directory if absent. Call Start to begin watching.
func NewChangeWatcher(dir string) (*ChangeWatcher, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create status dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &ChangeWatcher{
		dir:      dir,
		watcher:  watcher,
		notifyCh: make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start registers the directory watch (non-recursive; only direct children
// matter) and begins delivering notifications. An unwatchable directory is
// fatal to starting and reported once; there are no internal retries.
func (w *ChangeWatcher) Start() error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	go w.loop()
	return nil
}

// Notifications returns the channel that signals "re-query current status
// now". The channel carries no payload and at least one notification follows
// any burst of changes within the debounce window.
func (w *ChangeWatcher) Notifications() <-chan struct{} {
	return w.notifyCh
}

// Stop shuts down the watcher. Normally only called at process exit.
func (w *ChangeWatcher) Stop() {
	w.cancel()
	_ = w.watcher.Close()
}

func (w *ChangeWatcher) loop() {
	var debounceTimer *time.Timer
	var debounceMu sync.Mutex

	fire := func() {
		select {
		case w.notifyCh <- struct{}{}:
		default:
			// A notification is already pending; coalesce.
		}
	}

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// Only status file churn matters, not tmp-file noise.
			if filepath.Ext(event.Name) != ".json" {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			debounceMu.Lock()
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceWindow, fire)
			debounceMu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			watchLog.Warn("status_watcher_error", slog.String("error", err.Error()))
		}
	}
}
