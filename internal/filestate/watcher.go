package filestate

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeHandler receives the ids of files that changed during one debounce
// window, deduplicated and sorted.
type ChangeHandler func(ids []string)

// DefaultDebounceWindow is how long the watcher waits for more changes before
// calling the handler.
const DefaultDebounceWindow = 200 * time.Millisecond

// Watcher reports writes to loaded files. It watches the directories
// holding the files, because editors commonly replace a file by renaming a
// temporary one over it.
type Watcher struct {
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	handler  ChangeHandler
	debounce time.Duration

	changes  chan string
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu      sync.RWMutex
	tracked map[string]bool
	dirs    map[string]int
}

// NewWatcher creates a watcher. A non-positive debounce uses
// DefaultDebounceWindow.
func NewWatcher(logger *slog.Logger, handler ChangeHandler, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounceWindow
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		logger:   logger,
		watcher:  fw,
		handler:  handler,
		debounce: debounce,
		changes:  make(chan string, 256),
		done:     make(chan struct{}),
		tracked:  make(map[string]bool),
		dirs:     make(map[string]int),
	}, nil
}

// Track starts reporting changes to the file with the given id.
func (w *Watcher) Track(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.tracked[id] {
		return nil
	}
	dir := filepath.Dir(id)
	if w.dirs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	w.tracked[id] = true
	return nil
}

// Untrack stops reporting changes to the file with the given id.
func (w *Watcher) Untrack(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.tracked[id] {
		return
	}
	delete(w.tracked, id)
	dir := filepath.Dir(id)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		if err := w.watcher.Remove(dir); err != nil {
			w.logger.Debug("Failed to stop watching directory.", "dir", dir, "error", err)
		}
	}
}

func (w *Watcher) isTracked(id string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.tracked[id]
}

// Start processes events until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(2)
	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
}

// Stop closes the watcher and waits for its goroutines to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
	})
	w.wg.Wait()
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()
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
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			id := filepath.Clean(event.Name)
			if !w.isTracked(id) {
				continue
			}
			select {
			case w.changes <- id:
			default:
				w.logger.Warn("Dropping file change, buffer full.", "file", id)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error.", "error", err)
		}
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	defer w.wg.Done()
	pending := make(map[string]bool)
	var timerC <-chan time.Time

	flush := func() {
		if len(pending) == 0 {
			return
		}
		ids := make([]string, 0, len(pending))
		for id := range pending {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		clear(pending)
		if w.handler != nil {
			w.handler(ids)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case id := <-w.changes:
			pending[id] = true
			if timerC == nil {
				timerC = time.After(w.debounce)
			}
		case <-timerC:
			timerC = nil
			flush()
		}
	}
}
