// Package watch notices episode and wiki page files that change outside
// the app and re-syncs the owning project.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/muvel/internal/storage"
)

// SyncFunc reconciles one novel with its files.
type SyncFunc func(ctx context.Context, novelID string) error

// SyncedFunc is called after a successful watcher-driven sync.
type SyncedFunc func(novelID string)

// Watcher watches the episodes/ and wiki/ folders of registered projects.
// Bursts of events for one novel are collapsed into a single sync after
// the debounce delay.
type Watcher struct {
	fw       *fsnotify.Watcher
	sync     SyncFunc
	onSynced SyncedFunc
	debounce time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	dirs   map[string]string // watched dir -> novel id
	roots  map[string]string // novel id -> project root
	timers map[string]*time.Timer

	fired     chan string
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a watcher. Call Run to start processing events.
func New(syncFn SyncFunc, onSynced SyncedFunc, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		fw:       fw,
		sync:     syncFn,
		onSynced: onSynced,
		debounce: debounce,
		logger:   logger,
		dirs:     make(map[string]string),
		roots:    make(map[string]string),
		timers:   make(map[string]*time.Timer),
		fired:    make(chan string, 64),
		done:     make(chan struct{}),
	}, nil
}

// Add starts watching the project of novelID at root. Adding the same
// novel again with a new root moves the watch.
func (w *Watcher) Add(novelID, root string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	root = filepath.Clean(root)
	if old, ok := w.roots[novelID]; ok {
		if old == root {
			return nil
		}
		w.removeLocked(novelID)
	}

	var errs []error
	for _, name := range []string{storage.EpisodesDir, storage.WikiDir} {
		dir := filepath.Join(root, name)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := w.fw.Add(dir); err != nil {
			errs = append(errs, err)
			continue
		}
		w.dirs[dir] = novelID
	}
	w.roots[novelID] = root
	w.logger.Debug("watcher: project added", slog.String("novel_id", novelID), slog.String("root", root))
	return errors.Join(errs...)
}

// Remove stops watching a novel.
func (w *Watcher) Remove(novelID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.removeLocked(novelID)
}

func (w *Watcher) removeLocked(novelID string) {
	for dir, id := range w.dirs {
		if id != novelID {
			continue
		}
		_ = w.fw.Remove(dir)
		delete(w.dirs, dir)
	}
	delete(w.roots, novelID)
	if t, ok := w.timers[novelID]; ok {
		t.Stop()
		delete(w.timers, novelID)
	}
}

// Watching reports how many novels are watched.
func (w *Watcher) Watching() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.roots)
}

// Run processes file events until ctx is cancelled, then closes the
// underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.close()
	w.logger.Info("watcher: started", slog.Int("projects", w.Watching()))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher: stopped")
			return nil

		case novelID := <-w.fired:
			w.runSync(ctx, novelID)

		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", err.Error()))
		}
	}
}

// handle schedules a sync when ev touches a document file. Temp files of
// the atomic writer are ignored; their rename shows up as a create of the
// real name.
func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	switch filepath.Ext(ev.Name) {
	case "." + storage.EpisodeExt, "." + storage.WikiPageExt:
	default:
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	novelID, ok := w.dirs[filepath.Dir(ev.Name)]
	if !ok {
		return
	}
	if t, ok := w.timers[novelID]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[novelID] = time.AfterFunc(w.debounce, func() {
		w.fire(novelID)
	})
}

// fire hands a debounced novel to Run. It drops the novel once Run has
// stopped.
func (w *Watcher) fire(novelID string) {
	select {
	case w.fired <- novelID:
	case <-w.done:
	}
}

func (w *Watcher) runSync(ctx context.Context, novelID string) {
	w.mu.Lock()
	delete(w.timers, novelID)
	_, watched := w.roots[novelID]
	w.mu.Unlock()
	if !watched {
		return
	}

	if err := w.sync(ctx, novelID); err != nil {
		w.logger.Warn("watcher: sync failed", slog.String("novel_id", novelID), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: synced", slog.String("novel_id", novelID))
	if w.onSynced != nil {
		w.onSynced(novelID)
	}
}

func (w *Watcher) close() {
	w.closeOnce.Do(func() { close(w.done) })
	w.mu.Lock()
	for id, t := range w.timers {
		t.Stop()
		delete(w.timers, id)
	}
	w.mu.Unlock()
	_ = w.fw.Close()
}
