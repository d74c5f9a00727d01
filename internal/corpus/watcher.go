package corpus

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"scorekit/internal/logging"
)

// Watcher keeps the index in sync with a directory as files change.
// Rapid saves are debounced so an editor writing in bursts triggers one
// re-extraction.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	index       Indexer
	root        string
	extensions  []string
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats WatcherStats
}

// WatcherStats tracks watcher activity for debugging.
type WatcherStats struct {
	FilesChanged  int
	FilesDeleted  int
	Reindexed     int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
}

// NewWatcher creates a watcher over root, feeding the given index.
func NewWatcher(root string, index Indexer, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	return &Watcher{
		watcher:     fsw,
		index:       index,
		root:        root,
		extensions:  []string{".xml", ".musicxml", ".mxl"},
		debounceMap: make(map[string]time.Time),
		debounceDur: debounce,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching root and its subdirectories. Non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// fsnotify does not recurse, so register every subdirectory.
	err := filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") && path != w.root {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			logging.Get(logging.CategoryCorpus).Warn("Watcher: failed to watch %s: %v", path, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logging.Corpus("Watcher: watching %s", w.root)

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryCorpus).Error("Watcher: error closing: %v", err)
	}
	logging.Corpus("Watcher: stopped")
}

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() WatcherStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Corpus("Watcher: context cancelled")
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryCorpus).Error("Watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-debounceTicker.C:
			w.processDebounced()
		}
	}
}

func (w *Watcher) isScoreFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// New directories need their own watch.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !strings.HasPrefix(info.Name(), ".") {
				if err := w.watcher.Add(event.Name); err == nil {
					logging.CorpusDebug("Watcher: added directory %s", event.Name)
				}
			}
			return
		}
	}

	if !w.isScoreFile(event.Name) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	logging.CorpusDebug("Watcher: %s event for %s", event.Op, event.Name)

	w.mu.Lock()
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		w.stats.FilesDeleted++
	} else {
		w.stats.FilesChanged++
	}
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

// processDebounced reindexes paths whose events have settled past the
// debounce window.
func (w *Watcher) processDebounced() {
	w.mu.Lock()
	now := time.Now()
	var toProcess []string
	for path, eventTime := range w.debounceMap {
		if now.Sub(eventTime) >= w.debounceDur {
			toProcess = append(toProcess, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for _, path := range toProcess {
		w.reindex(path)
	}
}

func (w *Watcher) reindex(path string) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Corpus("Watcher: removing deleted file %s", path)
			if err := w.index.Remove(path); err != nil {
				logging.Get(logging.CategoryCorpus).Error("Watcher: remove %s: %v", path, err)
				w.bumpErrors()
			}
			return
		}
		logging.Get(logging.CategoryCorpus).Error("Watcher: stat %s: %v", path, err)
		w.bumpErrors()
		return
	}

	md, err := Extract(path)
	if err != nil {
		logging.Get(logging.CategoryCorpus).Warn("Watcher: extraction failed for %s: %v", path, err)
		if markErr := w.index.MarkError(path, info.Size(), info.ModTime().Unix(), err); markErr != nil {
			logging.Get(logging.CategoryCorpus).Error("Watcher: mark error %s: %v", path, markErr)
		}
		w.bumpErrors()
		return
	}
	if err := w.index.Upsert(md); err != nil {
		logging.Get(logging.CategoryCorpus).Error("Watcher: upsert %s: %v", path, err)
		w.bumpErrors()
		return
	}

	w.mu.Lock()
	w.stats.Reindexed++
	w.mu.Unlock()
	logging.Corpus("Watcher: reindexed %s", path)
}

func (w *Watcher) bumpErrors() {
	w.mu.Lock()
	w.stats.Errors++
	w.mu.Unlock()
}
