package watcher

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

const eventChannelBuffer = 100

// DefaultDebounceWindow is the quiet period after which a burst of events is delivered.
const DefaultDebounceWindow = 100 * time.Millisecond

// Watcher watches a source tree with fsnotify. Directories matching an ignore pattern
// are neither watched nor reported.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	ignores   []string
	logger    ports.Logger
	root      string
	debouncer *Debouncer
	events    chan ports.WatchEvent
	done      chan struct{}

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// NewWatcher creates a watcher delivering coalesced events after window.
func NewWatcher(logger ports.Logger, window time.Duration, ignores ...string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create file watcher")
	}
	w := &Watcher{
		fsWatcher: fsWatcher,
		ignores:   ignores,
		logger:    logger,
		events:    make(chan ports.WatchEvent, eventChannelBuffer),
		done:      make(chan struct{}),
	}
	w.debouncer = NewDebouncer(window, w.emit)
	return w, nil
}

// Start begins watching root recursively.
func (w *Watcher) Start(ctx context.Context, root string) error {
	w.root = root

	for dir := range w.directories(root) {
		if err := w.fsWatcher.Add(dir); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to watch directory"), "path", dir)
		}
	}

	go w.processEvents(ctx)
	return nil
}

// Stop releases the underlying watcher. Events() ends once pending deliveries finish.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// Events returns an iterator of coalesced file system events.
func (w *Watcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

// directories yields root and every directory below it that is not ignored.
func (w *Watcher) directories(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable directories are not watched
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && w.ignored(path) {
				return fs.SkipDir
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// ignored reports whether any component of path below the root matches an ignore pattern.
func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	for part := range strings.SplitSeq(filepath.ToSlash(rel), "/") {
		if slices.ContainsFunc(w.ignores, func(pattern string) bool {
			matched, _ := filepath.Match(pattern, part)
			return matched
		}) {
			return true
		}
	}
	return false
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.ignored(event.Name) {
				continue
			}
			watchEvent, ok := convertEvent(event)
			if !ok {
				continue
			}
			w.debouncer.Add(watchEvent)

			if watchEvent.Operation == ports.OpCreate {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					for dir := range w.directories(event.Name) {
						_ = w.fsWatcher.Add(dir)
					}
				}
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error: " + err.Error())
		}
	}
}

// emit forwards a debounced batch to the event channel unless the watcher shut down.
func (w *Watcher) emit(batch []ports.WatchEvent) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.inflight.Add(1)
	w.mu.Unlock()
	defer w.inflight.Done()

	for _, event := range batch {
		select {
		case w.events <- event:
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) shutdown() {
	w.debouncer.Stop()

	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	close(w.done)
	w.inflight.Wait()
	close(w.events)
}

func convertEvent(event fsnotify.Event) (ports.WatchEvent, bool) {
	var op ports.WatchOp
	switch {
	case event.Has(fsnotify.Write):
		op = ports.OpWrite
	case event.Has(fsnotify.Create):
		op = ports.OpCreate
	case event.Has(fsnotify.Remove):
		op = ports.OpRemove
	case event.Has(fsnotify.Rename):
		op = ports.OpRename
	default:
		return ports.WatchEvent{}, false
	}
	return ports.WatchEvent{Path: event.Name, Operation: op}, true
}
