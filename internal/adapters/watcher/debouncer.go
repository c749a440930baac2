// Package watcher reports source tree changes for the watch loop.
package watcher

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"go.trai.ch/kiln/internal/core/ports"
)

// Debouncer coalesces rapid file system events into one batch per quiet window.
type Debouncer struct {
	mu       sync.Mutex
	pending  map[string]ports.WatchOp
	timer    *time.Timer
	window   time.Duration
	callback func(events []ports.WatchEvent)
	stopped  bool
}

// NewDebouncer creates a debouncer that calls callback once no event arrived for window.
func NewDebouncer(window time.Duration, callback func(events []ports.WatchEvent)) *Debouncer {
	return &Debouncer{
		pending:  make(map[string]ports.WatchOp),
		window:   window,
		callback: callback,
	}
}

// Add records an event and restarts the window. A later event for the same path
// replaces the earlier one.
func (d *Debouncer) Add(event ports.WatchEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.pending[event.Path] = event.Operation

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	d.timer = nil
	if d.stopped || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	batch := d.drain()
	d.mu.Unlock()

	if d.callback != nil {
		go d.callback(batch)
	}
}

// Flush delivers pending events immediately and blocks until the callback returns.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		if !d.timer.Stop() {
			// Already fired.
			d.mu.Unlock()
			return
		}
		d.timer = nil
	}
	batch := d.drain()
	d.mu.Unlock()

	if len(batch) > 0 && d.callback != nil {
		d.callback(batch)
	}
}

// Stop discards pending events. Later calls to Add are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	clear(d.pending)
}

// drain empties the pending set and returns it ordered by path. Callers hold mu.
func (d *Debouncer) drain() []ports.WatchEvent {
	batch := make([]ports.WatchEvent, 0, len(d.pending))
	for path, op := range d.pending {
		batch = append(batch, ports.WatchEvent{Path: path, Operation: op})
	}
	clear(d.pending)
	slices.SortFunc(batch, func(a, b ports.WatchEvent) int { return cmp.Compare(a.Path, b.Path) })
	return batch
}
