// Package watch regenerates code when operation documents or the schema
// change on disk.
package watch

import (
	"slices"
	"sync"
	"time"
)

// MaxPending caps the number of distinct paths held before a flush is forced,
// so a bulk checkout cannot grow the pending set without bound.
const MaxPending = 1000

// Debouncer coalesces bursts of file events into one batch. Editors that
// write a file several times per save, or a formatter touching many files,
// produce a single flush once the window passes quietly.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	window  time.Duration
	onFlush func(paths []string)
	stopped bool
}

// NewDebouncer returns a debouncer that calls onFlush with the sorted set of
// paths seen during a quiet window.
func NewDebouncer(window time.Duration, onFlush func(paths []string)) *Debouncer {
	return &Debouncer{
		pending: make(map[string]struct{}),
		window:  window,
		onFlush: onFlush,
	}
}

// Add records a change to path and restarts the window.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}

	d.pending[path] = struct{}{}
	if d.timer != nil {
		// A timer that already fired finds an empty set and does nothing.
		d.timer.Stop()
		d.timer = nil
	}

	if len(d.pending) >= MaxPending {
		paths := d.drainLocked()
		d.mu.Unlock()
		d.emit(paths)
		return
	}

	d.timer = time.AfterFunc(d.window, d.fire)
	d.mu.Unlock()
}

// Stop flushes what is pending and ignores later calls to Add.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	paths := d.drainLocked()
	d.mu.Unlock()

	d.emit(paths)
}

// fire runs when the window expires.
func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	paths := d.drainLocked()
	d.mu.Unlock()

	d.emit(paths)
}

// drainLocked empties the pending set. Caller must hold d.mu.
func (d *Debouncer) drainLocked() []string {
	if len(d.pending) == 0 {
		return nil
	}
	paths := make([]string, 0, len(d.pending))
	for p := range d.pending {
		paths = append(paths, p)
	}
	clear(d.pending)
	slices.Sort(paths)
	return paths
}

// emit runs the callback without holding the lock.
func (d *Debouncer) emit(paths []string) {
	if len(paths) == 0 || d.onFlush == nil {
		return
	}
	d.onFlush(paths)
}
