package watch

import (
	"sync"
	"time"
)

// Debouncer collapses rapid writes to the same transcript file into a single
// emission after a quiet window. Assistant tools append to their JSONL logs
// continuously during a session, so the window is generous.
type Debouncer struct {
	window time.Duration
	emit   func(path string)

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

// NewDebouncer creates a Debouncer that waits for `window` of silence on a
// given path before emitting it.
func NewDebouncer(window time.Duration, emit func(path string)) *Debouncer {
	return &Debouncer{
		window: window,
		emit:   emit,
		timers: make(map[string]*time.Timer),
	}
}

// Feed receives a path. If a timer already exists for it, the timer is
// reset; otherwise a new one is started.
func (d *Debouncer) Feed(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if t, ok := d.timers[path]; ok {
		t.Reset(d.window)
		return
	}

	d.timers[path] = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		_, ok := d.timers[path]
		delete(d.timers, path)
		d.mu.Unlock()
		if ok {
			d.emit(path)
		}
	})
}

// Stop cancels all pending timers and immediately emits their paths.
// After Stop returns, subsequent Feed calls are no-ops.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true

	var toEmit []string
	for path, t := range d.timers {
		t.Stop()
		toEmit = append(toEmit, path)
	}
	d.timers = nil
	d.mu.Unlock()

	// Emit outside the lock to avoid potential deadlocks in callbacks.
	for _, path := range toEmit {
		d.emit(path)
	}
}
