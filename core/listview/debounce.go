package listview

import (
	"sync"
	"time"
)

// Debouncer delays values until they have been stable for a quiet period, then emits the
// latest one. Superseded values are dropped. Safe for concurrent use; emit runs on a timer
// goroutine (or on the caller's goroutine for Flush).
type Debouncer[T any] struct {
	quiet time.Duration
	emit  func(T)

	mu      sync.Mutex
	timer   *time.Timer
	seq     uint64 // bumped on every Set/Flush/Stop; stale timers compare against it
	pending T
	armed   bool
}

func NewDebouncer[T any](quiet time.Duration, emit func(T)) *Debouncer[T] {
	return &Debouncer[T]{quiet: quiet, emit: emit}
}

// Set records v as the latest value and restarts the quiet period.
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	seq := d.seq
	d.pending, d.armed = v, true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() { d.fire(seq) })
}

func (d *Debouncer[T]) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq || !d.armed {
		d.mu.Unlock()
		return
	}
	v := d.take()
	d.mu.Unlock()

	d.emit(v)
}

// Flush emits the pending value now, if any.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if !d.armed {
		d.mu.Unlock()
		return
	}
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
	}
	v := d.take()
	d.mu.Unlock()

	d.emit(v)
}

// Stop discards the pending value without emitting it.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	if d.timer != nil {
		d.timer.Stop()
	}
	d.take()
}

// Pending reports whether a value is waiting for the quiet period to elapse.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

// take must be called with mu held.
func (d *Debouncer[T]) take() T {
	var zero T
	v := d.pending
	d.pending, d.armed = zero, false
	return v
}
