// Package debounce runs a callback once a key has been quiet for a fixed
// interval.
package debounce

import (
	"sync"
	"time"
)

type pending struct {
	timer   *time.Timer
	version uint64
}

// Debouncer schedules at most one callback per key. Scheduling a key that
// already has a pending callback supersedes it: only the most recent
// callback runs, and only after the full delay has elapsed since it was
// scheduled.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	pending map[string]*pending
	version uint64
	stopped bool
	wg      sync.WaitGroup
}

// New creates a Debouncer with the given quiet period.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:   delay,
		pending: make(map[string]*pending),
	}
}

// Delay returns the quiet period.
func (d *Debouncer) Delay() time.Duration { return d.delay }

// Do schedules fn for key after the quiet period, replacing any callback
// still pending for key. Do is a no-op after Stop.
func (d *Debouncer) Do(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.cancelLocked(key)

	d.version++
	v := d.version
	p := &pending{version: v}
	d.wg.Add(1)
	p.timer = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.mu.Lock()
		cur, ok := d.pending[key]
		// A timer that fired while being replaced must not run.
		if !ok || cur.version != v {
			d.mu.Unlock()
			return
		}
		delete(d.pending, key)
		d.mu.Unlock()
		fn()
	})
	d.pending[key] = p
}

// Cancel drops the pending callback for key. It reports whether one was
// pending.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked(key)
}

func (d *Debouncer) cancelLocked(key string) bool {
	p, ok := d.pending[key]
	if !ok {
		return false
	}
	delete(d.pending, key)
	if p.timer.Stop() {
		d.wg.Done()
	}
	return true
}

// Pending reports whether key has a callback waiting to run.
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

// Stop cancels every pending callback and waits for callbacks that are
// already running to return. Callers must not hold locks that a running
// callback needs.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	for key := range d.pending {
		d.cancelLocked(key)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
