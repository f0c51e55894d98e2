package webhook

import (
	"sync"
	"time"
)

// DefaultDebounceWindow is how long stock webhook deliveries are absorbed
// after an accepted one. The provider redelivers stock events in bursts; one
// resync per burst is enough.
const DefaultDebounceWindow = 30 * time.Second

// Debouncer admits at most one acceptance per window. It is shared
// process-wide state and safe for concurrent use.
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	last   time.Time

	now func() time.Time
}

// NewDebouncer creates a debouncer with the given window. A non-positive
// window falls back to DefaultDebounceWindow.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{
		window: window,
		now:    time.Now,
	}
}

// TryAccept reports whether the caller won the current window. The first call
// after the window elapses wins and resets it; every other call loses.
func (d *Debouncer) TryAccept() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if !d.last.IsZero() && now.Sub(d.last) < d.window {
		return false
	}
	d.last = now
	return true
}
