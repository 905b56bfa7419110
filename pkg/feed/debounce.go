package feed

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// SearchDelay is the keystroke quiescence before a search runs.
const SearchDelay = 400 * time.Millisecond

// Debouncer runs only the last of a burst of calls, delay after it.
type Debouncer struct {
	clock clockwork.Clock
	delay time.Duration

	mu      sync.Mutex
	pending clockwork.Timer
}

func NewDebouncer(clock clockwork.Clock, delay time.Duration) *Debouncer {
	return &Debouncer{clock: clock, delay: delay}
}

// Call cancels the pending fn, if any, and schedules this one.
func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
	}
	d.pending = d.clock.AfterFunc(d.delay, fn)
}

// Stop drops the pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}
