// Package timer provides the phase countdown the interactive UI drives.
package timer

import (
	"sync"

	"github.com/xvierd/studyflow/internal/ports"
)

// Countdown counts whole seconds down to zero. It has no clock of its own:
// the host calls Tick once a second, which keeps it deterministic in tests.
type Countdown struct {
	mu         sync.Mutex
	total      int
	remaining  int
	running    bool
	paused     bool
	fired      bool
	onComplete func()
}

// Ensure Countdown implements ports.Countdown.
var _ ports.Countdown = (*Countdown)(nil)

// New creates a stopped countdown of seconds.
func New(seconds int) *Countdown {
	c := &Countdown{}
	c.Reset(seconds)
	return c
}

// Start begins counting. Starting a finished countdown does nothing.
func (c *Countdown) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fired || c.remaining == 0 {
		return
	}
	c.running = true
	c.paused = false
}

// Pause stops counting, keeping the remaining time.
func (c *Countdown) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		c.paused = true
	}
}

// Resume continues a paused countdown.
func (c *Countdown) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		c.paused = false
	}
}

// Reset stops the countdown and arms it for a new duration.
func (c *Countdown) Reset(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	c.total = seconds
	c.remaining = seconds
	c.running = false
	c.paused = false
	c.fired = false
}

// Skip ends the countdown now and fires the completion callback.
func (c *Countdown) Skip() {
	c.mu.Lock()
	c.remaining = 0
	fn := c.finishLocked()
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Tick removes one second from a running, unpaused countdown. The callback
// runs outside the lock so it may Reset and Start the next phase.
func (c *Countdown) Tick() {
	c.mu.Lock()
	if !c.running || c.paused || c.remaining == 0 {
		c.mu.Unlock()
		return
	}
	c.remaining--
	var fn func()
	if c.remaining == 0 {
		fn = c.finishLocked()
	}
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// finishLocked stops the countdown and returns the callback to fire, or nil
// when it already fired for this duration.
func (c *Countdown) finishLocked() func() {
	c.running = false
	c.paused = false
	if c.fired {
		return nil
	}
	c.fired = true
	return c.onComplete
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Running returns true between Start and reaching zero.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Paused returns true while a running countdown is paused.
func (c *Countdown) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Progress returns the elapsed share of the duration.
func (c *Countdown) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.total == 0 {
		return 1
	}
	return float64(c.total-c.remaining) / float64(c.total)
}

// OnComplete sets the callback fired when the countdown reaches zero.
func (c *Countdown) OnComplete(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onComplete = fn
}
