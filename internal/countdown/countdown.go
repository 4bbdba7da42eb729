// Package countdown implements the one-second assessment clock.
//
// A Countdown does not schedule anything itself. The owner delivers ticks
// (in the TUI, via tea.Tick) and tags each scheduled tick with the
// generation returned by Start. Stop and Start bump the generation so ticks
// scheduled earlier are ignored when they arrive.
package countdown

import "fmt"

// Generation identifies one run of the clock.
type Generation uint64

// Countdown tracks the remaining seconds of an attempt.
type Countdown struct {
	remaining int
	active    bool
	expired   bool
	gen       Generation
}

// Start arms the clock with seconds remaining and returns the generation
// that ticks must carry.
func (c *Countdown) Start(seconds int) Generation {
	c.gen++
	c.remaining = seconds
	c.expired = false
	c.active = seconds > 0
	if seconds <= 0 {
		c.remaining = 0
		c.expired = true
	}
	return c.gen
}

// Stop cancels the clock. No tick will report expiry afterwards.
func (c *Countdown) Stop() {
	c.gen++
	c.active = false
}

// Tick advances the clock by one second if gen is current.
// It returns true exactly once: on the tick that brings the clock to zero.
func (c *Countdown) Tick(gen Generation) bool {
	if gen != c.gen || !c.active || c.expired {
		return false
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining <= 0 {
		c.remaining = 0
		c.active = false
		c.expired = true
		return true
	}
	return false
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int { return c.remaining }

// Active reports whether the clock is ticking.
func (c *Countdown) Active() bool { return c.active }

// Expired reports whether the clock has reached zero.
func (c *Countdown) Expired() bool { return c.expired }

// Generation returns the current generation.
func (c *Countdown) Generation() Generation { return c.gen }

// Reset returns the clock to its zero state.
func (c *Countdown) Reset() {
	c.gen++
	c.remaining = 0
	c.active = false
	c.expired = false
}

// Format renders seconds as m:ss, or h:mm:ss past an hour.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
