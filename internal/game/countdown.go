package game

import "time"

// Countdown is the locally-ticking display timer, reconciled against the
// authoritative deadline carried in order and countdown events. It is
// advisory display state only and never triggers order resolution.
type Countdown struct {
	deadline time.Time
}

// Reconcile overwrites the deadline with an authoritative value. Every
// inbound order-related event realigns the countdown this way.
func (c *Countdown) Reconcile(deadline time.Time) {
	c.deadline = deadline
}

// Clear stops the countdown association, e.g. when the current order
// resolves.
func (c *Countdown) Clear() {
	c.deadline = time.Time{}
}

// Active reports whether a deadline is set.
func (c *Countdown) Active() bool {
	return !c.deadline.IsZero()
}

// Remaining recomputes the display value from the wall clock on every call
// rather than decrementing a counter, so missed ticks (app suspension,
// scheduler hiccups) cause no drift. Clamped at zero.
func (c *Countdown) Remaining(now time.Time) time.Duration {
	if c.deadline.IsZero() {
		return 0
	}
	if d := c.deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Deadline returns the current authoritative deadline, zero when inactive.
func (c *Countdown) Deadline() time.Time {
	return c.deadline
}
