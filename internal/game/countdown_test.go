package game

import (
	"testing"
	"time"
)

func TestCountdownRemaining(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var c Countdown
	if c.Active() {
		t.Fatal("zero countdown must be inactive")
	}
	if got := c.Remaining(base); got != 0 {
		t.Fatalf("inactive remaining = %s, want 0", got)
	}

	c.Reconcile(base.Add(30 * time.Second))
	if got := c.Remaining(base); got != 30*time.Second {
		t.Fatalf("remaining = %s, want 30s", got)
	}
	// Recomputed from the clock, so a large jump (suspension) does not drift.
	if got := c.Remaining(base.Add(29 * time.Second)); got != time.Second {
		t.Fatalf("remaining = %s, want 1s", got)
	}
	if got := c.Remaining(base.Add(time.Minute)); got != 0 {
		t.Fatalf("past deadline remaining = %s, want 0", got)
	}
}

func TestCountdownReconcileOverwrites(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var c Countdown
	c.Reconcile(base.Add(10 * time.Second))
	c.Reconcile(base.Add(45 * time.Second))
	if got := c.Remaining(base); got != 45*time.Second {
		t.Fatalf("remaining = %s, want 45s", got)
	}

	c.Clear()
	if c.Active() || c.Remaining(base) != 0 {
		t.Fatal("cleared countdown must be inactive")
	}
}
