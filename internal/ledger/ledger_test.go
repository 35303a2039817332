package ledger

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ohmyhungrygod/gameclient/internal/game"
)

func TestRecordDeduplicatesWithinCooldown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := New(clock, 500*time.Millisecond)

	if got := l.Record("fruit-1", game.KindBanana); got != Accepted {
		t.Fatalf("first detection = %s, want Accepted", got)
	}
	clock.Advance(100 * time.Millisecond)
	if got := l.Record("fruit-1", game.KindBanana); got != Duplicate {
		t.Fatalf("second detection = %s, want Duplicate", got)
	}
	clock.Advance(100 * time.Millisecond)
	if got := l.Record("fruit-1", game.KindBanana); got != Duplicate {
		t.Fatalf("third detection = %s, want Duplicate", got)
	}
}

func TestRecordAcceptsAgainAfterCooldown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := New(clock, 500*time.Millisecond)

	l.Record("fruit-1", game.KindPeach)
	clock.Advance(500 * time.Millisecond)

	// Cool-down expiry runs on its own goroutine; poll briefly.
	deadline := time.Now().Add(time.Second)
	for l.Record("fruit-1", game.KindPeach) != Accepted {
		if time.Now().After(deadline) {
			t.Fatal("detection still Duplicate after cool-down expired")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestDistinctObjectsAreIndependent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := New(clock, 500*time.Millisecond)

	for _, id := range []string{"a", "b", "c"} {
		if got := l.Record(id, game.KindCoconut); got != Accepted {
			t.Fatalf("detection of %q = %s, want Accepted", id, got)
		}
	}
	if got := l.Len(); got != 3 {
		t.Fatalf("len = %d, want 3", got)
	}
}

func TestClearAllowsEarlyReacceptance(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := New(clock, time.Hour)

	l.Record("fruit-1", game.KindWatermelon)
	l.Clear("fruit-1")
	if got := l.Record("fruit-1", game.KindWatermelon); got != Accepted {
		t.Fatalf("post-clear detection = %s, want Accepted", got)
	}

	// Clearing an unknown id is a no-op.
	l.Clear("never-seen")
}

func TestResetCancelsCooldowns(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := New(clock, 500*time.Millisecond)

	l.Record("a", game.KindBanana)
	l.Record("b", game.KindPeach)
	l.Reset()

	if got := l.Len(); got != 0 {
		t.Fatalf("len after reset = %d, want 0", got)
	}
	// Advancing past the old cool-downs must not panic or resurrect state.
	clock.Advance(time.Second)
	if got := l.Record("a", game.KindBanana); got != Accepted {
		t.Fatalf("detection after reset = %s, want Accepted", got)
	}
}
