package game

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func testRoster() []Player {
	return []Player{
		{ID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), Name: "ana", Connected: true, Ready: true},
		{ID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), Name: "bo", Connected: true, Ready: false},
		{ID: uuid.MustParse("33333333-3333-3333-3333-333333333333"), Name: "cy", Connected: false, Ready: false},
	}
}

func TestApplySnapshotReplacesEverything(t *testing.T) {
	roomID := uuid.New()
	var r Room
	r.ApplySnapshot(roomID, PhaseLobby, testRoster())

	if r.ID != roomID {
		t.Fatalf("room id = %s, want %s", r.ID, roomID)
	}
	if r.Phase != PhaseLobby {
		t.Fatalf("phase = %s, want Lobby", r.Phase)
	}
	if len(r.Players) != 3 {
		t.Fatalf("roster size = %d, want 3", len(r.Players))
	}

	// A later snapshot with a smaller roster fully replaces the old one.
	r.ApplySnapshot(roomID, PhaseInGame, testRoster()[:1])
	if len(r.Players) != 1 || r.Phase != PhaseInGame {
		t.Fatalf("snapshot did not replace state: %d players, phase %s", len(r.Players), r.Phase)
	}
}

func TestApplySnapshotIdempotent(t *testing.T) {
	roomID := uuid.New()
	var a, b Room
	a.ApplySnapshot(roomID, PhaseCountdown, testRoster())
	b.ApplySnapshot(roomID, PhaseCountdown, testRoster())
	b.ApplySnapshot(roomID, PhaseCountdown, testRoster())

	if !reflect.DeepEqual(a, b) {
		t.Fatalf("double application diverged:\n%+v\n%+v", a, b)
	}
}

func TestApplyPhaseChange(t *testing.T) {
	var r Room
	r.ApplySnapshot(uuid.New(), PhaseLobby, nil)

	if !r.ApplyPhaseChange(PhaseLobby, PhaseCountdown) {
		t.Fatal("Lobby -> Countdown should be applied")
	}
	if r.Phase != PhaseCountdown {
		t.Fatalf("phase = %s, want Countdown", r.Phase)
	}

	// Event inconsistent with the current phase is ignored.
	if r.ApplyPhaseChange(PhaseLobby, PhaseCountdown) {
		t.Fatal("stale phase change should be rejected")
	}
	// Unreachable transition is ignored.
	if r.ApplyPhaseChange(PhaseCountdown, PhaseResults) {
		t.Fatal("Countdown -> Results is not in the transition graph")
	}
	if r.Phase != PhaseCountdown {
		t.Fatalf("rejected transitions must not mutate phase, got %s", r.Phase)
	}
}

func TestPhaseTransitionGraph(t *testing.T) {
	cases := []struct {
		old, next RoomPhase
		ok        bool
	}{
		{PhaseWelcome, PhaseLobby, true},
		{PhaseLobby, PhaseCountdown, true},
		{PhaseCountdown, PhaseInGame, true},
		{PhaseCountdown, PhaseLobby, true},
		{PhaseInGame, PhaseGameOver, true},
		{PhaseGameOver, PhaseResults, true},
		{PhaseResults, PhaseClosed, true},
		{PhaseInGame, PhaseClosed, true},
		{PhaseLobby, PhaseInGame, false},
		{PhaseResults, PhaseLobby, false},
		{PhaseClosed, PhaseLobby, false},
	}
	for _, tc := range cases {
		if got := tc.old.CanTransitionTo(tc.next); got != tc.ok {
			t.Errorf("%s -> %s = %v, want %v", tc.old, tc.next, got, tc.ok)
		}
	}
}

func TestRosterCounts(t *testing.T) {
	var r Room
	r.ApplySnapshot(uuid.New(), PhaseLobby, testRoster())
	if got := r.ConnectedCount(); got != 2 {
		t.Errorf("connected = %d, want 2", got)
	}
	if got := r.ReadyCount(); got != 1 {
		t.Errorf("ready = %d, want 1", got)
	}
}
