package game

import (
	"github.com/google/uuid"
)

// Player is one roster entry. Players are never invented locally; the
// roster only changes through authoritative room events.
type Player struct {
	ID        uuid.UUID `json:"playerId"`
	Name      string    `json:"name"`
	Connected bool      `json:"isConnected"`
	Ready     bool      `json:"isReady"`
}

// Room tracks the coarse game phase and the player roster for the joined
// room. Mutated only by authoritative server events.
type Room struct {
	ID      uuid.UUID
	Phase   RoomPhase
	Players []Player
}

// ApplySnapshot replaces the room identity, phase and roster wholesale.
// Snapshots are always authoritative; full replacement is what resolves any
// reordering or loss of intermediate roster events, so application is
// idempotent and total.
func (r *Room) ApplySnapshot(roomID uuid.UUID, phase RoomPhase, players []Player) {
	r.ID = roomID
	r.Phase = phase
	r.Players = append(r.Players[:0:0], players...)
}

// ApplyPhaseChange applies an advisory fast-path phase notification.
// It reports false when the event is inconsistent with the current phase or
// names an unreachable transition; the caller logs and waits for the next
// snapshot instead of applying an invalid transition.
func (r *Room) ApplyPhaseChange(old, next RoomPhase) bool {
	if r.Phase != old {
		return false
	}
	if !r.Phase.CanTransitionTo(next) {
		return false
	}
	r.Phase = next
	return true
}

// ConnectedCount returns the number of currently connected players.
func (r *Room) ConnectedCount() int {
	n := 0
	for _, p := range r.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

// ReadyCount returns the number of players flagged ready.
func (r *Room) ReadyCount() int {
	n := 0
	for _, p := range r.Players {
		if p.Ready {
			n++
		}
	}
	return n
}

// Reset returns the room to its zero state. Used on session teardown.
func (r *Room) Reset() {
	*r = Room{}
}

// RosterCopy returns an independent copy of the roster for read views.
func (r *Room) RosterCopy() []Player {
	if len(r.Players) == 0 {
		return nil
	}
	return append([]Player(nil), r.Players...)
}
