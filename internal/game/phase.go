package game

// RoomPhase is the coarse phase of a multiplayer room. The wire
// representation is the server's integer enum.
type RoomPhase int

const (
	PhaseWelcome RoomPhase = iota
	PhaseLobby
	PhaseCountdown
	PhaseInGame
	PhaseGameOver
	PhaseResults
	PhaseClosed
)

// phaseTransitions is the fixed forward-only transition graph. Closing a
// room is reachable from any phase; a countdown can fall back to the lobby
// when a player un-readies before the match starts.
var phaseTransitions = map[RoomPhase][]RoomPhase{
	PhaseWelcome:   {PhaseLobby, PhaseClosed},
	PhaseLobby:     {PhaseCountdown, PhaseClosed},
	PhaseCountdown: {PhaseInGame, PhaseLobby, PhaseClosed},
	PhaseInGame:    {PhaseGameOver, PhaseClosed},
	PhaseGameOver:  {PhaseResults, PhaseClosed},
	PhaseResults:   {PhaseClosed},
}

// Valid reports whether p is one of the defined phases.
func (p RoomPhase) Valid() bool {
	return p >= PhaseWelcome && p <= PhaseClosed
}

// CanTransitionTo reports whether the graph permits moving from p to next.
func (p RoomPhase) CanTransitionTo(next RoomPhase) bool {
	for _, n := range phaseTransitions[p] {
		if n == next {
			return true
		}
	}
	return false
}

func (p RoomPhase) String() string {
	switch p {
	case PhaseWelcome:
		return "Welcome"
	case PhaseLobby:
		return "Lobby"
	case PhaseCountdown:
		return "Countdown"
	case PhaseInGame:
		return "InGame"
	case PhaseGameOver:
		return "GameOver"
	case PhaseResults:
		return "Results"
	case PhaseClosed:
		return "Closed"
	}
	return "Unknown"
}
