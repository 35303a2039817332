// Package events defines the closed set of inbound server events the client
// understands and the envelope they arrive in. Dispatch is a type switch
// over the sealed Payload interface, so an event type the engine forgets to
// handle is a compile-time hole, not a silently ignored callback.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ohmyhungrygod/gameclient/internal/game"
)

// Type enumerates every inbound event, keyed by the server's method name.
type Type string

const (
	TypeRoomSnapshot       Type = "StateSnapshot"
	TypeRoomStateUpdated   Type = "RoomStateUpdated"
	TypeRoomPhaseChanged   Type = "GamePhaseChanged"
	TypeCountdownStarted   Type = "CountdownStarted"
	TypeOrderStarted       Type = "OrderStarted"
	TypeOrderTotalsUpdated Type = "OrderTotalsUpdated"
	TypeOrderResolved      Type = "OrderResolved"
	TypeSessionFinished    Type = "GameFinished"
	TypeSessionAborted     Type = "GameOver"
	TypeProtocolError      Type = "Error"
)

// ErrUnknownType marks an envelope whose type is not part of the event set.
var ErrUnknownType = errors.New("unknown event type")

// Envelope is the wire frame common to all pushed events.
type Envelope struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Payload is the sealed union of decoded event payloads.
type Payload interface {
	isPayload()
}

// PlayerState is a roster entry as carried in room events.
type PlayerState struct {
	PlayerID  uuid.UUID `json:"playerId"`
	Name      string    `json:"name"`
	Connected bool      `json:"isConnected"`
	Ready     bool      `json:"isReady"`
}

// OrderState is the current order as carried inside a snapshot.
type OrderState struct {
	OrderID   uuid.UUID             `json:"orderId"`
	Required  map[game.ItemKind]int `json:"required"`
	Submitted map[game.ItemKind]int `json:"submitted"`
	StartsAt  time.Time             `json:"startsAt"`
	EndsAt    time.Time             `json:"endsAt"`
	Status    game.OrderStatus      `json:"status"`
}

// RoomSnapshot is the full authoritative state dump. It supersedes all
// previously buffered partial state.
type RoomSnapshot struct {
	RoomID       uuid.UUID      `json:"roomId"`
	Phase        game.RoomPhase `json:"state"`
	Mood         int            `json:"mood"`
	CurrentOrder *OrderState    `json:"currentOrder,omitempty"`
	OrderIndex   int            `json:"orderIndex"`
	OrderEndsAt  *time.Time     `json:"orderEndsAt,omitempty"`
	Players      []PlayerState  `json:"players"`
}

// RoomStateUpdated is the roster refresh pushed on lobby churn: joins,
// disconnects and ready toggles. Carries the full roster plus the server's
// own counts, so application is a replacement, not a delta.
type RoomStateUpdated struct {
	RoomID         uuid.UUID      `json:"roomId"`
	Phase          game.RoomPhase `json:"state"`
	Players        []PlayerState  `json:"players"`
	ConnectedCount int            `json:"connectedCount"`
	ReadyCount     int            `json:"readyCount"`
}

// RoomPhaseChanged is the advisory fast-path phase notification.
type RoomPhaseChanged struct {
	RoomID uuid.UUID      `json:"roomId"`
	Old    game.RoomPhase `json:"oldState"`
	New    game.RoomPhase `json:"newState"`
}

// CountdownStarted announces the pre-game countdown.
type CountdownStarted struct {
	RoomID          uuid.UUID `json:"roomId"`
	StartsAt        time.Time `json:"startsAt"`
	DurationSeconds int       `json:"durationSeconds"`
}

// OrderStarted announces a new current order. It supersedes whatever order
// was active before, resolved or not.
type OrderStarted struct {
	OrderID         uuid.UUID             `json:"orderId"`
	OrderNumber     int                   `json:"orderNumber"`
	Required        map[game.ItemKind]int `json:"required"`
	EndsAt          time.Time             `json:"endsAt"`
	DurationSeconds int                   `json:"durationSeconds"`
}

// OrderTotalsUpdated carries the server's absolute submitted totals for one
// order. Absolute, not deltas.
type OrderTotalsUpdated struct {
	OrderID   uuid.UUID             `json:"orderId"`
	Submitted map[game.ItemKind]int `json:"submitted"`
	Timestamp time.Time             `json:"timestamp"`
}

// OrderResolved carries the server's terminal verdict for one order.
type OrderResolved struct {
	OrderID   uuid.UUID             `json:"orderId"`
	Status    game.OrderStatus      `json:"result"`
	Required  map[game.ItemKind]int `json:"required"`
	Submitted map[game.ItemKind]int `json:"submitted"`
	NewMood   int                   `json:"newMood"`
}

// PlayerStats is one player's contribution in the end-of-session summary.
type PlayerStats struct {
	Name                   string  `json:"name"`
	HitCount               int     `json:"hitCount"`
	ContributionPercentage float64 `json:"contributionPercentage"`
}

// SessionFinished is the terminal event for a session that ran to
// completion.
type SessionFinished struct {
	RoomID       uuid.UUID     `json:"roomId"`
	TotalOrders  int           `json:"totalOrders"`
	SuccessCount int           `json:"successCount"`
	FailCount    int           `json:"failCount"`
	FinalScore   int           `json:"finalScore"`
	FinalMood    int           `json:"finalMood"`
	PlayerStats  []PlayerStats `json:"playerStats"`
}

// SessionAborted is the terminal event for a session ended early by the
// server.
type SessionAborted struct {
	RoomID          uuid.UUID `json:"roomId"`
	Reason          string    `json:"reason"`
	CompletedOrders int       `json:"completedOrders"`
	SuccessCount    int       `json:"successCount"`
	FailCount       int       `json:"failCount"`
}

// ProtocolError is a server-reported protocol failure, surfaced to the user.
type ProtocolError struct {
	Message string `json:"message"`
}

func (RoomSnapshot) isPayload()       {}
func (RoomStateUpdated) isPayload()   {}
func (RoomPhaseChanged) isPayload()   {}
func (CountdownStarted) isPayload()   {}
func (OrderStarted) isPayload()       {}
func (OrderTotalsUpdated) isPayload() {}
func (OrderResolved) isPayload()      {}
func (SessionFinished) isPayload()    {}
func (SessionAborted) isPayload()     {}
func (ProtocolError) isPayload()      {}

// Parse decodes an envelope into its typed payload.
func Parse(env Envelope) (Payload, error) {
	switch env.Type {
	case TypeRoomSnapshot:
		var p RoomSnapshot
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return p, nil

	case TypeRoomStateUpdated:
		var p RoomStateUpdated
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return p, nil

	case TypeRoomPhaseChanged:
		var p RoomPhaseChanged
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return p, nil

	case TypeCountdownStarted:
		var p CountdownStarted
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return p, nil

	case TypeOrderStarted:
		var p OrderStarted
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return p, nil

	case TypeOrderTotalsUpdated:
		var p OrderTotalsUpdated
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return p, nil

	case TypeOrderResolved:
		var p OrderResolved
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return p, nil

	case TypeSessionFinished:
		var p SessionFinished
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return p, nil

	case TypeSessionAborted:
		var p SessionAborted
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return p, nil

	case TypeProtocolError:
		var p ProtocolError
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return p, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}
