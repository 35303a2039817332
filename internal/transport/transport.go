// Package transport defines the engine-facing contract for the bidirectional
// channel to the game server. Adapters own connecting, retry and backoff;
// the engine only consumes delivered events and lifecycle transitions and
// issues the four calls below.
package transport

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ohmyhungrygod/gameclient/internal/events"
	"github.com/ohmyhungrygod/gameclient/internal/game"
)

// State describes the connection lifecycle as reported by an adapter.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateReconnecting:
		return "Reconnecting"
	}
	return "Unknown"
}

// ErrNotConnected is returned by calls issued while the channel is down.
// Callers treat it as transient and may retry; the engine never does.
var ErrNotConnected = errors.New("transport: not connected")

// JoinResult is the server's answer to a join request.
type JoinResult struct {
	RoomID   uuid.UUID `json:"roomId"`
	PlayerID uuid.UUID `json:"playerId"`
	Name     string    `json:"name"`
}

// Connection is the contract every transport adapter satisfies.
type Connection interface {
	// Events delivers inbound event envelopes in arrival order. An adapter
	// may close the channel once the connection is closed for good, but
	// consumers must not rely on it and stop reading via their own
	// cancellation.
	Events() <-chan events.Envelope

	// States reports connection lifecycle transitions.
	States() <-chan State

	// JoinRoom joins a room by its join code and returns the confirmed
	// identity.
	JoinRoom(ctx context.Context, code, playerName string) (JoinResult, error)

	// SetReady toggles the local player's lobby readiness.
	SetReady(ctx context.Context, roomID uuid.UUID, ready bool) error

	// ReportHit reports one locally-detected hit. The reportID makes the
	// report idempotent server-side.
	ReportHit(ctx context.Context, roomID, reportID uuid.UUID, kind game.ItemKind) error

	// Heartbeat tells the server the player is still present.
	Heartbeat(ctx context.Context, roomID uuid.UUID) error

	// Close tears the channel down. Pending calls fail with ErrNotConnected.
	Close() error
}
