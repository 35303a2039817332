package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/ohmyhungrygod/gameclient/internal/game"
)

// Outcome classifies how a recorded session ended.
const (
	OutcomeFinished = "finished"
	OutcomeAborted  = "aborted"
	OutcomeOffline  = "offline"
)

// Record is one completed play session kept in local history.
type Record struct {
	ID           uuid.UUID             `json:"id"`
	Mode         string                `json:"mode"`
	RoomID       string                `json:"roomId,omitempty"`
	Outcome      string                `json:"outcome"`
	Score        int                   `json:"score"`
	TotalOrders  int                   `json:"totalOrders"`
	SuccessCount int                   `json:"successCount"`
	FailCount    int                   `json:"failCount"`
	Counters     map[game.ItemKind]int `json:"counters"`
	StartedAt    time.Time             `json:"startedAt"`
	EndedAt      time.Time             `json:"endedAt"`
}

// SessionStore persists session history locally.
type SessionStore interface {
	SaveSession(rec *Record) error
	ListSessions(limit int) ([]Record, error)
	Close() error
}
