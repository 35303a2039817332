package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/ohmyhungrygod/gameclient/internal/events"
	"github.com/ohmyhungrygod/gameclient/internal/game"
)

// OrderView is the current order as exposed to presentation.
type OrderView struct {
	ID               uuid.UUID             `json:"orderId"`
	Sequence         int                   `json:"sequence"`
	Required         map[game.ItemKind]int `json:"required"`
	Submitted        map[game.ItemKind]int `json:"submitted"`
	Status           game.OrderStatus      `json:"status"`
	StatusName       string                `json:"statusName"`
	Deadline         time.Time             `json:"deadline"`
	TimeRemainingSec int                   `json:"timeRemainingSec"`
}

// ScoreView is the score as exposed to presentation.
type ScoreView struct {
	Counters map[game.ItemKind]int `json:"counters"`
	Total    int                   `json:"total"`
	Mood     int                   `json:"mood"`
}

// Results is the terminal summary once the session has ended.
type Results struct {
	Aborted      bool                 `json:"aborted"`
	Reason       string               `json:"reason,omitempty"`
	TotalOrders  int                  `json:"totalOrders"`
	SuccessCount int                  `json:"successCount"`
	FailCount    int                  `json:"failCount"`
	FinalScore   int                  `json:"finalScore"`
	PlayerStats  []events.PlayerStats `json:"playerStats,omitempty"`
}

// View is an immutable snapshot of the whole session, constructed fresh from
// the trackers' current state on each call so consumers never observe a
// partially-updated composite.
type View struct {
	Mode             string        `json:"mode"`
	ConnectionState  string        `json:"connectionState"`
	AwaitingSnapshot bool          `json:"awaitingSnapshot"`
	RoomID           uuid.UUID     `json:"roomId"`
	PlayerID         uuid.UUID     `json:"playerId"`
	PlayerName       string        `json:"playerName,omitempty"`
	Phase            game.RoomPhase `json:"phase"`
	PhaseName        string        `json:"phaseName"`
	Players          []game.Player `json:"players,omitempty"`
	Order            *OrderView    `json:"order,omitempty"`
	Score            ScoreView     `json:"score"`
	Results          *Results      `json:"results,omitempty"`
	LastError        string        `json:"lastError,omitempty"`
}

// viewLocked builds a View from current state. Caller holds c.mu.
func (c *Controller) viewLocked() View {
	v := View{
		Mode:             c.mode.String(),
		ConnectionState:  c.connState.String(),
		AwaitingSnapshot: c.mode == ModeNetworked && c.stale,
		RoomID:           c.room.ID,
		PlayerID:         c.playerID,
		PlayerName:       c.playerName,
		Phase:            c.room.Phase,
		PhaseName:        c.room.Phase.String(),
		Players:          c.room.RosterCopy(),
		Score: ScoreView{
			Counters: c.score.Counters(),
			Total:    c.score.Total(),
			Mood:     c.score.Mood(),
		},
		LastError: c.lastError,
	}

	if o := c.orders.Current(); o != nil {
		ov := &OrderView{
			ID:         o.ID,
			Sequence:   o.Sequence,
			Required:   make(map[game.ItemKind]int, len(o.Required)),
			Submitted:  make(map[game.ItemKind]int, len(o.Submitted)),
			Status:     o.Status,
			StatusName: o.Status.String(),
			Deadline:   o.Deadline,
		}
		for k, n := range o.Required {
			ov.Required[k] = n
		}
		for k, n := range o.Submitted {
			ov.Submitted[k] = n
		}
		if !o.Status.Terminal() {
			ov.TimeRemainingSec = int(c.countdown.Remaining(c.clock.Now()).Seconds())
		}
		v.Order = ov
	}

	if c.results != nil {
		cp := *c.results
		cp.PlayerStats = append([]events.PlayerStats(nil), c.results.PlayerStats...)
		v.Results = &cp
	}

	return v
}
