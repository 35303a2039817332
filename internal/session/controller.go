// Package session composes the room state machine, order tracker, countdown
// and hit ledger into one coherent engine behind a single serialization
// boundary. Inbound network events, timer ticks and collision detections all
// funnel through the controller's mutex, so they are applied in arrival
// order regardless of which goroutine delivered them.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/ohmyhungrygod/gameclient/internal/events"
	"github.com/ohmyhungrygod/gameclient/internal/game"
	"github.com/ohmyhungrygod/gameclient/internal/ledger"
	"github.com/ohmyhungrygod/gameclient/internal/store"
	"github.com/ohmyhungrygod/gameclient/internal/transport"
)

// Mode selects how the session is driven.
type Mode int

const (
	ModeIdle Mode = iota
	ModeOffline
	ModeNetworked
)

func (m Mode) String() string {
	switch m {
	case ModeOffline:
		return "offline"
	case ModeNetworked:
		return "networked"
	}
	return "idle"
}

// DetectionResult classifies one collision detection handed to the engine.
type DetectionResult int

const (
	// DetectionAccepted means the hit was recorded: reported in networked
	// mode, scored in offline mode.
	DetectionAccepted DetectionResult = iota
	// DetectionDuplicate means the object was already detected within its
	// cool-down window; nothing was reported or scored.
	DetectionDuplicate
	// DetectionIgnored means the engine was in no state to accept hits
	// (no session, unknown kind, or no active order in networked mode).
	DetectionIgnored
)

var (
	// ErrSessionActive is returned by the start calls while a session is
	// already running; Shutdown first.
	ErrSessionActive = errors.New("session already active")

	// ErrNotNetworked is returned by actions that need a live connection.
	ErrNotNetworked = errors.New("no networked session")
)

// Config holds tunables for the controller.
type Config struct {
	// HitCooldown is the dedup window per detected object.
	HitCooldown time.Duration
	// TickInterval drives the presentation refresh callback.
	TickInterval time.Duration
	// HeartbeatInterval drives the keepalive ping while networked.
	HeartbeatInterval time.Duration
}

// DefaultConfig returns the default controller tunables.
func DefaultConfig() Config {
	return Config{
		HitCooldown:       500 * time.Millisecond,
		TickInterval:      time.Second,
		HeartbeatInterval: 15 * time.Second,
	}
}

// Controller owns the engine's mutable state and its lifecycle. It is
// constructed once and reused across sessions; StartOffline/StartNetworked
// always begin from a clean slate and Shutdown is the only path that resets
// Order/Room/Ledger state.
type Controller struct {
	cfg   Config
	clock clockwork.Clock
	hist  store.SessionStore // optional, may be nil
	// onTick, if set before starting a session, receives a fresh view on
	// every tick. Set once at wiring time; not guarded by mu.
	onTick func(View)

	mu         sync.Mutex
	mode       Mode
	conn       transport.Connection
	roomID     uuid.UUID
	playerID   uuid.UUID
	playerName string

	room      game.Room
	orders    game.Tracker
	countdown game.Countdown
	score     *game.ScoreState
	hits      *ledger.Ledger

	connState transport.State
	// stale is set while roster/order data cannot be trusted: from session
	// start and after every disconnect, until the next authoritative
	// snapshot arrives.
	stale     bool
	results   *Results
	lastError string

	sessionID uuid.UUID
	startedAt time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a controller. hist may be nil to disable history persistence.
func New(cfg Config, clock clockwork.Clock, hist store.SessionStore) *Controller {
	return &Controller{
		cfg:   cfg,
		clock: clock,
		hist:  hist,
		score: game.NewScoreState(),
		hits:  ledger.New(clock, cfg.HitCooldown),
	}
}

// OnTick registers the per-tick view callback. Must be called before
// starting a session.
func (c *Controller) OnTick(fn func(View)) {
	c.onTick = fn
}

// StartOffline begins a local-only session: accepted detections credit the
// score directly and nothing touches the network.
func (c *Controller) StartOffline() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeIdle {
		return ErrSessionActive
	}
	c.resetLocked()
	c.mode = ModeOffline
	c.sessionID = uuid.New()
	c.startedAt = c.clock.Now()
	log.Info().Str("session_id", c.sessionID.String()).Msg("offline session started")
	return nil
}

// StartNetworked begins a server-driven session on an established
// connection. The caller has already joined the room; the engine stays in
// the awaiting-snapshot state until the first authoritative snapshot lands.
func (c *Controller) StartNetworked(conn transport.Connection, roomID, playerID uuid.UUID, playerName string) error {
	c.mu.Lock()
	if c.mode != ModeIdle {
		c.mu.Unlock()
		return ErrSessionActive
	}
	c.resetLocked()
	c.mode = ModeNetworked
	c.conn = conn
	c.roomID = roomID
	c.playerID = playerID
	c.playerName = playerName
	c.connState = transport.StateConnected
	c.stale = true
	c.sessionID = uuid.New()
	c.startedAt = c.clock.Now()

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(3)
	go c.eventLoop(ctx, conn)
	go c.tickLoop(ctx)
	go c.heartbeatLoop(ctx, conn, roomID)
	c.mu.Unlock()

	log.Info().
		Str("session_id", c.sessionID.String()).
		Str("room_id", roomID.String()).
		Str("player_id", playerID.String()).
		Msg("networked session started")
	return nil
}

// Shutdown cancels the schedules, unsubscribes from the connection and
// resets all trackers, atomically with respect to event application: an
// event that arrives after Shutdown finds the session idle and is dropped,
// so nothing can resurrect stale state.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	if c.mode == ModeIdle {
		c.mu.Unlock()
		return
	}
	mode := c.mode
	conn := c.conn
	cancel := c.cancel
	c.cancel = nil

	var rec *store.Record
	if mode == ModeOffline && c.score.Total() > 0 {
		rec = c.recordLocked(store.OutcomeOffline)
	}
	c.resetLocked()
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
	c.wg.Wait()
	if rec != nil {
		c.saveRecord(rec)
	}
	log.Info().Str("mode", mode.String()).Msg("session shut down")
}

// resetLocked returns every tracker to its initial state. Caller holds c.mu.
func (c *Controller) resetLocked() {
	c.mode = ModeIdle
	c.conn = nil
	c.roomID = uuid.Nil
	c.playerID = uuid.Nil
	c.playerName = ""
	c.room.Reset()
	c.orders.Reset()
	c.countdown.Clear()
	c.score.Reset()
	c.hits.Reset()
	c.connState = transport.StateDisconnected
	c.stale = false
	c.results = nil
	c.lastError = ""
}

// Snapshot returns an immutable view of the whole session.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// SetReady toggles lobby readiness on the server. The outcome only matters
// for user-facing messaging; room state stays server-driven.
func (c *Controller) SetReady(ctx context.Context, ready bool) error {
	c.mu.Lock()
	conn, roomID := c.conn, c.roomID
	networked := c.mode == ModeNetworked
	c.mu.Unlock()

	if !networked {
		return ErrNotNetworked
	}
	return conn.SetReady(ctx, roomID, ready)
}

// RecordDetection ingests one locally-detected collision. The first
// detection of an object is accepted; re-detections within the cool-down are
// duplicates and have no further effect. In networked mode an accepted hit
// is reported fire-and-forget and the score is left to server-confirmed
// totals; in offline mode it credits the score directly.
func (c *Controller) RecordDetection(objectID string, kind game.ItemKind) DetectionResult {
	if !kind.Known() {
		log.Warn().Str("kind", string(kind)).Msg("detection with unknown item kind dropped")
		return DetectionIgnored
	}

	c.mu.Lock()
	mode := c.mode
	conn := c.conn
	roomID := c.roomID

	switch mode {
	case ModeIdle:
		c.mu.Unlock()
		return DetectionIgnored
	case ModeNetworked:
		if o := c.orders.Current(); o == nil || o.Status.Terminal() {
			c.mu.Unlock()
			log.Debug().Str("object_id", objectID).Msg("detection with no active order ignored")
			return DetectionIgnored
		}
	}

	res := c.hits.Record(objectID, kind)
	if res == ledger.Duplicate {
		c.mu.Unlock()
		return DetectionDuplicate
	}

	if mode == ModeOffline {
		c.score.AddLocal(kind)
		c.mu.Unlock()
		return DetectionAccepted
	}
	c.mu.Unlock()

	// Fire-and-forget: a failed report is logged, not retried here, and is
	// never credited locally. Score in networked mode moves only on
	// server-confirmed totals.
	reportID := uuid.New()
	go func() {
		if err := conn.ReportHit(context.Background(), roomID, reportID, kind); err != nil {
			log.Error().
				Err(err).
				Str("report_id", reportID.String()).
				Str("kind", string(kind)).
				Msg("hit report failed")
		}
	}()
	return DetectionAccepted
}

// eventLoop drains the connection's event and state channels for one
// networked session.
func (c *Controller) eventLoop(ctx context.Context, conn transport.Connection) {
	defer c.wg.Done()

	evs := conn.Events()
	sts := conn.States()
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-evs:
			if !ok {
				return
			}
			c.handleEnvelope(env)
		case st, ok := <-sts:
			if !ok {
				return
			}
			c.handleConnState(st)
		}
	}
}

// tickLoop refreshes presentation at a fixed cadence. The countdown value
// itself is recomputed from the wall clock at view time, so a missed tick
// costs a frame, never accuracy.
func (c *Controller) tickLoop(ctx context.Context) {
	defer c.wg.Done()

	t := c.clock.NewTicker(c.cfg.TickInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.Chan():
			if c.onTick != nil {
				c.onTick(c.Snapshot())
			}
		}
	}
}

// heartbeatLoop keeps the server-side presence alive while networked.
func (c *Controller) heartbeatLoop(ctx context.Context, conn transport.Connection, roomID uuid.UUID) {
	defer c.wg.Done()

	t := c.clock.NewTicker(c.cfg.HeartbeatInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.Chan():
			if err := conn.Heartbeat(ctx, roomID); err != nil {
				log.Warn().Err(err).Msg("heartbeat failed")
			}
		}
	}
}

// handleConnState reacts to transport lifecycle transitions. A disconnect
// discards nothing except trust in buffered partials: roster/order data is
// marked stale until the next authoritative snapshot.
func (c *Controller) handleConnState(st transport.State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeNetworked {
		return
	}
	c.connState = st
	switch st {
	case transport.StateDisconnected, transport.StateReconnecting:
		c.stale = true
	}
	log.Info().Str("state", st.String()).Msg("connection state changed")
}

// handleEnvelope decodes and applies one inbound event.
func (c *Controller) handleEnvelope(env events.Envelope) {
	payload, err := events.Parse(env)
	if err != nil {
		log.Warn().Err(err).Str("type", string(env.Type)).Msg("dropping undecodable event")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeNetworked {
		log.Debug().Str("type", string(env.Type)).Msg("event after shutdown dropped")
		return
	}

	// Until a fresh snapshot arrives (session start or post-reconnect),
	// only full snapshots, terminal events and errors are trusted.
	if c.stale {
		switch payload.(type) {
		case events.RoomSnapshot, events.SessionFinished, events.SessionAborted, events.ProtocolError:
		default:
			log.Debug().Str("type", string(env.Type)).Msg("event dropped while awaiting snapshot")
			return
		}
	}

	switch p := payload.(type) {
	case events.RoomSnapshot:
		c.applySnapshotLocked(p)
	case events.RoomStateUpdated:
		c.applyRoomStateLocked(p)
	case events.RoomPhaseChanged:
		c.applyPhaseChangeLocked(p)
	case events.CountdownStarted:
		c.countdown.Reconcile(p.StartsAt.Add(time.Duration(p.DurationSeconds) * time.Second))
	case events.OrderStarted:
		c.applyOrderStartedLocked(p)
	case events.OrderTotalsUpdated:
		c.applyTotalsLocked(p)
	case events.OrderResolved:
		c.applyResolvedLocked(p)
	case events.SessionFinished:
		c.applyFinishedLocked(p)
	case events.SessionAborted:
		c.applyAbortedLocked(p)
	case events.ProtocolError:
		c.lastError = p.Message
		log.Error().Str("message", p.Message).Msg("server reported protocol error")
	}
}

func (c *Controller) applySnapshotLocked(p events.RoomSnapshot) {
	if !p.Phase.Valid() {
		log.Warn().Int("phase", int(p.Phase)).Msg("snapshot with invalid phase dropped")
		return
	}

	players := make([]game.Player, 0, len(p.Players))
	for _, ps := range p.Players {
		players = append(players, game.Player{
			ID:        ps.PlayerID,
			Name:      ps.Name,
			Connected: ps.Connected,
			Ready:     ps.Ready,
		})
	}
	c.room.ApplySnapshot(p.RoomID, p.Phase, players)
	c.score.SetMood(p.Mood)
	c.stale = false

	if p.CurrentOrder == nil {
		c.orders.Reset()
		c.countdown.Clear()
		return
	}

	o := p.CurrentOrder
	if !game.KnownKinds(o.Required) || !game.KnownKinds(o.Submitted) {
		log.Warn().Str("order_id", o.OrderID.String()).Msg("snapshot order with unknown kind dropped")
		return
	}

	if cur := c.orders.Current(); cur != nil && cur.ID == o.OrderID {
		// Same order across the reconnect: the snapshot's totals are just
		// a fresher absolute update.
		if prev, err := c.orders.ApplyTotals(o.OrderID, o.Submitted); err == nil {
			c.score.FoldConfirmed(prev, o.Submitted)
		}
		if o.Status.Terminal() && !cur.Status.Terminal() {
			c.orders.Resolve(o.OrderID, o.Status)
		}
	} else {
		c.orders.Restore(game.Order{
			ID:        o.OrderID,
			Sequence:  p.OrderIndex,
			Required:  o.Required,
			Submitted: o.Submitted,
			Deadline:  o.EndsAt,
			Status:    o.Status,
		})
	}

	deadline := o.EndsAt
	if p.OrderEndsAt != nil {
		deadline = *p.OrderEndsAt
	}
	if cur := c.orders.Current(); cur != nil && !cur.Status.Terminal() {
		c.countdown.Reconcile(deadline)
	} else {
		c.countdown.Clear()
	}
}

// applyRoomStateLocked replaces the roster and phase from a lobby-churn
// push. Unlike a full snapshot it carries no order data and does not clear
// the awaiting-snapshot state.
func (c *Controller) applyRoomStateLocked(p events.RoomStateUpdated) {
	if !p.Phase.Valid() {
		log.Warn().Int("phase", int(p.Phase)).Msg("room update with invalid phase dropped")
		return
	}

	players := make([]game.Player, 0, len(p.Players))
	for _, ps := range p.Players {
		players = append(players, game.Player{
			ID:        ps.PlayerID,
			Name:      ps.Name,
			Connected: ps.Connected,
			Ready:     ps.Ready,
		})
	}
	c.room.ApplySnapshot(p.RoomID, p.Phase, players)

	if c.room.ConnectedCount() != p.ConnectedCount || c.room.ReadyCount() != p.ReadyCount {
		log.Debug().
			Int("connected", c.room.ConnectedCount()).
			Int("server_connected", p.ConnectedCount).
			Int("ready", c.room.ReadyCount()).
			Int("server_ready", p.ReadyCount).
			Msg("roster counts disagree with server summary")
	}
}

func (c *Controller) applyPhaseChangeLocked(p events.RoomPhaseChanged) {
	if !p.Old.Valid() || !p.New.Valid() {
		log.Warn().
			Int("old", int(p.Old)).
			Int("new", int(p.New)).
			Msg("phase change with invalid phase dropped")
		return
	}
	if !c.room.ApplyPhaseChange(p.Old, p.New) {
		log.Debug().
			Stringer("current", c.room.Phase).
			Stringer("old", p.Old).
			Stringer("new", p.New).
			Msg("inconsistent phase change ignored, waiting for snapshot")
	}
}

func (c *Controller) applyOrderStartedLocked(p events.OrderStarted) {
	if !game.KnownKinds(p.Required) {
		log.Warn().Str("order_id", p.OrderID.String()).Msg("order with unknown kind dropped")
		return
	}
	c.orders.Start(p.OrderID, p.OrderNumber, p.Required, p.EndsAt)
	c.countdown.Reconcile(p.EndsAt)
	log.Info().
		Str("order_id", p.OrderID.String()).
		Int("order_number", p.OrderNumber).
		Time("ends_at", p.EndsAt).
		Msg("order started")
}

func (c *Controller) applyTotalsLocked(p events.OrderTotalsUpdated) {
	if !game.KnownKinds(p.Submitted) {
		log.Warn().Str("order_id", p.OrderID.String()).Msg("totals with unknown kind dropped")
		return
	}
	prev, err := c.orders.ApplyTotals(p.OrderID, p.Submitted)
	if err != nil {
		log.Debug().Str("order_id", p.OrderID.String()).Msg("totals for stale order dropped")
		return
	}
	c.score.FoldConfirmed(prev, p.Submitted)
}

func (c *Controller) applyResolvedLocked(p events.OrderResolved) {
	if !p.Status.Valid() || !p.Status.Terminal() {
		log.Warn().Int("status", int(p.Status)).Msg("resolution with non-terminal status dropped")
		return
	}
	if game.KnownKinds(p.Submitted) {
		// The resolution carries the final totals; fold them before the
		// status flips so the session counters end exact.
		if prev, err := c.orders.ApplyTotals(p.OrderID, p.Submitted); err == nil {
			c.score.FoldConfirmed(prev, p.Submitted)
		}
	}
	if err := c.orders.Resolve(p.OrderID, p.Status); err != nil {
		log.Debug().Str("order_id", p.OrderID.String()).Msg("resolution for stale order dropped")
		return
	}
	c.countdown.Clear()
	c.score.SetMood(p.NewMood)
	log.Info().
		Str("order_id", p.OrderID.String()).
		Stringer("status", p.Status).
		Msg("order resolved")
}

func (c *Controller) applyFinishedLocked(p events.SessionFinished) {
	c.results = &Results{
		TotalOrders:  p.TotalOrders,
		SuccessCount: p.SuccessCount,
		FailCount:    p.FailCount,
		FinalScore:   p.FinalScore,
		PlayerStats:  append([]events.PlayerStats(nil), p.PlayerStats...),
	}
	c.room.Phase = game.PhaseResults
	c.countdown.Clear()
	c.score.SetTotal(p.FinalScore)
	c.score.SetMood(p.FinalMood)

	rec := c.recordLocked(store.OutcomeFinished)
	rec.TotalOrders = p.TotalOrders
	rec.SuccessCount = p.SuccessCount
	rec.FailCount = p.FailCount
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.saveRecord(rec)
	}()

	log.Info().
		Int("total_orders", p.TotalOrders).
		Int("success", p.SuccessCount).
		Int("fail", p.FailCount).
		Msg("session finished")
}

func (c *Controller) applyAbortedLocked(p events.SessionAborted) {
	c.results = &Results{
		Aborted:      true,
		Reason:       p.Reason,
		TotalOrders:  p.CompletedOrders,
		SuccessCount: p.SuccessCount,
		FailCount:    p.FailCount,
		FinalScore:   c.score.Total(),
	}
	c.room.Phase = game.PhaseGameOver
	c.countdown.Clear()

	rec := c.recordLocked(store.OutcomeAborted)
	rec.TotalOrders = p.CompletedOrders
	rec.SuccessCount = p.SuccessCount
	rec.FailCount = p.FailCount
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.saveRecord(rec)
	}()

	log.Warn().Str("reason", p.Reason).Msg("session aborted by server")
}

// recordLocked builds a history record from current state. Caller holds c.mu.
func (c *Controller) recordLocked(outcome string) *store.Record {
	rec := &store.Record{
		ID:        c.sessionID,
		Mode:      c.mode.String(),
		Outcome:   outcome,
		Score:     c.score.Total(),
		Counters:  c.score.Counters(),
		StartedAt: c.startedAt,
		EndedAt:   c.clock.Now(),
	}
	if c.roomID != uuid.Nil {
		rec.RoomID = c.roomID.String()
	}
	return rec
}

func (c *Controller) saveRecord(rec *store.Record) {
	if c.hist == nil {
		return
	}
	if err := c.hist.SaveSession(rec); err != nil {
		log.Error().Err(err).Str("session_id", rec.ID.String()).Msg("failed to persist session history")
	}
}
