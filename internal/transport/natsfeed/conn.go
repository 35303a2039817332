// Package natsfeed implements the transport.Connection contract over NATS,
// for self-hosted game servers that publish room events on subjects and
// serve player actions via request/reply.
package natsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/ohmyhungrygod/gameclient/internal/events"
	"github.com/ohmyhungrygod/gameclient/internal/game"
	"github.com/ohmyhungrygod/gameclient/internal/transport"
)

// Config holds configuration for the NATS adapter.
type Config struct {
	URL            string
	SubjectPrefix  string // e.g. "hungrygod"
	RequestTimeout time.Duration
	MaxReconnects  int
	ReconnectWait  time.Duration
}

// DefaultConfig returns defaults for a NATS URL.
func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		SubjectPrefix:  "hungrygod",
		RequestTimeout: 10 * time.Second,
		MaxReconnects:  -1,
		ReconnectWait:  2 * time.Second,
	}
}

// ack is the generic reply to action requests.
type ack struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Conn adapts a NATS connection to the transport contract. Room events are
// received on <prefix>.rooms.<roomID>.events once a room has been joined;
// actions go out as requests on <prefix>.rpc.<method>.
type Conn struct {
	cfg Config
	nc  *nats.Conn

	eventCh chan events.Envelope
	stateCh chan transport.State
	done    chan struct{}

	mu        sync.Mutex
	sub       *nats.Subscription
	closeOnce sync.Once
}

// Connect establishes the NATS connection. Reconnects are handled by the
// NATS client; lifecycle transitions are forwarded on States.
func Connect(cfg Config) (*Conn, error) {
	c := &Conn{
		cfg:     cfg,
		eventCh: make(chan events.Envelope, 256),
		stateCh: make(chan transport.State, 16),
		done:    make(chan struct{}),
	}

	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
			c.pushState(transport.StateReconnecting)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
			c.pushState(transport.StateConnected)
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			c.pushState(transport.StateDisconnected)
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	c.nc = nc
	c.pushState(transport.StateConnected)
	return c, nil
}

// Events implements transport.Connection.
func (c *Conn) Events() <-chan events.Envelope { return c.eventCh }

// States implements transport.Connection.
func (c *Conn) States() <-chan transport.State { return c.stateCh }

// Close implements transport.Connection. The event and state channels stay
// open: the NATS client runs its lifecycle handlers and in-flight
// subscription callbacks on its own goroutines after Close returns, so
// closing the channels here would race those sends. Consumers stop reading
// via their own cancellation.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		if c.sub != nil {
			c.sub.Unsubscribe()
			c.sub = nil
		}
		c.mu.Unlock()
		if c.nc != nil {
			c.nc.Close()
		}
	})
	return nil
}

func (c *Conn) pushState(s transport.State) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.stateCh <- s:
	default:
		log.Warn().Str("state", s.String()).Msg("state channel full, dropping transition")
	}
}

// deliver forwards one room event to the consumer, dropping it after Close
// or when the consumer has fallen behind.
func (c *Conn) deliver(subject string, data []byte) {
	var env events.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("dropping malformed room event")
		return
	}
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.eventCh <- env:
	default:
		log.Warn().Str("subject", subject).Msg("event channel full, dropping event")
	}
}

// subscribeRoom binds the event feed for one room, replacing any prior
// subscription.
func (c *Conn) subscribeRoom(roomID uuid.UUID) error {
	subject := fmt.Sprintf("%s.rooms.%s.events", c.cfg.SubjectPrefix, roomID)

	sub, err := c.nc.Subscribe(subject, func(msg *nats.Msg) {
		c.deliver(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}

	c.mu.Lock()
	if c.sub != nil {
		c.sub.Unsubscribe()
	}
	c.sub = sub
	c.mu.Unlock()

	log.Info().Str("subject", subject).Msg("subscribed to room events")
	return nil
}

// request issues one RPC and decodes the generic ack.
func (c *Conn) request(ctx context.Context, method string, args any) ([]byte, error) {
	if !c.nc.IsConnected() {
		return nil, transport.ErrNotConnected
	}

	payload, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode %s args: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	subject := fmt.Sprintf("%s.rpc.%s", c.cfg.SubjectPrefix, method)
	msg, err := c.nc.RequestWithContext(ctx, subject, payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return msg.Data, nil
}

// requestAck issues one RPC whose reply carries only success or failure.
func (c *Conn) requestAck(ctx context.Context, method string, args any) error {
	data, err := c.request(ctx, method, args)
	if err != nil {
		return err
	}
	var a ack
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("decode %s ack: %w", method, err)
	}
	if !a.OK {
		return fmt.Errorf("%s rejected: %s", method, a.Error)
	}
	return nil
}

// JoinRoom implements transport.Connection. On success the room's event
// subject is subscribed so pushed events start flowing.
func (c *Conn) JoinRoom(ctx context.Context, code, playerName string) (transport.JoinResult, error) {
	args := struct {
		Code       string `json:"code"`
		PlayerName string `json:"playerName"`
	}{code, playerName}

	data, err := c.request(ctx, "JoinRoom", args)
	if err != nil {
		return transport.JoinResult{}, err
	}
	var res transport.JoinResult
	if err := json.Unmarshal(data, &res); err != nil {
		return transport.JoinResult{}, fmt.Errorf("decode JoinRoom result: %w", err)
	}
	if err := c.subscribeRoom(res.RoomID); err != nil {
		return transport.JoinResult{}, err
	}
	return res, nil
}

// SetReady implements transport.Connection.
func (c *Conn) SetReady(ctx context.Context, roomID uuid.UUID, ready bool) error {
	args := struct {
		RoomID uuid.UUID `json:"roomId"`
		Ready  bool      `json:"ready"`
	}{roomID, ready}
	return c.requestAck(ctx, "SetReady", args)
}

// ReportHit implements transport.Connection.
func (c *Conn) ReportHit(ctx context.Context, roomID, reportID uuid.UUID, kind game.ItemKind) error {
	args := struct {
		RoomID   uuid.UUID     `json:"roomId"`
		ReportID uuid.UUID     `json:"reportId"`
		Kind     game.ItemKind `json:"fruitType"`
	}{roomID, reportID, kind}
	return c.requestAck(ctx, "ReportHit", args)
}

// Heartbeat implements transport.Connection.
func (c *Conn) Heartbeat(ctx context.Context, roomID uuid.UUID) error {
	args := struct {
		RoomID uuid.UUID `json:"roomId"`
	}{roomID}
	return c.requestAck(ctx, "Ping", args)
}
