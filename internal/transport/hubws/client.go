// Package hubws implements the transport.Connection contract over a
// WebSocket hub: server events arrive as pushed frames, player actions are
// request/response invocations matched by invocation id.
package hubws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ohmyhungrygod/gameclient/internal/events"
	"github.com/ohmyhungrygod/gameclient/internal/game"
	"github.com/ohmyhungrygod/gameclient/internal/transport"
)

// Config holds configuration for the hub WebSocket client.
type Config struct {
	URL            string
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	PingInterval   time.Duration
	InvokeTimeout  time.Duration
	ReconnectWait  time.Duration
	MaxMessageSize int64
}

// DefaultConfig returns the default client configuration for a hub URL.
func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		InvokeTimeout:  10 * time.Second,
		ReconnectWait:  2 * time.Second,
		MaxMessageSize: 64 * 1024,
	}
}

// Client is a reconnecting hub client. It owns retry and backoff; consumers
// observe lifecycle transitions on States and react to a fresh snapshot
// after every reconnect.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer

	eventCh chan events.Envelope
	stateCh chan transport.State
	sendCh  chan []byte

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[string]chan frame

	done      chan struct{}
	closeOnce sync.Once
}

// Dial creates the client and starts its connect/reconnect loop. The first
// connection attempt happens in the background; callers gate on the
// Connected state before joining a room.
func Dial(cfg Config) *Client {
	c := &Client{
		cfg:     cfg,
		dialer:  &websocket.Dialer{HandshakeTimeout: cfg.WriteTimeout},
		eventCh: make(chan events.Envelope, 256),
		stateCh: make(chan transport.State, 16),
		sendCh:  make(chan []byte, 64),
		pending: make(map[string]chan frame),
		done:    make(chan struct{}),
	}
	go c.run()
	return c
}

// Events implements transport.Connection.
func (c *Client) Events() <-chan events.Envelope { return c.eventCh }

// States implements transport.Connection.
func (c *Client) States() <-chan transport.State { return c.stateCh }

// Close implements transport.Connection.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.mu.Unlock()
	})
	return nil
}

// run drives the connect/serve/reconnect cycle until Close.
func (c *Client) run() {
	defer close(c.eventCh)
	defer close(c.stateCh)

	c.pushState(transport.StateConnecting)
	for {
		select {
		case <-c.done:
			return
		default:
		}

		conn, _, err := c.dialer.Dial(c.cfg.URL, nil)
		if err != nil {
			log.Error().Err(err).Str("url", c.cfg.URL).Msg("hub dial failed")
			c.pushState(transport.StateReconnecting)
			select {
			case <-c.done:
				return
			case <-time.After(c.cfg.ReconnectWait):
			}
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		c.pushState(transport.StateConnected)
		log.Info().Str("url", c.cfg.URL).Msg("hub connected")

		writeStop := make(chan struct{})
		go c.writePump(conn, writeStop)
		c.readPump(conn)
		close(writeStop)

		c.mu.Lock()
		c.conn = nil
		c.failPendingLocked()
		c.mu.Unlock()

		select {
		case <-c.done:
			c.pushState(transport.StateDisconnected)
			return
		default:
		}
		c.pushState(transport.StateReconnecting)
		log.Warn().Str("url", c.cfg.URL).Msg("hub connection lost, reconnecting")
		select {
		case <-c.done:
			return
		case <-time.After(c.cfg.ReconnectWait):
		}
	}
}

// writePump owns all writes on one connection: outbound frames plus
// keepalive pings.
func (c *Client) writePump(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-stop:
			conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.sendCh:
			conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Error().Err(err).Msg("hub write failed")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Msg("hub ping failed")
				return
			}
		}
	}
}

// readPump reads frames until the connection drops and dispatches them to
// the event channel or a pending invocation.
func (c *Client) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(c.cfg.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		return nil
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Msg("hub read failed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))

		f, err := decodeFrame(msg)
		if err != nil {
			log.Warn().Err(err).Msg("dropping malformed hub frame")
			continue
		}

		switch f.Kind {
		case frameEvent:
			env := events.Envelope{Type: events.Type(f.Method), Data: f.Args}
			select {
			case c.eventCh <- env:
			case <-c.done:
				return
			}
		case frameCompletion:
			c.mu.Lock()
			ch, ok := c.pending[f.InvocationID]
			if ok {
				delete(c.pending, f.InvocationID)
			}
			c.mu.Unlock()
			if !ok {
				log.Debug().Str("invocation_id", f.InvocationID).Msg("completion for unknown invocation")
				continue
			}
			ch <- f
		default:
			log.Warn().Str("kind", f.Kind).Msg("unexpected hub frame kind")
		}
	}
}

// pushState reports a lifecycle transition without ever blocking the
// connection loop.
func (c *Client) pushState(s transport.State) {
	select {
	case c.stateCh <- s:
	default:
		log.Warn().Str("state", s.String()).Msg("state channel full, dropping transition")
	}
}

// failPendingLocked completes every in-flight invocation with an error.
// Called with c.mu held when the connection drops.
func (c *Client) failPendingLocked() {
	for id, ch := range c.pending {
		delete(c.pending, id)
		ch <- frame{Kind: frameCompletion, InvocationID: id, Error: "connection lost"}
	}
}

// invoke sends one request frame and waits for its completion.
func (c *Client) invoke(ctx context.Context, method string, args any) (json.RawMessage, error) {
	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return nil, transport.ErrNotConnected
	}
	id := uuid.NewString()
	reply := make(chan frame, 1)
	c.pending[id] = reply
	c.mu.Unlock()

	f, err := invocationFrame(id, method, args)
	if err != nil {
		c.dropPending(id)
		return nil, err
	}
	msg, err := encodeFrame(f)
	if err != nil {
		c.dropPending(id)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.InvokeTimeout)
	defer cancel()

	select {
	case c.sendCh <- msg:
	case <-ctx.Done():
		c.dropPending(id)
		return nil, fmt.Errorf("%s: %w", method, ctx.Err())
	case <-c.done:
		c.dropPending(id)
		return nil, transport.ErrNotConnected
	}

	select {
	case res := <-reply:
		if res.Error != "" {
			return nil, fmt.Errorf("%s: %s", method, res.Error)
		}
		return res.Result, nil
	case <-ctx.Done():
		c.dropPending(id)
		return nil, fmt.Errorf("%s: %w", method, ctx.Err())
	case <-c.done:
		return nil, transport.ErrNotConnected
	}
}

func (c *Client) dropPending(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// JoinRoom implements transport.Connection.
func (c *Client) JoinRoom(ctx context.Context, code, playerName string) (transport.JoinResult, error) {
	args := struct {
		Code       string `json:"code"`
		PlayerName string `json:"playerName"`
	}{code, playerName}

	raw, err := c.invoke(ctx, "JoinRoom", args)
	if err != nil {
		return transport.JoinResult{}, err
	}
	var res transport.JoinResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return transport.JoinResult{}, fmt.Errorf("decode JoinRoom result: %w", err)
	}
	return res, nil
}

// SetReady implements transport.Connection.
func (c *Client) SetReady(ctx context.Context, roomID uuid.UUID, ready bool) error {
	args := struct {
		RoomID uuid.UUID `json:"roomId"`
		Ready  bool      `json:"ready"`
	}{roomID, ready}
	_, err := c.invoke(ctx, "SetReady", args)
	return err
}

// ReportHit implements transport.Connection.
func (c *Client) ReportHit(ctx context.Context, roomID, reportID uuid.UUID, kind game.ItemKind) error {
	args := struct {
		RoomID   uuid.UUID     `json:"roomId"`
		ReportID uuid.UUID     `json:"reportId"`
		Kind     game.ItemKind `json:"fruitType"`
	}{roomID, reportID, kind}
	_, err := c.invoke(ctx, "ReportHit", args)
	return err
}

// Heartbeat implements transport.Connection.
func (c *Client) Heartbeat(ctx context.Context, roomID uuid.UUID) error {
	args := struct {
		RoomID uuid.UUID `json:"roomId"`
	}{roomID}
	_, err := c.invoke(ctx, "Ping", args)
	return err
}
