/*
This file defines the per-connection pump: a reader/writer goroutine pair
whose lifetimes are coupled through one shared context. The writer drains the
user's bus subscription onto the wire; the reader turns inbound frames into
dispatched commands. Either side closing tears down the other.
*/
package chat

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/app/model"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxFrameSize = 8192

	// MaxContentBytes caps text message content.
	MaxContentBytes = 5000

	// maxInflightDispatch bounds concurrently running command handlers per
	// connection. When the bound is hit the reader blocks, which turns a
	// frame flood into backpressure instead of unbounded goroutine growth.
	maxInflightDispatch = 16
)

// Conn represents one physical WebSocket connection of a logical user.
type Conn struct {
	server *Server
	ws     *websocket.Conn

	user        model.User
	tokenExpiry time.Time

	// state is the registry entry shared with the user's other connections.
	state *UserState

	// sub is this connection's subscription to the user's bus.
	sub *Subscription

	logger zerolog.Logger
}

// HandleConn runs the full lifetime of one physical connection: registry
// registration, the reader/writer pair, and cleanup. It blocks until the
// connection is gone and must be called from the HTTP upgrade handler's
// goroutine.
func (s *Server) HandleConn(parent context.Context, ws *websocket.Conn, user model.User, tokenExpiry time.Time) {
	state, first := s.registry.Register(user.ID)
	defer s.registry.Unregister(user.ID)

	sub := state.Bus().Subscribe()
	defer sub.Close()

	c := &Conn{
		server:      s,
		ws:          ws,
		user:        user,
		tokenExpiry: tokenExpiry,
		state:       state,
		sub:         sub,
		logger: logx.Logger().With().
			Int64("user_id", user.ID).
			Str("username", user.Username).
			Logger(),
	}

	c.logger.Info().Bool("first_connection", first).Msg("Connection pump starting.")

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// The reader blocks in ws.ReadMessage, which only a transport close can
	// interrupt. Closing the socket on context cancellation is what couples
	// the two pump halves: whichever side cancels first kicks the other out
	// of its blocking call.
	go func() {
		<-ctx.Done()
		_ = ws.Close()
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer cancel()
		c.writePump(ctx)
	}()

	c.readPump(ctx)
	cancel()
	<-writerDone

	c.logger.Info().Msg("Connection pump finished.")
}

// writePump drains the bus subscription onto the wire. It exits on write
// failure, stale credentials, bus teardown, or context cancellation; any
// exit cancels the whole pump.
func (c *Conn) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-c.sub.Events():
			if !ok {
				c.logger.Info().Msg("Bus subscription closed, stopping writer.")
				return
			}

			// The cancel marker is engine-internal; it must never reach a client.
			if _, internal := ev.(cancelRequest); internal {
				continue
			}

			if c.tokenExpired() {
				return
			}

			if !c.writeEvent(ev) {
				return
			}

		case <-ticker.C:
			if c.tokenExpired() {
				return
			}

			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
				return
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Info().Err(err).Msg("Ping failed, stopping writer.")
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// writeEvent serializes one event as a text frame. Returns false when the
// writer should stop.
func (c *Conn) writeEvent(ev Event) bool {
	frame, err := MarshalEvent(ev)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to marshal event, skipping.")
		return true
	}

	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Info().Err(err).Msg("Write failed, stopping writer.")
		return false
	}

	return true
}

// tokenExpired checks the connection's credential against the current time.
// A stale token closes the session; the client reconnects with a fresh one.
func (c *Conn) tokenExpired() bool {
	if time.Now().After(c.tokenExpiry) {
		c.logger.Info().Time("expiry", c.tokenExpiry).Msg("Auth token expired, closing connection.")
		return true
	}
	return false
}

// readPump consumes inbound frames and hands each one to an independent
// dispatch task, so a slow command never blocks reading the next frame.
// Dispatch failures surface as Error events on the user's own bus and are
// never fatal to the connection.
func (c *Conn) readPump(ctx context.Context) {
	c.ws.SetReadLimit(maxFrameSize)

	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInflightDispatch)
	defer func() {
		if err := g.Wait(); err != nil {
			c.logger.Error().Err(err).Msg("Dispatch group reported error")
		}
	}()

	for {
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading frame (client close/going away)")
			}
			return
		}

		g.Go(func() error {
			c.server.dispatch(gctx, c, frame)
			return nil
		})
	}
}

// sendError reports a failure back to the acting user only.
func (c *Conn) sendError(message string) {
	c.state.Bus().Publish(newErrorEvent(message))
}
