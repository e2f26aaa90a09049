// Package channel implements the live pub/sub transport between tracking
// clients and the relay. A Channel owns at most one connection, keeps the
// set of joined order rooms across reconnects and dispatches inbound events
// to at most one handler per event name.
package channel

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/DioGolang/GoTrack/internal/application/port/outbound"
	"github.com/DioGolang/GoTrack/pkg/events"
	"github.com/DioGolang/GoTrack/pkg/logger"
	"github.com/DioGolang/GoTrack/pkg/metrics"
)

var ErrNotConnected = errors.New("live channel is not connected")

type Options struct {
	ReconnectAttempts int
	ReconnectDelay    time.Duration
}

func DefaultOptions() Options {
	return Options{ReconnectAttempts: 5, ReconnectDelay: time.Second}
}

// session is one Connect cycle: the dial/read/reconnect loop and its cancel.
type session struct {
	cancel context.CancelFunc
	done   chan struct{}
}

type Channel struct {
	dialer  Dialer
	opts    Options
	log     logger.Logger
	metrics metrics.Metrics

	mu        sync.Mutex
	state     outbound.ConnectionState
	sess      *session
	conn      Conn
	handlers  map[string]outbound.EventHandler
	rooms     map[string]struct{}
	watchers  map[int]func(outbound.ConnectionState)
	nextWatch int
}

func New(dialer Dialer, opts Options, log logger.Logger, m metrics.Metrics) *Channel {
	if opts.ReconnectAttempts < 0 {
		opts.ReconnectAttempts = 0
	}
	return &Channel{
		dialer:   dialer,
		opts:     opts,
		log:      log.With(logger.String("component", "live_channel")),
		metrics:  m,
		state:    outbound.StateDisconnected,
		handlers: make(map[string]outbound.EventHandler),
		rooms:    make(map[string]struct{}),
		watchers: make(map[int]func(outbound.ConnectionState)),
	}
}

// Connect starts the connection loop unless one is already running. It does
// not block and never reports transport errors; watch the state instead.
func (c *Channel) Connect(ctx context.Context) {
	c.mu.Lock()
	if c.sess != nil {
		c.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &session{cancel: cancel, done: make(chan struct{})}
	c.sess = s
	watchers := c.setStateLocked(outbound.StateConnecting)
	c.mu.Unlock()

	notify(watchers, outbound.StateConnecting)
	go c.run(runCtx, s)
}

// Disconnect closes the transport and forgets handlers and rooms. It does not
// wait for the background loop, so it is safe to call from a handler.
func (c *Channel) Disconnect() {
	c.disconnectIf(nil)
}

// disconnectIf disconnects only if cond, evaluated under the channel lock,
// holds. A nil cond always holds.
func (c *Channel) disconnectIf(cond func() bool) bool {
	c.mu.Lock()
	if cond != nil && !cond() {
		c.mu.Unlock()
		return false
	}
	s := c.sess
	conn := c.conn
	c.sess = nil
	c.conn = nil
	c.handlers = make(map[string]outbound.EventHandler)
	c.rooms = make(map[string]struct{})
	prev := c.state
	watchers := c.setStateLocked(outbound.StateDisconnected)
	c.mu.Unlock()

	if s != nil {
		s.cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	if prev != outbound.StateDisconnected {
		c.log.Info(context.Background(), "Live channel disconnected")
		notify(watchers, outbound.StateDisconnected)
	}
	return true
}

func (c *Channel) State() outbound.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) WatchState(fn func(outbound.ConnectionState)) func() {
	c.mu.Lock()
	id := c.nextWatch
	c.nextWatch++
	c.watchers[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.watchers, id)
			c.mu.Unlock()
		})
	}
}

func (c *Channel) On(event string, handler outbound.EventHandler) {
	c.mu.Lock()
	c.handlers[event] = handler
	c.mu.Unlock()
}

func (c *Channel) Off(event string) {
	c.mu.Lock()
	delete(c.handlers, event)
	c.mu.Unlock()
}

// JoinOrder subscribes to an order room. The room is re-joined after every
// reconnect until LeaveOrder or Disconnect.
func (c *Channel) JoinOrder(orderID string) {
	c.mu.Lock()
	c.rooms[orderID] = struct{}{}
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		c.send(context.Background(), conn, events.JoinOrder, events.OrderRef{OrderID: orderID})
	}
}

func (c *Channel) LeaveOrder(orderID string) {
	c.mu.Lock()
	_, joined := c.rooms[orderID]
	delete(c.rooms, orderID)
	conn := c.conn
	c.mu.Unlock()

	if joined && conn != nil {
		c.send(context.Background(), conn, events.LeaveOrder, events.OrderRef{OrderID: orderID})
	}
}

// Emit writes one event. Nothing is buffered: while disconnected the event is
// dropped and ErrNotConnected returned.
func (c *Channel) Emit(ctx context.Context, event string, payload any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	env, err := events.NewEnvelope(ctx, event, payload)
	if err != nil {
		return err
	}
	data, err := events.Marshal(env)
	if err != nil {
		return err
	}
	return conn.WriteMessage(data)
}

func (c *Channel) run(ctx context.Context, s *session) {
	defer close(s.done)

	attempts := 0
	for {
		conn, err := c.dialer.Dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if attempts > 0 {
				c.metrics.RecordReconnectAttempt("failure")
			}
			c.log.Warn(ctx, "Live channel dial failed",
				logger.Int("attempt", attempts),
				logger.WithError(err),
			)
			if attempts >= c.opts.ReconnectAttempts {
				c.giveUp(ctx, s)
				return
			}
			attempts++
			if !c.waitReconnect(ctx, s) {
				return
			}
			continue
		}

		if attempts > 0 {
			c.metrics.RecordReconnectAttempt("success")
		}
		attempts = 0
		rooms, ok := c.attach(s, conn)
		if !ok {
			_ = conn.Close()
			return
		}
		c.log.Info(ctx, "Live channel connected", logger.Int("rooms", len(rooms)))
		for _, id := range rooms {
			c.send(ctx, conn, events.JoinOrder, events.OrderRef{OrderID: id})
		}

		err = c.readLoop(ctx, conn)
		c.detach(s, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		c.log.Warn(ctx, "Live channel dropped", logger.WithError(err))

		if attempts >= c.opts.ReconnectAttempts {
			c.giveUp(ctx, s)
			return
		}
		attempts++
		if !c.waitReconnect(ctx, s) {
			return
		}
	}
}

func (c *Channel) readLoop(ctx context.Context, conn Conn) error {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		env, err := events.Unmarshal(data)
		if err != nil {
			c.log.Debug(ctx, "Discarding malformed frame", logger.WithError(err))
			continue
		}
		c.dispatch(ctx, env)
	}
}

func (c *Channel) dispatch(ctx context.Context, env events.Envelope) {
	c.mu.Lock()
	h := c.handlers[env.Event]
	c.mu.Unlock()
	if h == nil {
		c.log.Debug(ctx, "No handler for event", logger.String("event", env.Event))
		return
	}
	h(env.Context(ctx), env)
}

func (c *Channel) send(ctx context.Context, conn Conn, event string, payload any) {
	env, err := events.NewEnvelope(ctx, event, payload)
	if err == nil {
		var data []byte
		if data, err = events.Marshal(env); err == nil {
			err = conn.WriteMessage(data)
		}
	}
	if err != nil {
		c.log.Warn(ctx, "Live channel send failed",
			logger.String("event", event),
			logger.WithError(err),
		)
	}
}

// attach publishes conn as the current transport unless the session was
// cancelled meanwhile. It returns the rooms to re-join.
func (c *Channel) attach(s *session, conn Conn) ([]string, bool) {
	c.mu.Lock()
	if c.sess != s {
		c.mu.Unlock()
		return nil, false
	}
	c.conn = conn
	rooms := make([]string, 0, len(c.rooms))
	for id := range c.rooms {
		rooms = append(rooms, id)
	}
	watchers := c.setStateLocked(outbound.StateConnected)
	c.mu.Unlock()

	notify(watchers, outbound.StateConnected)
	return rooms, true
}

func (c *Channel) detach(s *session, conn Conn) {
	c.mu.Lock()
	if c.sess == s && c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
}

func (c *Channel) waitReconnect(ctx context.Context, s *session) bool {
	c.mu.Lock()
	if c.sess != s {
		c.mu.Unlock()
		return false
	}
	watchers := c.setStateLocked(outbound.StateReconnecting)
	c.mu.Unlock()
	notify(watchers, outbound.StateReconnecting)

	timer := time.NewTimer(c.opts.ReconnectDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Channel) giveUp(ctx context.Context, s *session) {
	c.mu.Lock()
	if c.sess != s {
		c.mu.Unlock()
		return
	}
	c.sess = nil
	watchers := c.setStateLocked(outbound.StateLost)
	c.mu.Unlock()

	s.cancel()
	c.log.Error(ctx, "Live channel lost, reconnection attempts exhausted",
		logger.Int("attempts", c.opts.ReconnectAttempts),
	)
	notify(watchers, outbound.StateLost)
}

func (c *Channel) setStateLocked(st outbound.ConnectionState) []func(outbound.ConnectionState) {
	c.state = st
	c.metrics.SetConnectionState(st.String())
	watchers := make([]func(outbound.ConnectionState), 0, len(c.watchers))
	for _, w := range c.watchers {
		watchers = append(watchers, w)
	}
	return watchers
}

func notify(watchers []func(outbound.ConnectionState), st outbound.ConnectionState) {
	for _, w := range watchers {
		w(st)
	}
}
