package relay

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/DioGolang/GoTrack/pkg/events"
	"github.com/DioGolang/GoTrack/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// client is one WebSocket peer. readPump and writePump own the connection's
// read and write sides respectively.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	log  logger.Logger

	once   sync.Once
	closed chan struct{}
}

// Send queues a frame without blocking. A full buffer drops the frame.
func (c *client) Send(frame []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.closed)
		c.hub.Drop(c)
		_ = c.conn.Close()
	})
}

func (c *client) readPump(ctx context.Context) {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn(ctx, "WebSocket closed unexpectedly", logger.WithError(err))
			}
			return
		}
		env, err := events.Unmarshal(data)
		if err != nil {
			c.log.Debug(ctx, "Discarding malformed frame", logger.WithError(err))
			continue
		}
		c.handle(env.Context(ctx), env)
	}
}

func (c *client) handle(ctx context.Context, env events.Envelope) {
	switch env.Event {
	case events.JoinOrder, events.LeaveOrder:
		var ref events.OrderRef
		if err := env.Decode(&ref); err != nil {
			c.log.Debug(ctx, "Bad room request", logger.WithError(err))
			return
		}
		if env.Event == events.JoinOrder {
			c.hub.Join(ctx, c, ref.OrderID)
		} else {
			c.hub.Leave(c, ref.OrderID)
		}
	case events.RiderLocationUpdate:
		var p events.LocationPayload
		if err := env.Decode(&p); err != nil {
			c.log.Debug(ctx, "Bad location update", logger.WithError(err))
			return
		}
		if _, err := c.hub.PublishLocation(ctx, p); err != nil && !errors.Is(err, ErrThrottled) {
			c.log.Debug(ctx, "Location update rejected", logger.String("order_id", p.OrderID), logger.WithError(err))
		}
	default:
		c.log.Debug(ctx, "Ignoring client event", logger.String("event", env.Event))
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// Server upgrades HTTP requests to live channel connections.
type Server struct {
	hub      *Hub
	log      logger.Logger
	upgrader websocket.Upgrader
}

func NewServer(hub *Hub, log logger.Logger) *Server {
	return &Server{
		hub: hub,
		log: log.With(logger.String("component", "relay_ws")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn(r.Context(), "WebSocket upgrade failed", logger.WithError(err))
		return
	}
	c := &client{
		hub:    s.hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		log:    s.log.With(logger.String("remote", r.RemoteAddr)),
		closed: make(chan struct{}),
	}
	ctx := context.WithoutCancel(r.Context())
	go c.writePump()
	go c.readPump(ctx)
}
