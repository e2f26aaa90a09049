// Package relay is the server end of the live channel: order rooms, agent
// location fan-out and status broadcasts.
package relay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/DioGolang/GoTrack/internal/application/port/outbound"
	"github.com/DioGolang/GoTrack/internal/domain/entity"
	"github.com/DioGolang/GoTrack/pkg/events"
	"github.com/DioGolang/GoTrack/pkg/logger"
	"github.com/DioGolang/GoTrack/pkg/metrics"
	"github.com/DioGolang/GoTrack/pkg/ratelimit"
)

var ErrThrottled = errors.New("location update throttled")

// Peer is anything the hub can deliver frames to.
type Peer interface {
	Send(frame []byte) bool
}

type Hub struct {
	locations outbound.LocationRepository
	limiter   *ratelimit.KeyedLimiter
	log       logger.Logger
	metrics   metrics.Metrics

	mu    sync.RWMutex
	rooms map[string]map[Peer]struct{}
}

// NewHub builds a hub. locations and limiter are optional.
func NewHub(locations outbound.LocationRepository, limiter *ratelimit.KeyedLimiter, log logger.Logger, m metrics.Metrics) *Hub {
	return &Hub{
		locations: locations,
		limiter:   limiter,
		log:       log.With(logger.String("component", "relay_hub")),
		metrics:   m,
		rooms:     make(map[string]map[Peer]struct{}),
	}
}

// Join adds p to the order's room and replays the last known rider
// position to it.
func (h *Hub) Join(ctx context.Context, p Peer, orderID string) {
	if orderID == "" {
		return
	}
	h.mu.Lock()
	room, ok := h.rooms[orderID]
	if !ok {
		room = make(map[Peer]struct{})
		h.rooms[orderID] = room
	}
	room[p] = struct{}{}
	n := len(h.rooms)
	h.mu.Unlock()
	h.metrics.SetActiveRooms(n)

	if h.locations == nil {
		return
	}
	last, err := h.locations.LastLocation(ctx, orderID)
	if err != nil {
		h.log.Warn(ctx, "Last location lookup failed", logger.String("order_id", orderID), logger.WithError(err))
		return
	}
	if last == nil {
		return
	}
	frame, err := encode(ctx, events.RiderLocationChanged, events.LocationPayload{
		OrderID:  orderID,
		Location: events.LatLng{Lat: last.Latitude, Lng: last.Longitude},
	})
	if err == nil {
		p.Send(frame)
	}
}

func (h *Hub) Leave(p Peer, orderID string) {
	h.mu.Lock()
	if room, ok := h.rooms[orderID]; ok {
		delete(room, p)
		if len(room) == 0 {
			delete(h.rooms, orderID)
		}
	}
	n := len(h.rooms)
	h.mu.Unlock()
	h.metrics.SetActiveRooms(n)
}

// Drop removes p from every room.
func (h *Hub) Drop(p Peer) {
	h.mu.Lock()
	for id, room := range h.rooms {
		delete(room, p)
		if len(room) == 0 {
			delete(h.rooms, id)
		}
	}
	n := len(h.rooms)
	h.mu.Unlock()
	h.metrics.SetActiveRooms(n)
}

func (h *Hub) Rooms() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) Members(orderID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[orderID])
}

// PublishLocation records an agent sample and forwards it to the order's
// room. Samples over the per-order rate are rejected with ErrThrottled.
func (h *Hub) PublishLocation(ctx context.Context, p events.LocationPayload) (int, error) {
	if p.OrderID == "" {
		return 0, entity.ErrIDIsRequired
	}
	if _, err := entity.NewCoordinate(p.Location.Lat, p.Location.Lng, time.Time{}); err != nil {
		return 0, err
	}
	if h.limiter != nil && !h.limiter.Allow(p.OrderID) {
		return 0, ErrThrottled
	}
	if h.locations != nil {
		if err := h.locations.UpdateLocation(ctx, p.OrderID, p.Location.Lat, p.Location.Lng); err != nil {
			h.log.Warn(ctx, "Location not stored", logger.String("order_id", p.OrderID), logger.WithError(err))
		}
	}
	return h.broadcast(ctx, p.OrderID, events.RiderLocationChanged, p)
}

// BroadcastStatus validates a status change and fans it out to the room.
// Terminal statuses also forget the rider's last position.
func (h *Hub) BroadcastStatus(ctx context.Context, p events.StatusPayload) (int, error) {
	if p.OrderID == "" {
		return 0, entity.ErrIDIsRequired
	}
	terminal, err := ValidateStatus(p)
	if err != nil {
		return 0, err
	}
	n, err := h.broadcast(ctx, p.OrderID, events.OrderStatusChanged, p)
	if err != nil {
		return 0, err
	}
	if terminal && h.locations != nil {
		if err := h.locations.Forget(ctx, p.OrderID); err != nil {
			h.log.Warn(ctx, "Location not forgotten", logger.String("order_id", p.OrderID), logger.WithError(err))
		}
	}
	return n, nil
}

func (h *Hub) broadcast(ctx context.Context, orderID, event string, payload any) (int, error) {
	frame, err := encode(ctx, event, payload)
	if err != nil {
		return 0, err
	}

	h.mu.RLock()
	peers := make([]Peer, 0, len(h.rooms[orderID]))
	for p := range h.rooms[orderID] {
		peers = append(peers, p)
	}
	h.mu.RUnlock()

	sent := 0
	for _, p := range peers {
		if p.Send(frame) {
			sent++
		}
	}
	h.metrics.RecordBroadcast(event, sent)
	h.log.Debug(ctx, "Broadcast",
		logger.String("event", event),
		logger.String("order_id", orderID),
		logger.Int("recipients", sent),
	)
	return sent, nil
}

// PublishStatus is BroadcastStatus without the recipient count.
func (h *Hub) PublishStatus(ctx context.Context, p events.StatusPayload) error {
	_, err := h.BroadcastStatus(ctx, p)
	return err
}

// ValidateStatus checks the status names and reports whether they end the
// order.
func ValidateStatus(p events.StatusPayload) (bool, error) {
	terminal := false
	if p.Status == "" && p.RiderStatus == "" {
		return false, entity.ErrUnknownStatus
	}
	if p.Status != "" {
		if st, err := entity.ParseStatus(p.Status); err == nil {
			terminal = st.IsTerminal()
		} else if _, dErr := entity.ParseDeliveryStatus(p.Status); dErr != nil {
			return false, err
		}
	}
	if p.RiderStatus != "" {
		d, err := entity.ParseDeliveryStatus(p.RiderStatus)
		if err != nil {
			return false, err
		}
		terminal = terminal || d.IsTerminal()
	}
	return terminal, nil
}

func encode(ctx context.Context, event string, payload any) ([]byte, error) {
	env, err := events.NewEnvelope(ctx, event, payload)
	if err != nil {
		return nil, err
	}
	return events.Marshal(env)
}
