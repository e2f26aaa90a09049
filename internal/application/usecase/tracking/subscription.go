package tracking

import (
	"context"
	"sync"

	"github.com/DioGolang/GoTrack/internal/application/port/outbound"
	"github.com/DioGolang/GoTrack/internal/domain/entity"
	"github.com/DioGolang/GoTrack/pkg/events"
	"github.com/DioGolang/GoTrack/pkg/logger"
)

// Subscription is one live view of an order. It ends on Release or right
// after a terminal status has been delivered.
type Subscription struct {
	tracker  *Tracker
	orderID  string
	handlers Handlers
	ch       outbound.LiveChannel
	release  func()
	unwatch  func()

	mu      sync.Mutex
	session *entity.OrderSession
	closed  bool
}

func (s *Subscription) OrderID() string { return s.orderID }

// State returns a copy of the current projection.
func (s *Subscription) State() entity.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.View()
}

func (s *Subscription) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Release stops routing events to this subscription, leaves the order room
// when nobody else observes it and returns the channel lease. Idempotent.
func (s *Subscription) Release() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.tracker.unregister(s.ch, s) {
		s.ch.LeaveOrder(s.orderID)
	}
	s.unwatch()
	s.release()
}

func (s *Subscription) seed(ctx context.Context, order *entity.Order) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	_, err := s.session.Seed(order)
	view := s.session.View()
	s.mu.Unlock()

	if err != nil {
		s.tracker.log.Warn(ctx, "Order snapshot not applied",
			logger.String("order_id", s.orderID),
			logger.WithError(err),
		)
	}
	s.deliverStatus(view)
}

func (s *Subscription) applyStatus(ctx context.Context, p events.StatusPayload) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	changed, err := s.session.ApplyStatusName(p.Status, p.RiderStatus)
	view := s.session.View()
	s.mu.Unlock()

	switch {
	case err != nil:
		s.tracker.metrics.RecordStatusEvent("unknown")
		s.tracker.log.Warn(ctx, "Dropping status event",
			logger.String("order_id", s.orderID),
			logger.String("status", p.Status),
			logger.WithError(err),
		)
	case !changed:
		s.tracker.metrics.RecordStatusEvent("ignored")
		s.tracker.log.Debug(ctx, "Status event did not advance the order",
			logger.String("order_id", s.orderID),
			logger.String("status", p.Status),
		)
	default:
		s.tracker.metrics.RecordStatusEvent("applied")
		s.deliverStatus(view)
	}
}

func (s *Subscription) applyLocation(ctx context.Context, c entity.Coordinate) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	applied := s.session.ApplyLocation(c)
	s.mu.Unlock()

	if !applied {
		s.tracker.metrics.RecordLocationEvent("out_of_order")
		s.tracker.log.Debug(ctx, "Dropping out-of-order location", logger.String("order_id", s.orderID))
		return
	}
	s.tracker.metrics.RecordLocationEvent("applied")
	if s.handlers.OnLocation != nil {
		s.handlers.OnLocation(c)
	}
}

func (s *Subscription) deliverStatus(view entity.SessionView) {
	if s.handlers.OnStatus != nil {
		s.handlers.OnStatus(view)
	}
	if view.Terminal {
		s.Release()
	}
}

func (s *Subscription) onConnection(state outbound.ConnectionState) {
	if s.Closed() || s.handlers.OnConnection == nil {
		return
	}
	s.handlers.OnConnection(state)
}
