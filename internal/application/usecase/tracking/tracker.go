// Package tracking implements the customer and agent sides of live order
// tracking on top of the shared live channel.
package tracking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DioGolang/GoTrack/internal/application/port/outbound"
	"github.com/DioGolang/GoTrack/internal/domain/entity"
	"github.com/DioGolang/GoTrack/pkg/events"
	"github.com/DioGolang/GoTrack/pkg/logger"
	"github.com/DioGolang/GoTrack/pkg/metrics"
)

type Options struct {
	// StrictLocationOrder drops location events captured before the last
	// applied one. Off by default: the latest event received wins.
	StrictLocationOrder bool
}

// Handlers are invoked from the channel reader goroutine, one at a time.
// Any of them may be nil.
type Handlers struct {
	OnStatus     func(entity.SessionView)
	OnLocation   func(entity.Coordinate)
	OnConnection func(outbound.ConnectionState)
}

// Tracker routes order events from the shared channel to the subscriptions
// observing each order. One Tracker per process.
type Tracker struct {
	channels outbound.ChannelProvider
	gateway  outbound.OrderGateway
	opts     Options
	log      logger.Logger
	metrics  metrics.Metrics

	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

func NewTracker(
	channels outbound.ChannelProvider,
	gateway outbound.OrderGateway,
	opts Options,
	log logger.Logger,
	m metrics.Metrics,
) *Tracker {
	return &Tracker{
		channels: channels,
		gateway:  gateway,
		opts:     opts,
		log:      log.With(logger.String("component", "order_tracker")),
		metrics:  m,
		subs:     make(map[string]map[*Subscription]struct{}),
	}
}

// Observe joins the order's room, starts routing its events to h and then
// seeds the projection from the REST snapshot. Events that arrive before the
// snapshot are kept; the snapshot can only move the status forward.
func (t *Tracker) Observe(ctx context.Context, orderID string, h Handlers) (*Subscription, error) {
	start := time.Now()
	sub, err := t.observe(ctx, orderID, h)
	t.metrics.RecordUseCaseExecution("ObserveOrder", err == nil, time.Since(start))
	return sub, err
}

func (t *Tracker) observe(ctx context.Context, orderID string, h Handlers) (*Subscription, error) {
	var opts []entity.SessionOption
	if t.opts.StrictLocationOrder {
		opts = append(opts, entity.WithStrictLocationOrder())
	}
	session, err := entity.NewOrderSession(orderID, opts...)
	if err != nil {
		return nil, err
	}

	ch, release := t.channels.Acquire(ctx)
	sub := &Subscription{
		tracker:  t,
		orderID:  orderID,
		handlers: h,
		session:  session,
		ch:       ch,
		release:  release,
	}
	sub.unwatch = ch.WatchState(sub.onConnection)
	t.register(ch, sub)
	ch.JoinOrder(orderID)

	order, err := t.gateway.FetchOrder(ctx, orderID)
	if err != nil {
		sub.Release()
		return nil, fmt.Errorf("fetch order %s: %w", orderID, err)
	}
	sub.seed(ctx, order)
	return sub, nil
}

func (t *Tracker) register(ch outbound.LiveChannel, sub *Subscription) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.subs) == 0 {
		ch.On(events.OrderStatusChanged, t.routeStatus)
		ch.On(events.RiderLocationChanged, t.routeLocation)
	}
	set, ok := t.subs[sub.orderID]
	if !ok {
		set = make(map[*Subscription]struct{})
		t.subs[sub.orderID] = set
	}
	set[sub] = struct{}{}
	t.metrics.SetActiveRooms(len(t.subs))
}

// unregister reports whether sub was the last observer of its order.
func (t *Tracker) unregister(ch outbound.LiveChannel, sub *Subscription) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	set := t.subs[sub.orderID]
	delete(set, sub)
	last := len(set) == 0
	if last {
		delete(t.subs, sub.orderID)
	}
	if len(t.subs) == 0 {
		ch.Off(events.OrderStatusChanged)
		ch.Off(events.RiderLocationChanged)
	}
	t.metrics.SetActiveRooms(len(t.subs))
	return last
}

func (t *Tracker) observers(orderID string) []*Subscription {
	t.mu.Lock()
	defer t.mu.Unlock()
	set := t.subs[orderID]
	out := make([]*Subscription, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	return out
}

func (t *Tracker) routeStatus(ctx context.Context, env events.Envelope) {
	var p events.StatusPayload
	if err := env.Decode(&p); err != nil {
		t.metrics.RecordStatusEvent("malformed")
		t.log.Warn(ctx, "Malformed status event", logger.WithError(err))
		return
	}
	subs := t.observers(p.OrderID)
	if len(subs) == 0 {
		t.metrics.RecordStatusEvent("stale")
		t.log.Debug(ctx, "Status event for unobserved order", logger.String("order_id", p.OrderID))
		return
	}
	for _, s := range subs {
		s.applyStatus(ctx, p)
	}
}

func (t *Tracker) routeLocation(ctx context.Context, env events.Envelope) {
	var p events.LocationPayload
	if err := env.Decode(&p); err != nil {
		t.metrics.RecordLocationEvent("malformed")
		t.log.Warn(ctx, "Malformed location event", logger.WithError(err))
		return
	}
	subs := t.observers(p.OrderID)
	if len(subs) == 0 {
		t.metrics.RecordLocationEvent("stale")
		t.log.Debug(ctx, "Location event for unobserved order", logger.String("order_id", p.OrderID))
		return
	}

	c := entity.Coordinate{Lat: p.Location.Lat, Lng: p.Location.Lng}
	if p.At != nil {
		c.CapturedAt = *p.At
	}
	if err := c.Validate(); err != nil {
		t.metrics.RecordLocationEvent("invalid")
		t.log.Warn(ctx, "Discarding location event", logger.String("order_id", p.OrderID), logger.WithError(err))
		return
	}
	for _, s := range subs {
		s.applyLocation(ctx, c)
	}
}
