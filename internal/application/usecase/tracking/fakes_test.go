package tracking

import (
	"context"
	"errors"
	"sync"

	"github.com/DioGolang/GoTrack/internal/application/port/outbound"
	"github.com/DioGolang/GoTrack/internal/domain/entity"
	"github.com/DioGolang/GoTrack/pkg/events"
)

var errOffline = errors.New("offline")

type emitted struct {
	event   string
	payload any
}

type fakeChannel struct {
	mu       sync.Mutex
	handlers map[string]outbound.EventHandler
	rooms    map[string]int
	left     []string
	emits    []emitted
	watchers map[int]func(outbound.ConnectionState)
	nextID   int
	state    outbound.ConnectionState
	emitErr  error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		handlers: make(map[string]outbound.EventHandler),
		rooms:    make(map[string]int),
		watchers: make(map[int]func(outbound.ConnectionState)),
		state:    outbound.StateConnected,
	}
}

func (c *fakeChannel) JoinOrder(id string) {
	c.mu.Lock()
	c.rooms[id]++
	c.mu.Unlock()
}

func (c *fakeChannel) LeaveOrder(id string) {
	c.mu.Lock()
	delete(c.rooms, id)
	c.left = append(c.left, id)
	c.mu.Unlock()
}

func (c *fakeChannel) On(event string, h outbound.EventHandler) {
	c.mu.Lock()
	c.handlers[event] = h
	c.mu.Unlock()
}

func (c *fakeChannel) Off(event string) {
	c.mu.Lock()
	delete(c.handlers, event)
	c.mu.Unlock()
}

func (c *fakeChannel) Emit(_ context.Context, event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.emitErr != nil {
		return c.emitErr
	}
	c.emits = append(c.emits, emitted{event: event, payload: payload})
	return nil
}

func (c *fakeChannel) State() outbound.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *fakeChannel) WatchState(fn func(outbound.ConnectionState)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.watchers[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
	}
}

func (c *fakeChannel) setState(st outbound.ConnectionState) {
	c.mu.Lock()
	c.state = st
	var ws []func(outbound.ConnectionState)
	for _, w := range c.watchers {
		ws = append(ws, w)
	}
	c.mu.Unlock()
	for _, w := range ws {
		w(st)
	}
}

// deliver runs the registered handler synchronously, as the reader goroutine would.
func (c *fakeChannel) deliver(event string, payload any) bool {
	c.mu.Lock()
	h := c.handlers[event]
	c.mu.Unlock()
	if h == nil {
		return false
	}
	env, err := events.NewEnvelope(context.Background(), event, payload)
	if err != nil {
		panic(err)
	}
	h(context.Background(), env)
	return true
}

func (c *fakeChannel) hasHandler(event string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.handlers[event]
	return ok
}

func (c *fakeChannel) emitted() []emitted {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]emitted(nil), c.emits...)
}

type fakeProvider struct {
	ch *fakeChannel

	mu       sync.Mutex
	refs     int
	acquired int
}

func (p *fakeProvider) Acquire(context.Context) (outbound.LiveChannel, func()) {
	p.mu.Lock()
	p.refs++
	p.acquired++
	p.mu.Unlock()
	var once sync.Once
	return p.ch, func() {
		once.Do(func() {
			p.mu.Lock()
			p.refs--
			p.mu.Unlock()
		})
	}
}

func (p *fakeProvider) Refs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refs
}

type fakeGateway struct {
	order *entity.Order
	err   error
	// before runs inside FetchOrder, to simulate events racing the snapshot.
	before func()
}

func (g *fakeGateway) FetchOrder(_ context.Context, id string) (*entity.Order, error) {
	if g.before != nil {
		g.before()
	}
	if g.err != nil {
		return nil, g.err
	}
	o := *g.order
	o.ID = id
	return &o, nil
}

func (g *fakeGateway) UpdateDeliveryStatus(context.Context, string, entity.DeliveryStatus) error {
	return nil
}

func (g *fakeGateway) AcceptOrder(context.Context, string) error { return nil }

func (g *fakeGateway) ToggleAvailability(context.Context) (bool, error) { return true, nil }

type fakeSampler struct {
	mu       sync.Mutex
	onSample func(entity.Coordinate)
	onError  func(error)
	starts   int
	stops    int
}

func (s *fakeSampler) Start(_ context.Context, onSample func(entity.Coordinate), onError func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSample = onSample
	s.onError = onError
	s.starts++
}

func (s *fakeSampler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSample = nil
	s.onError = nil
	s.stops++
}

func (s *fakeSampler) sample(c entity.Coordinate) {
	s.mu.Lock()
	fn := s.onSample
	s.mu.Unlock()
	if fn != nil {
		fn(c)
	}
}

func (s *fakeSampler) fail(err error) {
	s.mu.Lock()
	fn := s.onError
	s.onSample = nil
	s.onError = nil
	s.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}
