package tracking

import (
	"context"
	"sync"

	"github.com/DioGolang/GoTrack/internal/application/port/outbound"
	"github.com/DioGolang/GoTrack/internal/domain/entity"
	"github.com/DioGolang/GoTrack/pkg/events"
	"github.com/DioGolang/GoTrack/pkg/logger"
	"github.com/DioGolang/GoTrack/pkg/metrics"
)

type PublisherOption func(*Publisher)

// WithErrorHandler receives the sampling error that ended a publishing
// session. It is called at most once per BeginPublishing.
func WithErrorHandler(fn func(error)) PublisherOption {
	return func(p *Publisher) { p.onError = fn }
}

// Publisher pushes the agent's position for one order at a time.
type Publisher struct {
	channels outbound.ChannelProvider
	sampler  outbound.PositionSampler
	log      logger.Logger
	metrics  metrics.Metrics
	onError  func(error)

	mu      sync.Mutex
	orderID string
	release func()
}

func NewPublisher(
	channels outbound.ChannelProvider,
	sampler outbound.PositionSampler,
	log logger.Logger,
	m metrics.Metrics,
	opts ...PublisherOption,
) *Publisher {
	p := &Publisher{
		channels: channels,
		sampler:  sampler,
		log:      log.With(logger.String("component", "location_publisher")),
		metrics:  m,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BeginPublishing starts sampling and emits every sample for orderID. A
// running session is stopped first. Samples taken while the channel is down
// are dropped.
func (p *Publisher) BeginPublishing(ctx context.Context, orderID string) error {
	if orderID == "" {
		return entity.ErrIDIsRequired
	}
	p.StopPublishing()

	ch, release := p.channels.Acquire(ctx)
	p.mu.Lock()
	p.orderID = orderID
	p.release = release
	p.mu.Unlock()

	log := p.log.With(logger.String("order_id", orderID))
	log.Info(ctx, "Publishing rider location")

	p.sampler.Start(ctx,
		func(c entity.Coordinate) {
			payload := events.LocationPayload{
				OrderID:  orderID,
				Location: events.LatLng{Lat: c.Lat, Lng: c.Lng},
			}
			if !c.CapturedAt.IsZero() {
				at := c.CapturedAt
				payload.At = &at
			}
			if err := ch.Emit(ctx, events.RiderLocationUpdate, payload); err != nil {
				p.metrics.RecordLocationPublished("dropped")
				log.Debug(ctx, "Location sample dropped", logger.WithError(err))
				return
			}
			p.metrics.RecordLocationPublished("sent")
		},
		func(err error) {
			p.metrics.RecordLocationPublished("error")
			log.Error(ctx, "Location sampling stopped", logger.WithError(err))
			if p.onError != nil {
				p.onError(err)
			}
		},
	)
	return nil
}

// StopPublishing halts sampling and returns the channel lease. Idempotent.
func (p *Publisher) StopPublishing() {
	p.sampler.Stop()

	p.mu.Lock()
	release := p.release
	orderID := p.orderID
	p.release = nil
	p.orderID = ""
	p.mu.Unlock()

	if release != nil {
		release()
		p.log.Info(context.Background(), "Stopped publishing rider location", logger.String("order_id", orderID))
	}
}

// OrderID returns the order being published, or "" when idle.
func (p *Publisher) OrderID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.orderID
}
