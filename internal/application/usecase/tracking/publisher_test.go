package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DioGolang/GoTrack/internal/domain/entity"
	"github.com/DioGolang/GoTrack/pkg/events"
	"github.com/DioGolang/GoTrack/pkg/logger"
	"github.com/DioGolang/GoTrack/pkg/metrics"
)

func newPublisher(opts ...PublisherOption) (*Publisher, *fakeProvider, *fakeSampler) {
	p := &fakeProvider{ch: newFakeChannel()}
	s := &fakeSampler{}
	return NewPublisher(p, s, logger.NewNop(), metrics.NewNop(), opts...), p, s
}

func TestPublisher_EmitsEverySample(t *testing.T) {
	// Arrange
	pub, p, s := newPublisher()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Act
	require.NoError(t, pub.BeginPublishing(context.Background(), "o1"))
	s.sample(entity.Coordinate{Lat: 12.97, Lng: 77.59, CapturedAt: at})
	s.sample(entity.Coordinate{Lat: 12.98, Lng: 77.60})

	// Assert
	sent := p.ch.emitted()
	require.Len(t, sent, 2)
	assert.Equal(t, events.RiderLocationUpdate, sent[0].event)
	first := sent[0].payload.(events.LocationPayload)
	assert.Equal(t, "o1", first.OrderID)
	assert.Equal(t, events.LatLng{Lat: 12.97, Lng: 77.59}, first.Location)
	require.NotNil(t, first.At)
	assert.Equal(t, at, *first.At)
	assert.Nil(t, sent[1].payload.(events.LocationPayload).At)
	assert.Equal(t, "o1", pub.OrderID())
	assert.Equal(t, 1, p.Refs())
}

func TestPublisher_DropsSamplesWhileDisconnected(t *testing.T) {
	pub, p, s := newPublisher()
	require.NoError(t, pub.BeginPublishing(context.Background(), "o1"))
	p.ch.emitErr = errOffline

	s.sample(entity.Coordinate{Lat: 1, Lng: 1})
	p.ch.emitErr = nil
	s.sample(entity.Coordinate{Lat: 2, Lng: 2})

	sent := p.ch.emitted()
	require.Len(t, sent, 1)
	assert.Equal(t, 2.0, sent[0].payload.(events.LocationPayload).Location.Lat)
}

func TestPublisher_StopReleasesLeaseAndIsIdempotent(t *testing.T) {
	pub, p, s := newPublisher()
	require.NoError(t, pub.BeginPublishing(context.Background(), "o1"))

	pub.StopPublishing()
	pub.StopPublishing()
	s.sample(entity.Coordinate{Lat: 1, Lng: 1})

	assert.Equal(t, 0, p.Refs())
	assert.Empty(t, p.ch.emitted())
	assert.Equal(t, "", pub.OrderID())
}

func TestPublisher_RestartStopsPreviousSession(t *testing.T) {
	// Arrange
	pub, p, s := newPublisher()
	require.NoError(t, pub.BeginPublishing(context.Background(), "o1"))

	// Act
	require.NoError(t, pub.BeginPublishing(context.Background(), "o2"))
	s.sample(entity.Coordinate{Lat: 1, Lng: 1})

	// Assert
	assert.Equal(t, 2, s.starts)
	assert.GreaterOrEqual(t, s.stops, 1)
	assert.Equal(t, 1, p.Refs())
	sent := p.ch.emitted()
	require.Len(t, sent, 1)
	assert.Equal(t, "o2", sent[0].payload.(events.LocationPayload).OrderID)
	pub.StopPublishing()
}

func TestPublisher_ForwardsSamplingErrorOnce(t *testing.T) {
	var got []error
	pub, p, s := newPublisher(WithErrorHandler(func(err error) { got = append(got, err) }))
	require.NoError(t, pub.BeginPublishing(context.Background(), "o1"))
	denied := errors.New("permission denied")

	s.fail(denied)
	s.fail(denied)

	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0], denied)
	assert.Equal(t, 1, p.Refs(), "lease is kept until StopPublishing")
	pub.StopPublishing()
	assert.Equal(t, 0, p.Refs())
}

func TestPublisher_RequiresOrderID(t *testing.T) {
	pub, p, s := newPublisher()

	err := pub.BeginPublishing(context.Background(), "")

	assert.ErrorIs(t, err, entity.ErrIDIsRequired)
	assert.Equal(t, 0, s.starts)
	assert.Equal(t, 0, p.acquired)
}
