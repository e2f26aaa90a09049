package geo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedSource_StaysNearOrigin(t *testing.T) {
	// Arrange
	src := NewSimulatedSource(12.9716, 77.5946, time.Millisecond, 42)
	ctx := context.Background()

	// Act
	first, err := src.Next(ctx, DefaultOptions())
	require.NoError(t, err)
	var last = first
	for i := 0; i < 20; i++ {
		last, err = src.Next(ctx, DefaultOptions())
		require.NoError(t, err)
		require.NoError(t, last.Validate())
	}

	// Assert
	assert.Equal(t, 12.9716, first.Lat)
	assert.Equal(t, 77.5946, first.Lng)
	assert.InDelta(t, first.Lat, last.Lat, 0.01)
	assert.InDelta(t, first.Lng, last.Lng, 0.01)
	assert.False(t, last.CapturedAt.IsZero())
}

func TestSimulatedSource_HonoursCancellation(t *testing.T) {
	src := NewSimulatedSource(0, 0, time.Hour, 1)
	_, err := src.Next(context.Background(), DefaultOptions())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = src.Next(ctx, DefaultOptions())

	assert.ErrorIs(t, err, context.Canceled)
}

func TestStaticSource_RepeatsPoint(t *testing.T) {
	src := NewStaticSource(1.5, 2.5, time.Millisecond)

	a, err := src.Next(context.Background(), DefaultOptions())
	require.NoError(t, err)
	b, err := src.Next(context.Background(), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, a.Lat, b.Lat)
	assert.Equal(t, 2.5, b.Lng)
}

func TestLocationError_MatchesKind(t *testing.T) {
	err := &LocationError{Kind: ErrPermissionDenied}

	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "location permission denied", err.Error())
}
