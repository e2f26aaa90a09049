// Package geo turns a position source into a stream of coordinate samples.
package geo

import (
	"context"
	"errors"
	"time"

	"github.com/DioGolang/GoTrack/internal/domain/entity"
)

var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrTimeout             = errors.New("location request timed out")
)

// LocationError classifies a sampling failure. Kind is one of the sentinel
// errors above; Err is the underlying cause, when there is one.
type LocationError struct {
	Kind error
	Err  error
}

func (e *LocationError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *LocationError) Is(target error) bool { return target == e.Kind }

func (e *LocationError) Unwrap() error { return e.Err }

type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	// MaximumAge bounds how old a cached reading may be. Zero forces a fresh
	// reading every time.
	MaximumAge time.Duration
}

func DefaultOptions() Options {
	return Options{HighAccuracy: true, Timeout: 5 * time.Second}
}

// Source yields positions. Next blocks until the next reading is available,
// so a source's own cadence drives the sampling rate.
type Source interface {
	Next(ctx context.Context, opts Options) (entity.Coordinate, error)
}

// StaticSource reports the same point on every tick.
type StaticSource struct {
	Point    entity.Coordinate
	Interval time.Duration
	now      func() time.Time
	first    bool
}

func NewStaticSource(lat, lng float64, interval time.Duration) *StaticSource {
	return &StaticSource{
		Point:    entity.Coordinate{Lat: lat, Lng: lng},
		Interval: interval,
		now:      time.Now,
		first:    true,
	}
}

func (s *StaticSource) Next(ctx context.Context, _ Options) (entity.Coordinate, error) {
	if !s.first {
		if err := sleep(ctx, s.Interval); err != nil {
			return entity.Coordinate{}, err
		}
	}
	s.first = false
	c := s.Point
	c.CapturedAt = s.now()
	return c, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
