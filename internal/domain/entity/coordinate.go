package entity

import (
	"fmt"
	"time"
)

// Coordinate is a single position sample. It is never persisted by the
// client; only the most recent one matters.
type Coordinate struct {
	Lat        float64
	Lng        float64
	CapturedAt time.Time
}

func NewCoordinate(lat, lng float64, at time.Time) (Coordinate, error) {
	c := Coordinate{Lat: lat, Lng: lng, CapturedAt: at}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: lat %f", ErrInvalidCoordinate, c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: lng %f", ErrInvalidCoordinate, c.Lng)
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f, %.4f", c.Lat, c.Lng)
}
