package outbound

import "context"

type RiderLocation struct {
	OrderID   string
	Latitude  float64
	Longitude float64
}

// LocationRepository keeps the latest rider position per order on the relay
// side so late joiners can be brought up to date.
type LocationRepository interface {
	UpdateLocation(ctx context.Context, orderID string, lat, lng float64) error
	LastLocation(ctx context.Context, orderID string) (*RiderLocation, error)
	Forget(ctx context.Context, orderID string) error
	Nearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]RiderLocation, error)
}
