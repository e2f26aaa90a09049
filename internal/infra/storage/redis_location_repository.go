package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/DioGolang/GoTrack/internal/application/port/outbound"
	"github.com/DioGolang/GoTrack/pkg/logger"
)

const riderLocationsKey = "rider_locations"

// RedisLocationRepository keeps the latest rider position per order in a
// geo set, member = order id.
type RedisLocationRepository struct {
	client *redis.Client
	logger logger.Logger
}

var _ outbound.LocationRepository = (*RedisLocationRepository)(nil)

func NewRedisLocationRepository(client *redis.Client, log logger.Logger) *RedisLocationRepository {
	return &RedisLocationRepository{client: client, logger: log}
}

func (r *RedisLocationRepository) UpdateLocation(ctx context.Context, orderID string, lat, lng float64) error {
	r.logger.Debug(ctx, "Redis GeoAdd",
		logger.String("order_id", orderID),
		logger.Float64("lat", lat),
		logger.Float64("lng", lng),
	)

	err := r.client.GeoAdd(ctx, riderLocationsKey, &redis.GeoLocation{
		Name:      orderID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
	if err != nil {
		r.logger.Error(ctx, "Redis GeoAdd failed", logger.WithError(err))
		return err
	}
	return nil
}

// LastLocation returns nil when no position was recorded for the order.
func (r *RedisLocationRepository) LastLocation(ctx context.Context, orderID string) (*outbound.RiderLocation, error) {
	pos, err := r.client.GeoPos(ctx, riderLocationsKey, orderID).Result()
	if err != nil {
		return nil, fmt.Errorf("redis geo pos error: %w", err)
	}
	if len(pos) == 0 || pos[0] == nil {
		return nil, nil
	}
	return &outbound.RiderLocation{
		OrderID:   orderID,
		Latitude:  pos[0].Latitude,
		Longitude: pos[0].Longitude,
	}, nil
}

func (r *RedisLocationRepository) Forget(ctx context.Context, orderID string) error {
	return r.client.ZRem(ctx, riderLocationsKey, orderID).Err()
}

// Nearby lists active deliveries within radiusKm of a point, closest first.
func (r *RedisLocationRepository) Nearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]outbound.RiderLocation, error) {
	r.logger.Debug(ctx, "Redis GeoSearch query",
		logger.Float64("lat", lat),
		logger.Float64("lng", lng),
		logger.Float64("radius", radiusKm),
	)
	results, err := r.client.GeoSearchLocation(ctx, riderLocationsKey,
		&redis.GeoSearchLocationQuery{
			GeoSearchQuery: redis.GeoSearchQuery{
				Latitude:   lat,
				Longitude:  lng,
				Radius:     radiusKm,
				RadiusUnit: "km",
				Sort:       "ASC",
				Count:      limit,
			},
			WithCoord: true,
		},
	).Result()
	if err != nil {
		r.logger.Error(ctx, "Redis command failed", logger.WithError(err))
		return nil, fmt.Errorf("redis geo search error: %w", err)
	}

	locations := make([]outbound.RiderLocation, len(results))
	for i, res := range results {
		locations[i] = outbound.RiderLocation{
			OrderID:   res.Name,
			Latitude:  res.Latitude,
			Longitude: res.Longitude,
		}
	}
	return locations, nil
}
