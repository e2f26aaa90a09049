package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hellofresh/health-go/v5"
	healthRabbit "github.com/hellofresh/health-go/v5/checks/rabbitmq"
	"github.com/redis/go-redis/v9"
)

type healthOptions struct {
	checks []*health.Config
}

type HealthOption func(*healthOptions)

// WithRooms reports degraded when the relay holds more rooms than limit.
func WithRooms(count func() int, limit int) HealthOption {
	return func(o *healthOptions) {
		if count == nil || limit <= 0 {
			return
		}
		o.checks = append(o.checks, &health.Config{
			Name:      "relay-rooms",
			Timeout:   time.Second,
			SkipOnErr: true,
			Check: func(context.Context) error {
				if n := count(); n > limit {
					return fmt.Errorf("%d active rooms over limit %d", n, limit)
				}
				return nil
			},
		})
	}
}

func WithRedis(rdb *redis.Client) HealthOption {
	return func(o *healthOptions) {
		if rdb == nil {
			return
		}
		o.checks = append(o.checks, &health.Config{
			Name:      "redis",
			Timeout:   3 * time.Second,
			SkipOnErr: false,
			Check: func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			},
		})
	}
}

func WithRabbitMQ(dsn string) HealthOption {
	return func(o *healthOptions) {
		if dsn == "" {
			return
		}
		o.checks = append(o.checks, &health.Config{
			Name:      "rabbitmq",
			Timeout:   3 * time.Second,
			SkipOnErr: false,
			Check: healthRabbit.New(healthRabbit.Config{
				DSN: dsn,
			}),
		})
	}
}

func NewHealthHandler(serviceName, version string, opts ...HealthOption) (http.Handler, error) {
	options := &healthOptions{
		checks: make([]*health.Config, 0),
	}

	for _, opt := range opts {
		opt(options)
	}

	h, err := health.New(health.WithComponent(health.Component{
		Name:    serviceName,
		Version: version,
	}))
	if err != nil {
		return nil, err
	}

	for _, check := range options.checks {
		if err := h.Register(*check); err != nil {
			return nil, err
		}
	}

	return h.Handler(), nil
}
