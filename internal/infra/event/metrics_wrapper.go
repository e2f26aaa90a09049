package event

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/DioGolang/GoTrack/pkg/metrics"
)

// WrapResilientConsumer bounds each attempt by timeout and stops calling next
// while the breaker is open. Poison messages do not count as failures.
func WrapResilientConsumer(
	m metrics.Metrics,
	handlerName string,
	timeout time.Duration,
	cb *gobreaker.CircuitBreaker,
	next MessageHandler,
) MessageHandler {
	return func(ctx context.Context, msg []byte, headers map[string]interface{}) error {
		start := time.Now()

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var poison error
		_, err := cb.Execute(func() (interface{}, error) {
			err := next(ctx, msg, headers)
			if errors.Is(err, ErrPoisonMessage) {
				poison = err
				return nil, nil
			}
			return nil, err
		})
		if poison != nil {
			err = poison
		}

		m.RecordUseCaseExecution(handlerName, err == nil, time.Since(start))
		return err
	}
}

func NewBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}
