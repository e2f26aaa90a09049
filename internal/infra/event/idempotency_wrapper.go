package event

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/DioGolang/GoTrack/pkg/logger"
)

type IdempotencyStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}

// WrapIdempotency runs next at most once per event id within ttl. The id is
// the x-event-id header, or a hash of the body. A failed run releases the
// claim so a redelivery can retry.
func WrapIdempotency(
	log logger.Logger,
	store IdempotencyStore,
	handlerName string,
	ttl time.Duration,
	next MessageHandler,
) MessageHandler {
	return func(ctx context.Context, msg []byte, headers map[string]interface{}) error {
		id := EventID(headers, msg)
		key := "dedup:" + handlerName + ":" + id

		claimed, err := store.SetNX(ctx, key, "processing", ttl)
		if err != nil {
			// Fail closed: without the store duplicates cannot be detected.
			log.Error(ctx, "Idempotency store unavailable", logger.WithError(err))
			return fmt.Errorf("idempotency store unavailable: %w", err)
		}
		if !claimed {
			log.Info(ctx, "Duplicate event dropped",
				logger.String("handler", handlerName),
				logger.String("event_id", id),
			)
			return nil
		}

		err = next(ctx, msg, headers)
		if err != nil {
			log.Warn(ctx, "Handler failed, releasing claim",
				logger.String("key", key),
				logger.WithError(err),
			)
			if delErr := store.Del(ctx, key); delErr != nil {
				log.Error(ctx, "Failed to release idempotency claim",
					logger.String("key", key),
					logger.WithError(delErr),
				)
			}
		}
		return err
	}
}

// EventID is the x-event-id header when present, else a hash of the body.
func EventID(headers map[string]interface{}, msg []byte) string {
	if v, ok := headers[HeaderEventID]; ok {
		if id := fmt.Sprint(v); id != "" {
			return id
		}
	}
	return fmt.Sprintf("sha256:%x", sha256.Sum256(msg))
}
