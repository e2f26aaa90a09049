package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DioGolang/GoTrack/pkg/events"
	"github.com/DioGolang/GoTrack/pkg/logger"
)

type StatusSink interface {
	PublishStatus(ctx context.Context, p events.StatusPayload) error
}

// NewStatusHandler decodes a status message and hands it to sink. validate
// rejects payloads that can never be delivered; those become poison.
func NewStatusHandler(sink StatusSink, validate func(events.StatusPayload) (bool, error), log logger.Logger) MessageHandler {
	return func(ctx context.Context, msg []byte, _ map[string]interface{}) error {
		var p events.StatusPayload
		if err := json.Unmarshal(msg, &p); err != nil {
			return fmt.Errorf("%w: decode status: %v", ErrPoisonMessage, err)
		}
		if p.OrderID == "" {
			return fmt.Errorf("%w: missing orderId", ErrPoisonMessage)
		}
		if validate != nil {
			if _, err := validate(p); err != nil {
				return fmt.Errorf("%w: %v", ErrPoisonMessage, err)
			}
		}
		if err := sink.PublishStatus(ctx, p); err != nil {
			return err
		}
		log.Debug(ctx, "Status relayed",
			logger.String("order_id", p.OrderID),
			logger.String("status", p.Status),
		)
		return nil
	}
}
