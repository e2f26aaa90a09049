package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/DioGolang/GoTrack/pkg/events"
	"github.com/DioGolang/GoTrack/pkg/logger"
	carrier "github.com/DioGolang/GoTrack/pkg/otel"
)

// AMQPPublisher is the publishing side of an *amqp.Channel.
type AMQPPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Dispatcher publishes status changes to a fanout exchange. Each relay
// instance binds its own queue to it, so every instance fans them out to its
// own rooms.
type Dispatcher struct {
	mu       sync.Mutex
	ch       AMQPPublisher
	exchange string
	logger   logger.Logger
}

func NewDispatcher(ch AMQPPublisher, exchange string, l logger.Logger) *Dispatcher {
	return &Dispatcher{ch: ch, exchange: exchange, logger: l}
}

func (d *Dispatcher) PublishStatus(ctx context.Context, p events.StatusPayload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	id := uuid.NewString()
	headers := amqp.Table{HeaderEventID: id}
	carrier.InjectAMQP(ctx, headers)

	d.mu.Lock()
	err = d.ch.PublishWithContext(ctx, d.exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    id,
		Timestamp:    time.Now(),
		Headers:      headers,
		Body:         body,
	})
	d.mu.Unlock()
	if err != nil {
		d.logger.Error(ctx, "Failed to publish status", logger.String("order_id", p.OrderID), logger.WithError(err))
		return fmt.Errorf("publish status: %w", err)
	}
	d.logger.Debug(ctx, "Status published",
		logger.String("order_id", p.OrderID),
		logger.String("event_id", id),
	)
	return nil
}
