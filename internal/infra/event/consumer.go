package event

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/DioGolang/GoTrack/pkg/logger"
	carrier "github.com/DioGolang/GoTrack/pkg/otel"
)

type Consumer struct {
	Conn     *amqp.Connection
	Logger   logger.Logger
	Prefetch int
}

func NewConsumer(conn *amqp.Connection, l logger.Logger) *Consumer {
	return &Consumer{Conn: conn, Logger: l, Prefetch: 10}
}

// Start binds a queue of its own to the fanout exchange and consumes it
// until ctx is done or the delivery channel closes. Every instance calling
// Start receives every message. Successful messages are acked. Poison
// messages are dropped. Other failures are requeued once.
func (c *Consumer) Start(ctx context.Context, exchange string, handler MessageHandler) error {
	ch, err := c.Conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	queueName, err := BindInstanceQueue(ch, exchange)
	if err != nil {
		return fmt.Errorf("error when configuring topology: %w", err)
	}
	if c.Prefetch > 0 {
		if err := ch.Qos(c.Prefetch, 0, false); err != nil {
			return fmt.Errorf("set prefetch: %w", err)
		}
	}

	msgs, err := ch.ConsumeWithContext(ctx, queueName, "", false, true, false, false, nil)
	if err != nil {
		return err
	}

	c.Logger.Info(ctx, "[*] Waiting for messages",
		logger.String("exchange", exchange),
		logger.String("queue", queueName),
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("delivery channel closed")
			}
			c.process(ctx, queueName, d, handler)
		}
	}
}

func (c *Consumer) process(ctx context.Context, queueName string, d amqp.Delivery, handler MessageHandler) {
	ctx = carrier.ExtractAMQP(ctx, d.Headers)
	tracer := otel.GetTracerProvider().Tracer("relay-consumer")
	ctx, span := tracer.Start(ctx, "ConsumeStatus", trace.WithAttributes(
		attribute.String("queue.name", queueName),
		attribute.String("messaging.message_id", d.MessageId),
	))
	defer span.End()

	err := handler(ctx, d.Body, d.Headers)
	if err == nil {
		_ = d.Ack(false)
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	requeue := !errors.Is(err, ErrPoisonMessage) && !d.Redelivered
	c.Logger.Error(ctx, "Message handling failed",
		logger.String("queue", queueName),
		logger.Bool("requeue", requeue),
		logger.WithError(err),
	)
	_ = d.Nack(false, requeue)
}

type exchangeDeclarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
}

type topologyDeclarer interface {
	exchangeDeclarer
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// DeclareExchange declares the durable fanout exchange status changes are
// published to.
func DeclareExchange(ch exchangeDeclarer, exchange string) error {
	return ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil)
}

// BindInstanceQueue declares a server-named, exclusive, auto-delete queue
// bound to exchange and returns its name. The queue lives as long as the
// channel's connection.
func BindInstanceQueue(ch topologyDeclarer, exchange string) (string, error) {
	if err := DeclareExchange(ch, exchange); err != nil {
		return "", err
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return "", err
	}
	if err := ch.QueueBind(q.Name, "", exchange, false, nil); err != nil {
		return "", err
	}
	return q.Name, nil
}
