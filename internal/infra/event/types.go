// Package event moves order status changes through RabbitMQ: a dispatcher
// publishing them and a consumer feeding them to the relay hub, with
// composable guards around the handler.
package event

import (
	"context"
	"errors"
)

const HeaderEventID = "x-event-id"

type MessageHandler func(ctx context.Context, msg []byte, headers map[string]interface{}) error

// ErrPoisonMessage marks a message that can never succeed. The consumer
// drops it without requeue and the retry guard does not retry it.
var ErrPoisonMessage = errors.New("poison message")
