package outbound

import (
	"context"

	"github.com/DioGolang/GoTrack/pkg/events"
)

type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	// StateLost means reconnection gave up; live updates are paused until
	// the next Connect.
	StateLost
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateLost:
		return "lost"
	default:
		return "disconnected"
	}
}

type EventHandler func(ctx context.Context, env events.Envelope)

type LiveChannel interface {
	JoinOrder(orderID string)
	LeaveOrder(orderID string)
	On(event string, handler EventHandler)
	Off(event string)
	Emit(ctx context.Context, event string, payload any) error
	State() ConnectionState
	WatchState(fn func(ConnectionState)) (unwatch func())
}

// ChannelProvider hands out the process-wide channel. The returned release
// func is idempotent; the transport closes once every holder released.
type ChannelProvider interface {
	Acquire(ctx context.Context) (LiveChannel, func())
}
