// Package events defines the live channel wire protocol shared by the
// tracking clients and the relay server.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DioGolang/GoTrack/pkg/otel"
)

const (
	JoinOrder            = "join-order"
	LeaveOrder           = "leave-order"
	RiderLocationUpdate  = "rider-location-update"
	OrderStatusChanged   = "order-status-changed"
	RiderLocationChanged = "rider-location-changed"
)

// Envelope is the unit written on the socket. Trace carries the W3C trace
// context of the sender, when there is one.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	Trace json.RawMessage `json:"trace,omitempty"`
}

type OrderRef struct {
	OrderID string `json:"orderId"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type LocationPayload struct {
	OrderID  string     `json:"orderId"`
	Location LatLng     `json:"location"`
	At       *time.Time `json:"at,omitempty"`
}

type StatusPayload struct {
	OrderID     string `json:"orderId"`
	Status      string `json:"status"`
	RiderStatus string `json:"riderStatus,omitempty"`
}

func NewEnvelope(ctx context.Context, event string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return Envelope{
		Event: event,
		Data:  data,
		Trace: otel.MarshalTraceContext(ctx),
	}, nil
}

func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%s: empty payload", e.Event)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Event, err)
	}
	return nil
}

// Context returns ctx continued with the sender's trace, if any.
func (e Envelope) Context(ctx context.Context) context.Context {
	return otel.UnmarshalTraceContext(ctx, e.Trace)
}

func Marshal(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

func Unmarshal(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, err
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("envelope without event name")
	}
	return env, nil
}
