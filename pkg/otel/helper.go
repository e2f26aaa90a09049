package otel

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// MarshalTraceContext encodes the span context of ctx for embedding in a
// channel envelope. It returns nil when there is nothing to propagate.
func MarshalTraceContext(ctx context.Context) json.RawMessage {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	if len(carrier) == 0 {
		return nil
	}

	b, err := json.Marshal(carrier)
	if err != nil {
		return nil
	}
	return b
}

// UnmarshalTraceContext restores a span context produced by MarshalTraceContext.
func UnmarshalTraceContext(parentCtx context.Context, data json.RawMessage) context.Context {
	if len(data) == 0 {
		return parentCtx
	}

	carrier := propagation.MapCarrier{}
	if err := json.Unmarshal(data, &carrier); err != nil {
		return parentCtx
	}

	return otel.GetTextMapPropagator().Extract(parentCtx, carrier)
}
