package otel

import (
	"context"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func sampledContext(t *testing.T) (context.Context, trace.SpanContext) {
	t.Helper()
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	return trace.ContextWithSpanContext(context.Background(), sc), sc
}

func TestTraceContext_RoundTripThroughJSON(t *testing.T) {
	ctx, sc := sampledContext(t)

	raw := MarshalTraceContext(ctx)
	require.NotNil(t, raw)

	restored := UnmarshalTraceContext(context.Background(), raw)
	got := trace.SpanContextFromContext(restored)
	assert.Equal(t, sc.TraceID(), got.TraceID())
	assert.Equal(t, sc.SpanID(), got.SpanID())
}

func TestMarshalTraceContext_EmptyWithoutSpan(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	assert.Nil(t, MarshalTraceContext(context.Background()))
}

func TestUnmarshalTraceContext_IgnoresGarbage(t *testing.T) {
	parent := context.Background()
	assert.Equal(t, parent, UnmarshalTraceContext(parent, []byte("not json")))
}

func TestAMQPCarrier_RoundTrip(t *testing.T) {
	ctx, sc := sampledContext(t)

	headers := amqp.Table{}
	InjectAMQP(ctx, headers)
	assert.NotEmpty(t, AMQPHeadersCarrier(headers).Get("traceparent"))

	got := trace.SpanContextFromContext(ExtractAMQP(context.Background(), headers))
	assert.Equal(t, sc.TraceID(), got.TraceID())
}
