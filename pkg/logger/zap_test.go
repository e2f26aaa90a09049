package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_ConvertsTypedFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromCore(core, "tracker")

	log.Info(context.Background(), "sample published",
		String("order_id", "o-1"),
		Int("attempt", 2),
		Float64("lat", 12.5),
		Bool("strict", true),
		Duration("delay", time.Second),
		WithError(errors.New("boom")),
		Lazy("lazy", func() any { return "computed" }),
	)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "tracker", fields["service"])
	assert.Equal(t, "o-1", fields["order_id"])
	assert.Equal(t, int64(2), fields["attempt"])
	assert.Equal(t, 12.5, fields["lat"])
	assert.Equal(t, true, fields["strict"])
	assert.Equal(t, time.Second, fields["delay"])
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, "computed", fields["lazy"])
}

func TestZapLogger_MismatchedKindFallsBackToAny(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromCore(core, "tracker")

	log.Warn(context.Background(), "odd field", Field{Key: "n", Value: 7, Kind: KindString})

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(7), logs.All()[0].ContextMap()["n"])
}

func TestZapLogger_AddsTraceIDsFromSpan(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromCore(core, "tracker")

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	log.With(String("component", "channel")).Error(ctx, "dial failed")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "channel", fields["component"])
	assert.Equal(t, traceID.String(), fields["trace_id"])
	assert.Equal(t, spanID.String(), fields["span_id"])
}

func TestZapLogger_RespectsLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := NewFromCore(core, "tracker")

	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "shown")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "shown", logs.All()[0].Message)
}
