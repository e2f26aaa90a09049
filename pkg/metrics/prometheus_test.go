package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheus_ConnectionStateIsExclusive(t *testing.T) {
	m := NewPrometheusMetrics(prometheus.NewRegistry(), "test")

	m.SetConnectionState("connected")
	m.SetConnectionState("lost")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.connectionState.WithLabelValues("lost")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.connectionState.WithLabelValues("connected")))
}

func TestPrometheus_CountersAccumulate(t *testing.T) {
	m := NewPrometheusMetrics(prometheus.NewRegistry(), "test")

	m.RecordStatusEvent("applied")
	m.RecordStatusEvent("applied")
	m.RecordStatusEvent("ignored")
	m.RecordBroadcast("order-status-changed", 3)
	m.RecordUseCaseExecution("AdvanceDelivery", false, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.statusEvents.WithLabelValues("applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statusEvents.WithLabelValues("ignored")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.recipients.WithLabelValues("order-status-changed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.useCaseTotal.WithLabelValues("AdvanceDelivery", "failure")))
}
