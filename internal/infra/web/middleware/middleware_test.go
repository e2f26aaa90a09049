package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/DioGolang/GoTrack/pkg/logger"
	"github.com/DioGolang/GoTrack/pkg/metrics"
	"github.com/DioGolang/GoTrack/pkg/ratelimit"
)

type routeCapture struct {
	metrics.Nop
	path   string
	status string
}

func (c *routeCapture) ObserveHTTPRequestDuration(_, path, status string, _ float64) {
	c.path = path
	c.status = status
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	// Arrange
	m := &routeCapture{}
	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Post("/api/v1/orders/{id}/status", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	// Act
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/orders/o1/status", nil))

	// Assert
	assert.Equal(t, "/api/v1/orders/{id}/status", m.path)
	assert.Equal(t, "202", m.status)
}

func TestRateLimit_RejectsBurstPerIP(t *testing.T) {
	l := ratelimit.New(ratelimit.Config{PerSecond: 0.001, Burst: 1, IdleTimeout: time.Minute})
	h := RateLimit(l, logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

func TestClientIP_PrefersFirstForwardedHop(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	assert.Equal(t, "203.0.113.9", clientIP(req))
}

func TestRequestLogger_LogsStatus(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := RequestLogger(logger.NewFromCore(core, "relay"))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil).WithContext(context.Background()))

	if assert.Equal(t, 1, logs.Len()) {
		assert.Equal(t, int64(http.StatusTeapot), logs.All()[0].ContextMap()["status"])
	}
}

func TestRequestLogger_ServerErrorsAtErrorLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := RequestLogger(logger.NewFromCore(core, "relay"))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/orders/o1/status", nil))

	if assert.Equal(t, 1, logs.Len()) {
		assert.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)
	}
}
