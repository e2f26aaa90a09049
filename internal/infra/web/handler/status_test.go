package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DioGolang/GoTrack/internal/application/port/outbound"
	"github.com/DioGolang/GoTrack/pkg/events"
	"github.com/DioGolang/GoTrack/pkg/logger"
)

type publisherSpy struct {
	got []events.StatusPayload
	err error
}

func (p *publisherSpy) PublishStatus(_ context.Context, s events.StatusPayload) error {
	if p.err != nil {
		return p.err
	}
	p.got = append(p.got, s)
	return nil
}

type nearbyStub struct {
	outbound.LocationRepository
	found []outbound.RiderLocation
}

func (n nearbyStub) Nearby(context.Context, float64, float64, float64, int) ([]outbound.RiderLocation, error) {
	return n.found, nil
}

func router(h *Order) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/orders/{id}/status", h.UpdateStatus)
	r.Get("/api/v1/riders/nearby", h.Nearby)
	return r
}

func TestOrder_UpdateStatus(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		pubErr   error
		wantCode int
		wantPub  int
	}{
		{name: "accepted", body: `{"status":"preparing"}`, wantCode: http.StatusAccepted, wantPub: 1},
		{name: "agent status", body: `{"status":"picked_up","riderStatus":"picked_up"}`, wantCode: http.StatusAccepted, wantPub: 1},
		{name: "unknown status", body: `{"status":"teleported"}`, wantCode: http.StatusBadRequest},
		{name: "bad json", body: `{`, wantCode: http.StatusBadRequest},
		{name: "publisher down", body: `{"status":"ready"}`, pubErr: errors.New("amqp closed"), wantCode: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			pub := &publisherSpy{err: tt.pubErr}
			h := NewOrderHandler(pub, nil, logger.NewNop())
			req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/o1/status", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			// Act
			router(h).ServeHTTP(rec, req)

			// Assert
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Len(t, pub.got, tt.wantPub)
			if tt.wantPub == 1 {
				assert.Equal(t, "o1", pub.got[0].OrderID)
			}
		})
	}
}

func TestOrder_Nearby(t *testing.T) {
	h := NewOrderHandler(&publisherSpy{}, nearbyStub{found: []outbound.RiderLocation{{OrderID: "o1", Latitude: 12.97, Longitude: 77.59}}}, logger.NewNop())

	rec := httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/riders/nearby?lat=12.9&lng=77.5&radius=3", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var out []nearbyOutput
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	require.Len(t, out, 1)
	assert.Equal(t, "o1", out[0].OrderID)

	rec = httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/riders/nearby?lat=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrder_NearbyWithoutIndex(t *testing.T) {
	h := NewOrderHandler(&publisherSpy{}, nil, logger.NewNop())

	rec := httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/riders/nearby?lat=1&lng=1", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthHandler_RoomsCheck(t *testing.T) {
	rooms := 3
	h, err := NewHealthHandler("relay", "test", WithRooms(func() int { return rooms }, 10))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"OK"`)
}
