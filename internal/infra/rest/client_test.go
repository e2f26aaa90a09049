package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DioGolang/GoTrack/internal/domain/entity"
	"github.com/DioGolang/GoTrack/pkg/logger"
	"github.com/DioGolang/GoTrack/pkg/metrics"
)

const orderJSON = `{
  "order": {
    "_id": "o1",
    "restaurant": {"_id": "v1", "name": "Pizza Place"},
    "user": {"_id": "u1", "name": "Ana"},
    "rider": {"_id": "r1", "name": "Rui"},
    "items": [{"product": {"_id": "p1", "name": "Margherita"}, "price": 100, "quantity": 2}],
    "itemsTotal": 200,
    "deliveryFee": 40,
    "totalAmount": 240,
    "riderEarnings": 30,
    "paymentMethod": "cod",
    "orderStatus": "preparing",
    "riderStatus": "accepted",
    "deliveryAddress": {"street": "1 Main St", "city": "Bengaluru", "state": "KA", "pincode": "560001",
      "coordinates": {"lat": 12.97, "lng": 77.59}}
  }
}`

func newClient(t *testing.T, h http.HandlerFunc) *OrderClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewOrderClient(Config{BaseURL: srv.URL + "/api/", Token: "tkn"}, logger.NewNop(), metrics.NewNop())
	require.NoError(t, err)
	return c
}

func TestOrderClient_FetchOrder(t *testing.T) {
	// Arrange
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/orders/o1", r.URL.Path)
		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, orderJSON)
	})

	// Act
	o, err := c.FetchOrder(context.Background(), "o1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "o1", o.ID)
	assert.Equal(t, entity.StatusPreparing, o.Status)
	assert.Equal(t, entity.DeliveryAccepted, o.DeliveryStatus)
	assert.Equal(t, "Pizza Place", o.Vendor.Name)
	require.NotNil(t, o.Rider)
	assert.Equal(t, "r1", o.Rider.ID)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Margherita", o.Items[0].Name)
	assert.Equal(t, 240.0, o.TotalAmount)
	require.NotNil(t, o.DeliveryAddress.Location)
	assert.Equal(t, 12.97, o.DeliveryAddress.Location.Lat)
}

func TestOrderClient_FetchOrderErrors(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
		want error
	}{
		{name: "not found", code: http.StatusNotFound, body: `{}`, want: ErrNotFound},
		{name: "unauthorized", code: http.StatusUnauthorized, body: `{}`, want: ErrUnauthorized},
		{name: "server error", code: http.StatusInternalServerError, body: `boom`, want: ErrUnexpectedStatus},
		{name: "missing order", code: http.StatusOK, body: `{}`, want: ErrNotFound},
		{name: "unknown status", code: http.StatusOK, body: `{"order":{"_id":"o1","orderStatus":"lost"}}`, want: entity.ErrUnknownStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.FetchOrder(context.Background(), "o1")

			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOrderClient_UpdateDeliveryStatus(t *testing.T) {
	var got statusRequest
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/riders/update-delivery-status/o1", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	err := c.UpdateDeliveryStatus(context.Background(), "o1", entity.DeliveryPickedUp)

	require.NoError(t, err)
	assert.Equal(t, "picked_up", got.Status)
	assert.ErrorIs(t, c.UpdateDeliveryStatus(context.Background(), "o1", entity.DeliveryUnassigned), entity.ErrUnknownStatus)
}

func TestOrderClient_AcceptAndToggle(t *testing.T) {
	var paths []string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.URL.Path == "/api/riders/toggle-active" {
			_, _ = io.WriteString(w, `{"rider":{"isActive":true}}`)
		}
	})

	require.NoError(t, c.AcceptOrder(context.Background(), "o7"))
	active, err := c.ToggleAvailability(context.Background())

	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, []string{"PUT /api/riders/accept-order/o7", "PUT /api/riders/toggle-active"}, paths)
}

func TestOrderClient_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	calls := 0
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 5; i++ {
		_, err := c.FetchOrder(context.Background(), "o1")
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
	}
	_, err := c.FetchOrder(context.Background(), "o1")

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnexpectedStatus)
	assert.Equal(t, 5, calls)
}

func TestOrderClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	calls := 0
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 7; i++ {
		_, err := c.FetchOrder(context.Background(), "o1")
		assert.ErrorIs(t, err, ErrNotFound)
	}

	assert.Equal(t, 7, calls)
}
