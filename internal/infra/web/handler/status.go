package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/DioGolang/GoTrack/internal/application/port/outbound"
	"github.com/DioGolang/GoTrack/internal/domain/entity"
	"github.com/DioGolang/GoTrack/internal/infra/relay"
	"github.com/DioGolang/GoTrack/pkg/events"
	"github.com/DioGolang/GoTrack/pkg/logger"
)

// StatusPublisher delivers a status change to the order's room, directly
// or through the message queue.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, p events.StatusPayload) error
}

type Order struct {
	Publisher StatusPublisher
	Locations outbound.LocationRepository
	Logger    logger.Logger
}

func NewOrderHandler(pub StatusPublisher, locations outbound.LocationRepository, log logger.Logger) *Order {
	return &Order{Publisher: pub, Locations: locations, Logger: log}
}

type statusInput struct {
	Status      string `json:"status"`
	RiderStatus string `json:"riderStatus,omitempty"`
}

// UpdateStatus handles POST /api/v1/orders/{id}/status.
func (h *Order) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var in statusInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p := events.StatusPayload{
		OrderID:     chi.URLParam(r, "id"),
		Status:      in.Status,
		RiderStatus: in.RiderStatus,
	}
	if p.OrderID == "" {
		http.Error(w, entity.ErrIDIsRequired.Error(), http.StatusBadRequest)
		return
	}
	if _, err := relay.ValidateStatus(p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Publisher.PublishStatus(r.Context(), p); err != nil {
		h.Logger.Error(r.Context(), "Status not published",
			logger.String("order_id", p.OrderID),
			logger.WithError(err),
		)
		status := http.StatusInternalServerError
		if errors.Is(err, entity.ErrUnknownStatus) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, http.StatusAccepted, p)
}

type nearbyOutput struct {
	OrderID  string        `json:"orderId"`
	Location events.LatLng `json:"location"`
}

// Nearby handles GET /api/v1/riders/nearby?lat=..&lng=..&radius=..
func (h *Order) Nearby(w http.ResponseWriter, r *http.Request) {
	if h.Locations == nil {
		http.Error(w, "location index disabled", http.StatusServiceUnavailable)
		return
	}
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		http.Error(w, "lat and lng are required", http.StatusBadRequest)
		return
	}
	if _, err := entity.NewCoordinate(lat, lng, time.Time{}); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	radius := 5.0
	if v := q.Get("radius"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			radius = parsed
		}
	}

	found, err := h.Locations.Nearby(r.Context(), lat, lng, radius, 20)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]nearbyOutput, len(found))
	for i, l := range found {
		out[i] = nearbyOutput{OrderID: l.OrderID, Location: events.LatLng{Lat: l.Latitude, Lng: l.Longitude}}
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
