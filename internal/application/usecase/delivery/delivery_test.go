package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DioGolang/GoTrack/internal/domain/entity"
)

type stubGateway struct {
	order    *entity.Order
	fetchErr error
	putErr   error
	active   bool

	updated  []entity.DeliveryStatus
	accepted []string
}

func (g *stubGateway) FetchOrder(_ context.Context, id string) (*entity.Order, error) {
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	o := *g.order
	o.ID = id
	return &o, nil
}

func (g *stubGateway) UpdateDeliveryStatus(_ context.Context, _ string, s entity.DeliveryStatus) error {
	if g.putErr != nil {
		return g.putErr
	}
	g.updated = append(g.updated, s)
	return nil
}

func (g *stubGateway) AcceptOrder(_ context.Context, id string) error {
	if g.putErr != nil {
		return g.putErr
	}
	g.accepted = append(g.accepted, id)
	return nil
}

func (g *stubGateway) ToggleAvailability(context.Context) (bool, error) {
	if g.putErr != nil {
		return false, g.putErr
	}
	g.active = !g.active
	return g.active, nil
}

type captureMetrics struct {
	name    string
	success bool
}

func (c *captureMetrics) RecordStatusEvent(string)                                   {}
func (c *captureMetrics) RecordLocationEvent(string)                                 {}
func (c *captureMetrics) RecordLocationPublished(string)                             {}
func (c *captureMetrics) RecordReconnectAttempt(string)                              {}
func (c *captureMetrics) SetConnectionState(string)                                  {}
func (c *captureMetrics) ObserveHTTPRequestDuration(string, string, string, float64) {}
func (c *captureMetrics) ObserveRESTCallDuration(string, string, float64)            {}
func (c *captureMetrics) RecordBroadcast(string, int)                                {}
func (c *captureMetrics) SetActiveRooms(int)                                         {}

func (c *captureMetrics) RecordUseCaseExecution(name string, success bool, _ time.Duration) {
	c.name = name
	c.success = success
}

func orderAt(d entity.DeliveryStatus) *entity.Order {
	return &entity.Order{
		Status:         entity.StatusReady,
		DeliveryStatus: d,
		Rider:          &entity.Party{ID: "r1"},
	}
}

func TestAdvanceUseCase(t *testing.T) {
	tests := []struct {
		name      string
		current   entity.DeliveryStatus
		noRider   bool
		target    string
		want      entity.DeliveryStatus
		expectErr error
	}{
		{name: "accepted to picked_up", current: entity.DeliveryAccepted, target: "picked_up", want: entity.DeliveryPickedUp},
		{name: "picked_up to delivered", current: entity.DeliveryPickedUp, target: "delivered", want: entity.DeliveryDelivered},
		{name: "assigned rider without status counts as accepted", current: entity.DeliveryUnassigned, target: "picked_up", want: entity.DeliveryPickedUp},
		{name: "skip step", current: entity.DeliveryAccepted, target: "delivered", expectErr: entity.ErrInvalidStateTransition},
		{name: "backwards", current: entity.DeliveryDelivered, target: "picked_up", expectErr: entity.ErrInvalidStateTransition},
		{name: "not assigned", current: entity.DeliveryUnassigned, noRider: true, target: "picked_up", expectErr: entity.ErrInvalidStateTransition},
		{name: "unknown status", current: entity.DeliveryAccepted, target: "teleported", expectErr: entity.ErrUnknownStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			o := orderAt(tt.current)
			if tt.noRider {
				o.Rider = nil
			}
			gw := &stubGateway{order: o}
			uc := NewAdvanceUseCase(gw)

			// Act
			out, err := uc.Execute(context.Background(), AdvanceInput{OrderID: "o1", Status: tt.target})

			// Assert
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				assert.Empty(t, gw.updated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []entity.DeliveryStatus{tt.want}, gw.updated)
			assert.Equal(t, AdvanceOutput{OrderID: "o1", Status: tt.want.String()}, out)
		})
	}
}

func TestAdvanceUseCase_GatewayErrors(t *testing.T) {
	boom := errors.New("503")

	_, err := NewAdvanceUseCase(&stubGateway{fetchErr: boom}).Execute(context.Background(), AdvanceInput{OrderID: "o1", Status: "picked_up"})
	assert.ErrorIs(t, err, boom)

	_, err = NewAdvanceUseCase(&stubGateway{order: orderAt(entity.DeliveryAccepted), putErr: boom}).
		Execute(context.Background(), AdvanceInput{OrderID: "o1", Status: "picked_up"})
	assert.ErrorIs(t, err, boom)
}

func TestAcceptUseCase(t *testing.T) {
	gw := &stubGateway{}
	uc := NewAcceptUseCase(gw)

	assert.ErrorIs(t, uc.Execute(context.Background(), AcceptInput{}), entity.ErrIDIsRequired)
	require.NoError(t, uc.Execute(context.Background(), AcceptInput{OrderID: "o1"}))
	assert.Equal(t, []string{"o1"}, gw.accepted)
}

func TestToggleUseCase(t *testing.T) {
	uc := NewToggleUseCase(&stubGateway{})

	first, err := uc.Execute(context.Background())
	require.NoError(t, err)
	second, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.True(t, first.Active)
	assert.False(t, second.Active)
}

func TestMetricsDecorators(t *testing.T) {
	m := &captureMetrics{}
	gw := &stubGateway{order: orderAt(entity.DeliveryAccepted)}

	_, err := AdvanceMetricsDecorator{Next: NewAdvanceUseCase(gw), Metrics: m}.
		Execute(context.Background(), AdvanceInput{OrderID: "o1", Status: "delivered"})
	assert.Error(t, err)
	assert.Equal(t, "AdvanceDelivery", m.name)
	assert.False(t, m.success)

	require.NoError(t, AcceptMetricsDecorator{Next: NewAcceptUseCase(gw), Metrics: m}.
		Execute(context.Background(), AcceptInput{OrderID: "o1"}))
	assert.Equal(t, "AcceptOrder", m.name)
	assert.True(t, m.success)

	_, err = ToggleMetricsDecorator{Next: NewToggleUseCase(gw), Metrics: m}.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ToggleAvailability", m.name)
}
