package outbound

import (
	"context"

	"github.com/DioGolang/GoTrack/internal/domain/entity"
)

// OrderGateway is the order REST API as seen by the tracking clients.
type OrderGateway interface {
	FetchOrder(ctx context.Context, id string) (*entity.Order, error)
	UpdateDeliveryStatus(ctx context.Context, id string, status entity.DeliveryStatus) error
	AcceptOrder(ctx context.Context, id string) error
	ToggleAvailability(ctx context.Context) (bool, error)
}
