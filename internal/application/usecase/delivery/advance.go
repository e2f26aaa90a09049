package delivery

import (
	"context"
	"fmt"

	"github.com/DioGolang/GoTrack/internal/application/port/outbound"
	"github.com/DioGolang/GoTrack/internal/domain/entity"
)

// AdvanceUseCaseImpl moves a delivery one step along
// accepted -> picked_up -> delivered. The transition is checked locally
// against the current order before the API is called.
type AdvanceUseCaseImpl struct {
	Gateway outbound.OrderGateway
}

func NewAdvanceUseCase(gateway outbound.OrderGateway) *AdvanceUseCaseImpl {
	return &AdvanceUseCaseImpl{Gateway: gateway}
}

func (uc *AdvanceUseCaseImpl) Execute(ctx context.Context, input AdvanceInput) (AdvanceOutput, error) {
	target, err := entity.ParseDeliveryStatus(input.Status)
	if err != nil {
		return AdvanceOutput{}, err
	}

	order, err := uc.Gateway.FetchOrder(ctx, input.OrderID)
	if err != nil {
		return AdvanceOutput{}, fmt.Errorf("order not found: %w", err)
	}

	current := order.DeliveryStatus
	if current == entity.DeliveryUnassigned && order.HasRider() {
		current = entity.DeliveryAccepted
	}
	d, err := entity.NewDelivery(order.ID, current)
	if err != nil {
		return AdvanceOutput{}, fmt.Errorf("domain rule violation: %w", err)
	}
	if err := d.Advance(target); err != nil {
		return AdvanceOutput{}, fmt.Errorf("domain rule violation: %w", err)
	}

	if err := uc.Gateway.UpdateDeliveryStatus(ctx, d.OrderID(), d.Status()); err != nil {
		return AdvanceOutput{}, fmt.Errorf("failed to update delivery status: %w", err)
	}
	return AdvanceOutput{OrderID: d.OrderID(), Status: d.Status().String()}, nil
}
