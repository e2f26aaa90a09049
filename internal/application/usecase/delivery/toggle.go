package delivery

import (
	"context"
	"fmt"

	"github.com/DioGolang/GoTrack/internal/application/port/outbound"
)

type ToggleUseCaseImpl struct {
	Gateway outbound.OrderGateway
}

func NewToggleUseCase(gateway outbound.OrderGateway) *ToggleUseCaseImpl {
	return &ToggleUseCaseImpl{Gateway: gateway}
}

func (uc *ToggleUseCaseImpl) Execute(ctx context.Context) (ToggleOutput, error) {
	active, err := uc.Gateway.ToggleAvailability(ctx)
	if err != nil {
		return ToggleOutput{}, fmt.Errorf("failed to toggle availability: %w", err)
	}
	return ToggleOutput{Active: active}, nil
}
