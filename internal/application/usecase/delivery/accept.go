package delivery

import (
	"context"
	"fmt"

	"github.com/DioGolang/GoTrack/internal/application/port/outbound"
	"github.com/DioGolang/GoTrack/internal/domain/entity"
)

type AcceptUseCaseImpl struct {
	Gateway outbound.OrderGateway
}

func NewAcceptUseCase(gateway outbound.OrderGateway) *AcceptUseCaseImpl {
	return &AcceptUseCaseImpl{Gateway: gateway}
}

func (uc *AcceptUseCaseImpl) Execute(ctx context.Context, input AcceptInput) error {
	if input.OrderID == "" {
		return entity.ErrIDIsRequired
	}
	if err := uc.Gateway.AcceptOrder(ctx, input.OrderID); err != nil {
		return fmt.Errorf("failed to accept order: %w", err)
	}
	return nil
}
