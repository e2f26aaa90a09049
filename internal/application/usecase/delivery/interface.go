package delivery

import (
	"context"
)

type AcceptUseCase interface {
	Execute(ctx context.Context, input AcceptInput) error
}

type AdvanceUseCase interface {
	Execute(ctx context.Context, input AdvanceInput) (AdvanceOutput, error)
}

type ToggleUseCase interface {
	Execute(ctx context.Context) (ToggleOutput, error)
}
