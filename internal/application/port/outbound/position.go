package outbound

import (
	"context"

	"github.com/DioGolang/GoTrack/internal/domain/entity"
)

// PositionSampler produces a continuous, restartable stream of samples.
type PositionSampler interface {
	Start(ctx context.Context, onSample func(entity.Coordinate), onError func(error))
	Stop()
}
