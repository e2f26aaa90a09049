package outbound

import (
	"context"

	"github.com/DioGolang/GoTrack/internal/domain/entity"
)

// CartStore persists the cart under a single namespaced key. Load returns an
// empty snapshot when nothing was stored yet.
type CartStore interface {
	Load(ctx context.Context) (entity.CartSnapshot, error)
	Save(ctx context.Context, snap entity.CartSnapshot) error
}
