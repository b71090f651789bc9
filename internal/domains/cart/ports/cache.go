package ports

import (
	"context"
	"errors"

	"github.com/tshirtshop/commerce-api/internal/domains/cart/domain"
)

// ErrCacheMiss indicates the snapshot is not cached.
var ErrCacheMiss = errors.New("cart snapshot not in cache")

// SnapshotCache is an optional read-through cache for cart snapshots.
// Reads may be slightly stale; every mutation invalidates the key.
type SnapshotCache interface {
	Get(ctx context.Context, cartID domain.CartID) (*domain.Snapshot, error)
	Set(ctx context.Context, cartID domain.CartID, snapshot *domain.Snapshot) error
	Invalidate(ctx context.Context, cartID domain.CartID) error
}
