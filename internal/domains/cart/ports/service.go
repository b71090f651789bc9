package ports

import (
	"context"

	"github.com/tshirtshop/commerce-api/internal/domains/cart/domain"
)

// Service exposes cart use cases to adapters.
type Service interface {
	GenerateCartID(ctx context.Context) (domain.CartID, error)
	AddItem(ctx context.Context, cartID domain.CartID, productID int64, attributes string, quantity int32) (*domain.Snapshot, error)
	GetCart(ctx context.Context, cartID domain.CartID) (*domain.Snapshot, error)
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int32) error
	RemoveItem(ctx context.Context, itemID int64) error
	EmptyCart(ctx context.Context, cartID domain.CartID) error
}
