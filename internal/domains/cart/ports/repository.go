package ports

import (
	"context"
	"errors"

	"github.com/tshirtshop/commerce-api/internal/domains/cart/domain"
)

var (
	// ErrNotFound indicates the cart token has never been seen by storage.
	ErrNotFound = errors.New("cart not found")
	// ErrItemNotFound indicates the line item does not exist.
	ErrItemNotFound = errors.New("cart item not found")
	// ErrCheckedOut indicates a mutation was attempted on a checked-out cart.
	ErrCheckedOut = errors.New("cart is checked out")
)

// Store owns durable cart/item state. Every mutation call is atomic, and
// mutations on the same cart are linearizable with respect to each other.
type Store interface {
	// AddItem merges quantityDelta into the (cartID, productID, attributes)
	// line, creating the cart (Open) and the line as needed. Rejects
	// quantityDelta <= 0 with domain.ErrInvalidQuantity and checked-out
	// carts with ErrCheckedOut. Returns the resulting snapshot.
	AddItem(ctx context.Context, cartID domain.CartID, productID int64, attributes string, quantityDelta int32) (*domain.Snapshot, error)

	// SetItemQuantity overwrites the quantity of an existing line and
	// returns the owning cart id. Zero deletes the line. Unknown items
	// yield ErrItemNotFound; checked-out carts yield ErrCheckedOut.
	SetItemQuantity(ctx context.Context, itemID int64, quantity int32) (domain.CartID, error)

	// RemoveItem deletes the line and returns the owning cart id;
	// ErrItemNotFound when absent.
	RemoveItem(ctx context.Context, itemID int64) (domain.CartID, error)

	// EmptyCart deletes every line of the cart. A cart with no lines, or a
	// token storage has never seen, is a successful no-op. Checked-out
	// carts yield ErrCheckedOut.
	EmptyCart(ctx context.Context, cartID domain.CartID) error

	// GetCart returns the cart and its lines ordered by item id;
	// ErrNotFound when the cart has never been created.
	GetCart(ctx context.Context, cartID domain.CartID) (*domain.Snapshot, error)

	// MarkCheckedOut performs the atomic compare-and-set Open->CheckedOut.
	// Returns false, never an error, when the cart was already checked out
	// or is unknown. This is the primitive that resolves checkout races.
	MarkCheckedOut(ctx context.Context, cartID domain.CartID) (bool, error)

	// Reopen compensates a checkout whose order persistence failed,
	// flipping CheckedOut back to Open. Errors when no such flip happened.
	Reopen(ctx context.Context, cartID domain.CartID) error

	// PurgeItems drops the line rows of a checked-out cart once the order
	// holding their snapshot is safely persisted.
	PurgeItems(ctx context.Context, cartID domain.CartID) error
}
