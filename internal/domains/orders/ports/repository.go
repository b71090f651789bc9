package ports

import (
	"context"
	"errors"
	"time"

	cartdomain "github.com/tshirtshop/commerce-api/internal/domains/cart/domain"
	"github.com/tshirtshop/commerce-api/internal/domains/orders/domain"
)

var (
	ErrNotFound           = errors.New("order not found")
	ErrCartAlreadyOrdered = errors.New("cart already has an order")
)

// Attempt records a single interaction with the payment gateway for one
// idempotency key, kept for auditing and retry diagnostics.
type Attempt struct {
	OrderID        int64
	IdempotencyKey string
	Attempts       int32
	Outcome        string
	GatewayErrors  []string
	OccurredAt     time.Time
}

// Repository persists order aggregates. Create writes the order and its
// frozen items in one transaction and enforces one order per cart.
type Repository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetByCartID(ctx context.Context, cartID cartdomain.CartID) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID int64, page, pageSize int) ([]*domain.Order, int64, error)
	// UpdatePaymentStatus is a compare-and-set guard on the state machine.
	// It reports whether this caller performed the transition.
	UpdatePaymentStatus(ctx context.Context, id int64, from, to domain.PaymentStatus) (bool, error)
	RecordAttempt(ctx context.Context, attempt Attempt) error
}
