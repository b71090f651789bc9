package ports

import (
	"context"

	cartdomain "github.com/tshirtshop/commerce-api/internal/domains/cart/domain"
	"github.com/tshirtshop/commerce-api/internal/domains/orders/domain"
)

// CreateOrderInput carries everything checkout needs; the customer reference
// is optional because carts are anonymous until a session resolves one.
type CreateOrderInput struct {
	CartID     cartdomain.CartID
	CustomerID *int64
	ShippingID int64
	TaxID      int64
}

// ChargeCommand asks for a payment capture against an order. Retries must
// carry the same idempotency key unchanged.
type ChargeCommand struct {
	OrderID        int64
	PaymentToken   string
	IdempotencyKey string
}

// ChargeOutcome is the definitive answer of a charge attempt. A decline is an
// outcome with the gateway's verbatim reason, not an error.
type ChargeOutcome struct {
	Status        domain.PaymentStatus
	Reference     string
	DeclineReason string
}

// Service exposes order use cases to adapters.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error)
	GetOrderSummary(ctx context.Context, orderID int64) (*domain.Order, error)
	GetCustomerOrders(ctx context.Context, customerID int64, page, pageSize int) ([]*domain.Order, int64, error)
	Pay(ctx context.Context, cmd ChargeCommand) (*ChargeOutcome, error)
}
