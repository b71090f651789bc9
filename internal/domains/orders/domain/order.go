package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	cartdomain "github.com/tshirtshop/commerce-api/internal/domains/cart/domain"
)

// PaymentStatus enumerates the order payment lifecycle.
type PaymentStatus string

const (
	PaymentCreated   PaymentStatus = "created"
	PaymentPending   PaymentStatus = "payment_pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentFailed    PaymentStatus = "payment_failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

var (
	ErrEmptyCart         = errors.New("cart has no items to order")
	ErrInvalidTransition = errors.New("payment status transition is not allowed")
	ErrInvalidShippingID = errors.New("shipping option id must be greater than zero")
	ErrInvalidTaxID      = errors.New("tax id must be greater than zero")
	ErrInvalidAmount     = errors.New("order amounts must not be negative")
)

// OrderItem freezes a cart line at its order-time unit price. Later catalog
// price changes never alter a placed order.
type OrderItem struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	Attributes  string
	Quantity    int32
	UnitPrice   decimal.Decimal
}

// LineTotal is the frozen unit price multiplied by the ordered quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt32(i.Quantity))
}

// Order is the checkout aggregate. One order per cart, enforced by storage.
type Order struct {
	ID            int64
	CartID        cartdomain.CartID
	CustomerID    *int64
	ShippingID    int64
	TaxID         int64
	PaymentStatus PaymentStatus
	Subtotal      decimal.Decimal
	TaxAmount     decimal.Decimal
	ShippingCost  decimal.Decimal
	GrandTotal    decimal.Decimal
	CreatedAt     time.Time
	Items         []OrderItem
}

// NewOrder validates and constructs an order from frozen cart lines.
func NewOrder(cartID cartdomain.CartID, customerID *int64, shippingID, taxID int64, items []OrderItem) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	if shippingID <= 0 {
		return nil, ErrInvalidShippingID
	}
	if taxID <= 0 {
		return nil, ErrInvalidTaxID
	}
	return &Order{
		CartID:        cartID,
		CustomerID:    customerID,
		ShippingID:    shippingID,
		TaxID:         taxID,
		PaymentStatus: PaymentCreated,
		Items:         items,
	}, nil
}

// ComputeTotals derives the money fields from the frozen lines, the tax rate
// as a percentage, and a flat shipping cost. Results are rounded to cents.
func (o *Order) ComputeTotals(taxRate decimal.Decimal, shippingCost decimal.Decimal) error {
	if taxRate.IsNegative() || shippingCost.IsNegative() {
		return ErrInvalidAmount
	}
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	o.Subtotal = subtotal.Round(2)
	o.TaxAmount = subtotal.Mul(taxRate).Div(decimal.NewFromInt(100)).Round(2)
	o.ShippingCost = shippingCost.Round(2)
	o.GrandTotal = o.Subtotal.Add(o.TaxAmount).Add(o.ShippingCost).Round(2)
	return nil
}

// BeginPayment moves the order into payment_pending. Legal from created (the
// first attempt) and from payment_failed (a retry with a fresh key).
func (o *Order) BeginPayment() error {
	return o.transition(PaymentPending, PaymentCreated, PaymentFailed)
}

// MarkPaid records a captured charge. Legal only while a payment is pending.
func (o *Order) MarkPaid() error {
	return o.transition(PaymentPaid, PaymentPending)
}

// MarkPaymentFailed records a definitive decline. Legal only while a payment
// is pending; transient gateway errors leave the order pending instead.
func (o *Order) MarkPaymentFailed() error {
	return o.transition(PaymentFailed, PaymentPending)
}

// Cancel abandons an order whose payment has definitively failed.
func (o *Order) Cancel() error {
	return o.transition(PaymentCancelled, PaymentFailed)
}

func (o *Order) transition(to PaymentStatus, from ...PaymentStatus) error {
	for _, f := range from {
		if o.PaymentStatus == f {
			o.PaymentStatus = to
			return nil
		}
	}
	return ErrInvalidTransition
}

// ValidPaymentStatus reports whether the value names a known state.
func ValidPaymentStatus(status PaymentStatus) bool {
	switch status {
	case PaymentCreated, PaymentPending, PaymentPaid, PaymentFailed, PaymentCancelled:
		return true
	default:
		return false
	}
}
