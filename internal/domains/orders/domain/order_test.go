package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderdomain "github.com/tshirtshop/commerce-api/internal/domains/orders/domain"
)

const testCartID = "00112233445566778899aabbccddeeff"

func frozenItems() []orderdomain.OrderItem {
	return []orderdomain.OrderItem{
		{ProductID: 1, ProductName: "Arc d'Triomphe", Attributes: "Size: M, Color: Red", Quantity: 2, UnitPrice: decimal.RequireFromString("14.99")},
		{ProductID: 2, ProductName: "Chartres Cathedral", Attributes: "", Quantity: 1, UnitPrice: decimal.RequireFromString("16.95")},
	}
}

func TestNewOrder_RejectsEmptyCart(t *testing.T) {
	_, err := orderdomain.NewOrder(testCartID, nil, 1, 1, nil)
	require.ErrorIs(t, err, orderdomain.ErrEmptyCart)
}

func TestNewOrder_ValidatesReferences(t *testing.T) {
	_, err := orderdomain.NewOrder(testCartID, nil, 0, 1, frozenItems())
	assert.ErrorIs(t, err, orderdomain.ErrInvalidShippingID)

	_, err = orderdomain.NewOrder(testCartID, nil, 1, 0, frozenItems())
	assert.ErrorIs(t, err, orderdomain.ErrInvalidTaxID)
}

func TestComputeTotals_RoundsToCents(t *testing.T) {
	order, err := orderdomain.NewOrder(testCartID, nil, 1, 1, frozenItems())
	require.NoError(t, err)

	// 2*14.99 + 16.95 = 46.93; 8.625% tax = 4.047...; shipping 9.95.
	require.NoError(t, order.ComputeTotals(decimal.RequireFromString("8.625"), decimal.RequireFromString("9.95")))

	assert.True(t, order.Subtotal.Equal(decimal.RequireFromString("46.93")), "subtotal %s", order.Subtotal)
	assert.True(t, order.TaxAmount.Equal(decimal.RequireFromString("4.05")), "tax %s", order.TaxAmount)
	assert.True(t, order.ShippingCost.Equal(decimal.RequireFromString("9.95")))
	assert.True(t, order.GrandTotal.Equal(decimal.RequireFromString("60.93")), "total %s", order.GrandTotal)
}

func TestComputeTotals_RejectsNegativeInputs(t *testing.T) {
	order, err := orderdomain.NewOrder(testCartID, nil, 1, 1, frozenItems())
	require.NoError(t, err)

	assert.ErrorIs(t, order.ComputeTotals(decimal.NewFromInt(-1), decimal.Zero), orderdomain.ErrInvalidAmount)
	assert.ErrorIs(t, order.ComputeTotals(decimal.Zero, decimal.NewFromInt(-1)), orderdomain.ErrInvalidAmount)
}

func TestPaymentTransitions(t *testing.T) {
	order, err := orderdomain.NewOrder(testCartID, nil, 1, 1, frozenItems())
	require.NoError(t, err)
	require.Equal(t, orderdomain.PaymentCreated, order.PaymentStatus)

	// created -> paid is illegal without a pending attempt.
	assert.ErrorIs(t, order.MarkPaid(), orderdomain.ErrInvalidTransition)

	require.NoError(t, order.BeginPayment())
	require.Equal(t, orderdomain.PaymentPending, order.PaymentStatus)

	require.NoError(t, order.MarkPaymentFailed())
	require.Equal(t, orderdomain.PaymentFailed, order.PaymentStatus)

	// failed orders may retry or be cancelled, never marked paid directly.
	assert.ErrorIs(t, order.MarkPaid(), orderdomain.ErrInvalidTransition)
	require.NoError(t, order.BeginPayment())
	require.NoError(t, order.MarkPaid())
	require.Equal(t, orderdomain.PaymentPaid, order.PaymentStatus)

	assert.ErrorIs(t, order.BeginPayment(), orderdomain.ErrInvalidTransition)
	assert.ErrorIs(t, order.Cancel(), orderdomain.ErrInvalidTransition)
}

func TestCancel_OnlyFromFailed(t *testing.T) {
	order, err := orderdomain.NewOrder(testCartID, nil, 1, 1, frozenItems())
	require.NoError(t, err)

	assert.ErrorIs(t, order.Cancel(), orderdomain.ErrInvalidTransition)

	require.NoError(t, order.BeginPayment())
	require.NoError(t, order.MarkPaymentFailed())
	require.NoError(t, order.Cancel())
	assert.Equal(t, orderdomain.PaymentCancelled, order.PaymentStatus)
}

func TestLineTotal_FrozenPrice(t *testing.T) {
	item := orderdomain.OrderItem{Quantity: 3, UnitPrice: decimal.RequireFromString("14.99")}
	assert.True(t, item.LineTotal().Equal(decimal.RequireFromString("44.97")))
}
