package mapper

import (
	"time"

	orderdomain "github.com/tshirtshop/commerce-api/internal/domains/orders/domain"
)

// OrderItem represents the transport-layer shape of a frozen order line.
type OrderItem struct {
	ItemID      int64  `json:"item_id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Attributes  string `json:"attributes"`
	Quantity    int32  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

// Order represents the transport-layer shape of an order summary. Money is
// rendered as fixed-point strings so clients never see float artifacts.
type Order struct {
	OrderID       int64       `json:"order_id"`
	CartID        string      `json:"cart_id"`
	CustomerID    *int64      `json:"customer_id,omitempty"`
	ShippingID    int64       `json:"shipping_id"`
	TaxID         int64       `json:"tax_id"`
	PaymentStatus string      `json:"payment_status"`
	Subtotal      string      `json:"subtotal"`
	TaxAmount     string      `json:"tax_amount"`
	ShippingCost  string      `json:"shipping_cost"`
	GrandTotal    string      `json:"grand_total"`
	CreatedAt     time.Time   `json:"created_at"`
	Items         []OrderItem `json:"items"`
}

// OrderPage wraps one page of a customer's orders.
type OrderPage struct {
	Orders []Order `json:"orders"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
	Total  int64   `json:"total"`
}

// FromDomainOrder converts a domain order to the transport representation.
func FromDomainOrder(order *orderdomain.Order) Order {
	if order == nil {
		return Order{Items: []OrderItem{}}
	}
	items := make([]OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItem{
			ItemID:      item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Attributes:  item.Attributes,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			LineTotal:   item.LineTotal().StringFixed(2),
		})
	}
	return Order{
		OrderID:       order.ID,
		CartID:        order.CartID.String(),
		CustomerID:    order.CustomerID,
		ShippingID:    order.ShippingID,
		TaxID:         order.TaxID,
		PaymentStatus: string(order.PaymentStatus),
		Subtotal:      order.Subtotal.StringFixed(2),
		TaxAmount:     order.TaxAmount.StringFixed(2),
		ShippingCost:  order.ShippingCost.StringFixed(2),
		GrandTotal:    order.GrandTotal.StringFixed(2),
		CreatedAt:     order.CreatedAt,
		Items:         items,
	}
}

// FromDomainOrders converts one page of domain orders.
func FromDomainOrders(orders []*orderdomain.Order, page, limit int, total int64) OrderPage {
	out := make([]Order, 0, len(orders))
	for _, order := range orders {
		out = append(out, FromDomainOrder(order))
	}
	return OrderPage{Orders: out, Page: page, Limit: limit, Total: total}
}
