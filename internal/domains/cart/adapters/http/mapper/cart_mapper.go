package mapper

import (
	cartdomain "github.com/tshirtshop/commerce-api/internal/domains/cart/domain"
)

// CartItem represents the transport-layer shape of a single cart row.
type CartItem struct {
	ItemID     int64  `json:"item_id"`
	ProductID  int64  `json:"product_id"`
	Attributes string `json:"attributes"`
	Quantity   int32  `json:"quantity"`
}

// Cart represents the transport-layer shape of a cart snapshot.
type Cart struct {
	CartID string     `json:"cart_id"`
	Status string     `json:"status"`
	Items  []CartItem `json:"items"`
}

// FromSnapshot converts a domain snapshot to the transport representation.
func FromSnapshot(snapshot *cartdomain.Snapshot) Cart {
	if snapshot == nil {
		return Cart{Items: []CartItem{}}
	}
	items := make([]CartItem, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		items = append(items, CartItem{
			ItemID:     item.ID,
			ProductID:  item.ProductID,
			Attributes: item.Attributes,
			Quantity:   item.Quantity,
		})
	}
	return Cart{
		CartID: snapshot.Cart.ID.String(),
		Status: string(snapshot.Cart.Status),
		Items:  items,
	}
}
