package ports

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrProductNotFound indicates the catalog has no such product.
	ErrProductNotFound = errors.New("product not found in catalog")
	// ErrUnknownAttributes indicates the attribute combination is not sold
	// for the product.
	ErrUnknownAttributes = errors.New("attribute combination not available for product")
)

// Product is the slice of the catalog's product the cart subsystem needs.
type Product struct {
	ID              int64
	Name            string
	Price           decimal.Decimal
	DiscountedPrice decimal.Decimal
}

// EffectivePrice is the unit price a checkout would freeze right now.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.DiscountedPrice.IsPositive() {
		return p.DiscountedPrice
	}
	return p.Price
}

// Catalog is the read-only Product Catalog collaborator.
type Catalog interface {
	// GetProduct loads the product; ErrProductNotFound when unknown.
	GetProduct(ctx context.Context, productID int64) (*Product, error)
	// ValidateAttributes checks the selected-attributes key against the
	// product's sellable combinations; ErrUnknownAttributes or
	// ErrProductNotFound on failure.
	ValidateAttributes(ctx context.Context, productID int64, attributes string) error
}
