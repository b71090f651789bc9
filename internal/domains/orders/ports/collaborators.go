package ports

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrTaxNotFound      = errors.New("tax rate not found")
	ErrShippingNotFound = errors.New("shipping option not found")
)

// TaxService resolves a tax id to a percentage rate.
type TaxService interface {
	GetRate(ctx context.Context, taxID int64) (decimal.Decimal, error)
}

// ShippingService resolves a shipping option to its flat cost.
type ShippingService interface {
	GetCost(ctx context.Context, shippingID int64) (decimal.Decimal, error)
}
