package application

import (
	"errors"
	"fmt"

	"github.com/tshirtshop/commerce-api/internal/domains/cart/domain"
	"github.com/tshirtshop/commerce-api/internal/domains/cart/ports"
)

// ErrInvalidInput signals the request violated a cart invariant or referenced
// a product the catalog does not sell. Distinct from cart-level NotFound.
var ErrInvalidInput = errors.New("invalid cart input")

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrNegativeQuantity) ||
		errors.Is(err, domain.ErrInvalidProductID) ||
		errors.Is(err, domain.ErrInvalidAttributes) ||
		errors.Is(err, ports.ErrProductNotFound) ||
		errors.Is(err, ports.ErrUnknownAttributes) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
