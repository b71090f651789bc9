package application

import (
	"errors"
	"fmt"

	"github.com/tshirtshop/commerce-api/internal/domains/orders/domain"
	"github.com/tshirtshop/commerce-api/internal/domains/orders/ports"
)

var (
	// ErrInvalidInput signals the checkout request violated an order invariant
	// or referenced an unknown tax or shipping option.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrCheckoutConflict signals the cart was already checked out, either by
	// a concurrent checkout or an earlier completed one.
	ErrCheckoutConflict = errors.New("cart checkout conflict")
	// ErrTransaction signals order persistence failed and the compensating
	// cart reopen failed too. The cart is left checked out for operators.
	ErrTransaction = errors.New("order transaction failed")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyCart) ||
		errors.Is(err, domain.ErrInvalidShippingID) ||
		errors.Is(err, domain.ErrInvalidTaxID) ||
		errors.Is(err, ports.ErrTaxNotFound) ||
		errors.Is(err, ports.ErrShippingNotFound) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if errors.Is(err, ports.ErrCartAlreadyOrdered) {
		return fmt.Errorf("%w: %w", ErrCheckoutConflict, err)
	}
	return err
}
