package domain

import (
	"errors"
	"strings"
	"time"
)

// Status enumerates the cart lifecycle. A cart transitions Open -> CheckedOut
// exactly once and accepts no item mutations afterwards.
type Status string

const (
	StatusOpen       Status = "open"
	StatusCheckedOut Status = "checked_out"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrNegativeQuantity  = errors.New("quantity must be zero or greater")
	ErrInvalidProductID  = errors.New("product id must be greater than zero")
	ErrInvalidAttributes = errors.New("attributes exceed the allowed length")
)

// MaxAttributesLen bounds the free-form selected-attributes key.
const MaxAttributesLen = 1000

// Cart is the mutable collection of line items identified by an opaque token.
type Cart struct {
	ID        CartID
	Status    Status
	CreatedAt time.Time
}

// Open reports whether the cart still accepts item mutations.
func (c *Cart) Open() bool { return c.Status == StatusOpen }

// CartItem is a single line of a cart. The composite key
// (cart, product, attributes) is unique; merging is by exact string match on
// the attributes key.
type CartItem struct {
	ID         int64
	CartID     CartID
	ProductID  int64
	Attributes string
	Quantity   int32
}

// Snapshot is a consistent read of a cart and its items, ordered by item id.
type Snapshot struct {
	Cart  Cart
	Items []CartItem
}

// Empty reports whether the snapshot carries no line items.
func (s *Snapshot) Empty() bool { return s == nil || len(s.Items) == 0 }

// ValidateNewItem enforces invariants on an add-item mutation before it
// reaches storage.
func ValidateNewItem(productID int64, attributes string, quantityDelta int32) error {
	if productID <= 0 {
		return ErrInvalidProductID
	}
	if len(strings.TrimSpace(attributes)) > MaxAttributesLen {
		return ErrInvalidAttributes
	}
	if quantityDelta <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}
