package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/tshirtshop/commerce-api/internal/domains/cart/ports"
)

// Catalog is an in-memory Product Catalog used when no catalog service is
// configured. It ships with a small seed so the API is usable out of the box.
type Catalog struct {
	mu       sync.RWMutex
	products map[int64]ports.Product
	// combos lists the sellable attribute combinations per product. A product
	// with no published combinations accepts any attribute string.
	combos map[int64][]string
}

// NewCatalog creates a seeded in-memory catalog.
func NewCatalog() *Catalog {
	c := &Catalog{
		products: make(map[int64]ports.Product),
		combos:   make(map[int64][]string),
	}
	c.Seed(
		ports.Product{ID: 1, Name: "Arc d'Triomphe", Price: decimal.RequireFromString("14.99")},
		ports.Product{ID: 2, Name: "Chartres Cathedral", Price: decimal.RequireFromString("16.95"), DiscountedPrice: decimal.RequireFromString("15.95")},
		ports.Product{ID: 3, Name: "Gallic Cock", Price: decimal.RequireFromString("18.99"), DiscountedPrice: decimal.RequireFromString("16.99")},
	)
	return c
}

// Seed registers products, replacing any existing entry with the same id.
func (c *Catalog) Seed(products ...ports.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, product := range products {
		c.products[product.ID] = product
	}
}

// SetCombinations publishes the sellable attribute combinations for a product.
func (c *Catalog) SetCombinations(productID int64, combos ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.combos[productID] = append([]string(nil), combos...)
}

// GetProduct loads the product; ErrProductNotFound when unknown.
func (c *Catalog) GetProduct(_ context.Context, productID int64) (*ports.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	product, ok := c.products[productID]
	if !ok {
		return nil, ports.ErrProductNotFound
	}
	return &product, nil
}

// ValidateAttributes checks the selected-attributes key against the published
// combinations. Attribute keys compare as exact strings.
func (c *Catalog) ValidateAttributes(_ context.Context, productID int64, attributes string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.products[productID]; !ok {
		return ports.ErrProductNotFound
	}
	combos := c.combos[productID]
	if len(combos) == 0 {
		return nil
	}
	for _, combo := range combos {
		if combo == attributes {
			return nil
		}
	}
	return ports.ErrUnknownAttributes
}

var _ ports.Catalog = (*Catalog)(nil)
