package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/tshirtshop/commerce-api/internal/domains/orders/ports"
)

// TaxService is an in-memory tax table used when no tax service is
// configured. The seed mirrors the classic storefront rates.
type TaxService struct {
	mu    sync.RWMutex
	rates map[int64]decimal.Decimal
}

// NewTaxService creates a seeded in-memory tax table.
func NewTaxService() *TaxService {
	return &TaxService{rates: map[int64]decimal.Decimal{
		1: decimal.RequireFromString("8.50"),
		2: decimal.Zero,
	}}
}

// SetRate registers or replaces the percentage rate for a tax id.
func (t *TaxService) SetRate(taxID int64, rate decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rates[taxID] = rate
}

// GetRate resolves a tax id to a percentage rate; ErrTaxNotFound when unknown.
func (t *TaxService) GetRate(_ context.Context, taxID int64) (decimal.Decimal, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rate, ok := t.rates[taxID]
	if !ok {
		return decimal.Decimal{}, ports.ErrTaxNotFound
	}
	return rate, nil
}

// ShippingService is an in-memory shipping cost table used when no shipping
// service is configured.
type ShippingService struct {
	mu    sync.RWMutex
	costs map[int64]decimal.Decimal
}

// NewShippingService creates a seeded in-memory shipping table.
func NewShippingService() *ShippingService {
	return &ShippingService{costs: map[int64]decimal.Decimal{
		1: decimal.RequireFromString("9.95"),
		2: decimal.RequireFromString("19.95"),
		3: decimal.Zero,
	}}
}

// SetCost registers or replaces the flat cost for a shipping option.
func (s *ShippingService) SetCost(shippingID int64, cost decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.costs[shippingID] = cost
}

// GetCost resolves a shipping option to its flat cost; ErrShippingNotFound
// when unknown.
func (s *ShippingService) GetCost(_ context.Context, shippingID int64) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cost, ok := s.costs[shippingID]
	if !ok {
		return decimal.Decimal{}, ports.ErrShippingNotFound
	}
	return cost, nil
}

var (
	_ ports.TaxService      = (*TaxService)(nil)
	_ ports.ShippingService = (*ShippingService)(nil)
)
