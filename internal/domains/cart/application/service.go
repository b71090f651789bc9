package application

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/tshirtshop/commerce-api/internal/domains/cart/domain"
	"github.com/tshirtshop/commerce-api/internal/domains/cart/ports"
)

// Service orchestrates cart use cases: it validates mutations against the
// Product Catalog collaborator, delegates to the Store, and keeps the
// optional snapshot cache coherent. It applies no business logic beyond
// validation and error translation.
type Service struct {
	store   ports.Store
	catalog ports.Catalog
	cache   ports.SnapshotCache
	sfg     singleflight.Group
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithSnapshotCache enables read-through caching of GetCart.
func WithSnapshotCache(cache ports.SnapshotCache) Option {
	return func(s *Service) { s.cache = cache }
}

// NewService wires the cart service with its dependencies.
func NewService(store ports.Store, catalog ports.Catalog, opts ...Option) *Service {
	s := &Service{store: store, catalog: catalog}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// GenerateCartID hands a fresh opaque cart token to the client. The cart row
// itself is created lazily on the first successful AddItem.
func (s *Service) GenerateCartID(_ context.Context) (domain.CartID, error) {
	return domain.NewCartID()
}

// AddItem validates the product reference and attribute combination against
// the catalog, then merges the quantity delta into the cart.
func (s *Service) AddItem(ctx context.Context, cartID domain.CartID, productID int64, attributes string, quantity int32) (*domain.Snapshot, error) {
	if !cartID.Valid() {
		return nil, fmt.Errorf("%w: malformed cart id", ErrInvalidInput)
	}
	if err := domain.ValidateNewItem(productID, attributes, quantity); err != nil {
		return nil, mapError(err)
	}
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return nil, mapError(err)
	}
	if err := s.catalog.ValidateAttributes(ctx, productID, attributes); err != nil {
		return nil, mapError(err)
	}
	snapshot, err := s.store.AddItem(ctx, cartID, productID, attributes, quantity)
	if err != nil {
		return nil, mapError(err)
	}
	s.invalidate(ctx, cartID)
	return snapshot, nil
}

// GetCart loads the snapshot, preferring the cache when configured.
// Singleflight collapses concurrent misses for the same cart.
func (s *Service) GetCart(ctx context.Context, cartID domain.CartID) (*domain.Snapshot, error) {
	if s.cache == nil {
		return s.store.GetCart(ctx, cartID)
	}
	v, err, _ := s.sfg.Do(cartID.String(), func() (any, error) {
		cached, err := s.cache.Get(ctx, cartID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ports.ErrCacheMiss) {
			// Cache trouble is not a reason to fail the read.
			_ = err
		}
		snapshot, err := s.store.GetCart(ctx, cartID)
		if err != nil {
			return nil, err
		}
		_ = s.cache.Set(ctx, cartID, snapshot)
		return snapshot, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Snapshot), nil
}

// UpdateItemQuantity overwrites a line's quantity; zero removes the line.
func (s *Service) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int32) error {
	if quantity < 0 {
		return mapError(domain.ErrNegativeQuantity)
	}
	cartID, err := s.store.SetItemQuantity(ctx, itemID, quantity)
	if err != nil {
		return mapError(err)
	}
	s.invalidate(ctx, cartID)
	return nil
}

// RemoveItem deletes a single line from its cart.
func (s *Service) RemoveItem(ctx context.Context, itemID int64) error {
	cartID, err := s.store.RemoveItem(ctx, itemID)
	if err != nil {
		return mapError(err)
	}
	s.invalidate(ctx, cartID)
	return nil
}

// EmptyCart clears all lines; clearing an empty or unknown cart succeeds.
func (s *Service) EmptyCart(ctx context.Context, cartID domain.CartID) error {
	if err := s.store.EmptyCart(ctx, cartID); err != nil {
		return mapError(err)
	}
	s.invalidate(ctx, cartID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, cartID domain.CartID) {
	if s.cache == nil || cartID == "" {
		return
	}
	_ = s.cache.Invalidate(ctx, cartID)
}

var _ ports.Service = (*Service)(nil)
