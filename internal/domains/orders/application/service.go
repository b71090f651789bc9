package application

import (
	"context"
	"errors"
	"fmt"

	cartdomain "github.com/tshirtshop/commerce-api/internal/domains/cart/domain"
	cartports "github.com/tshirtshop/commerce-api/internal/domains/cart/ports"
	"github.com/tshirtshop/commerce-api/internal/domains/orders/domain"
	"github.com/tshirtshop/commerce-api/internal/domains/orders/ports"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Service orchestrates checkout and order queries.
type Service struct {
	repo         ports.Repository
	cartStore    cartports.Store
	catalog      cartports.Catalog
	tax          ports.TaxService
	shipping     ports.ShippingService
	orchestrator ports.ChargeOrchestrator
	cartCache    cartports.SnapshotCache
}

type Option func(*Service)

// WithCartCache lets checkout invalidate the cart snapshot cache once the
// cart transitions to checked out.
func WithCartCache(cache cartports.SnapshotCache) Option {
	return func(s *Service) {
		s.cartCache = cache
	}
}

func NewService(
	repo ports.Repository,
	cartStore cartports.Store,
	catalog cartports.Catalog,
	tax ports.TaxService,
	shipping ports.ShippingService,
	orchestrator ports.ChargeOrchestrator,
	opts ...Option,
) *Service {
	s := &Service{
		repo:         repo,
		cartStore:    cartStore,
		catalog:      catalog,
		tax:          tax,
		shipping:     shipping,
		orchestrator: orchestrator,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CreateOrder runs the checkout sequence: load the cart, freeze catalog
// prices into order lines, win the checkout compare-and-set, then persist the
// order and its items in one transaction. A persistence failure after a won
// compare-and-set is compensated by reopening the cart; when the compensation
// fails too the error is ErrTransaction and the cart stays checked out for
// operator remediation.
func (s *Service) CreateOrder(ctx context.Context, input ports.CreateOrderInput) (*domain.Order, error) {
	snapshot, err := s.cartStore.GetCart(ctx, input.CartID)
	if err != nil {
		return nil, err
	}
	if !snapshot.Cart.Open() {
		return nil, fmt.Errorf("%w: cart %s", ErrCheckoutConflict, input.CartID)
	}
	if snapshot.Empty() {
		return nil, mapError(domain.ErrEmptyCart)
	}

	items := make([]domain.OrderItem, 0, len(snapshot.Items))
	for _, line := range snapshot.Items {
		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, cartports.ErrProductNotFound) {
				return nil, fmt.Errorf("%w: product %d", ErrInvalidInput, line.ProductID)
			}
			return nil, err
		}
		items = append(items, domain.OrderItem{
			ProductID:   line.ProductID,
			ProductName: product.Name,
			Attributes:  line.Attributes,
			Quantity:    line.Quantity,
			UnitPrice:   product.EffectivePrice(),
		})
	}

	order, err := domain.NewOrder(input.CartID, input.CustomerID, input.ShippingID, input.TaxID, items)
	if err != nil {
		return nil, mapError(err)
	}

	taxRate, err := s.tax.GetRate(ctx, input.TaxID)
	if err != nil {
		return nil, mapError(err)
	}
	shippingCost, err := s.shipping.GetCost(ctx, input.ShippingID)
	if err != nil {
		return nil, mapError(err)
	}
	if err := order.ComputeTotals(taxRate, shippingCost); err != nil {
		return nil, mapError(err)
	}

	won, err := s.cartStore.MarkCheckedOut(ctx, input.CartID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, fmt.Errorf("%w: cart %s", ErrCheckoutConflict, input.CartID)
	}
	s.invalidateCartCache(ctx, input.CartID)

	if err := s.repo.Create(ctx, order); err != nil {
		if errors.Is(err, ports.ErrCartAlreadyOrdered) {
			// A completed order already references this cart, so the
			// checked-out state is correct and must not be undone.
			return nil, mapError(err)
		}
		if reopenErr := s.cartStore.Reopen(ctx, input.CartID); reopenErr != nil {
			return nil, fmt.Errorf("%w: persist: %w; reopen: %w", ErrTransaction, err, reopenErr)
		}
		return nil, err
	}

	// The order now holds the frozen lines; the cart rows are redundant.
	_ = s.cartStore.PurgeItems(ctx, input.CartID)
	s.invalidateCartCache(ctx, input.CartID)

	return order, nil
}

func (s *Service) GetOrderSummary(ctx context.Context, orderID int64) (*domain.Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

func (s *Service) GetCustomerOrders(ctx context.Context, customerID int64, page, pageSize int) ([]*domain.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return s.repo.ListByCustomer(ctx, customerID, page, pageSize)
}

func (s *Service) Pay(ctx context.Context, cmd ports.ChargeCommand) (*ports.ChargeOutcome, error) {
	if cmd.IdempotencyKey == "" {
		return nil, fmt.Errorf("%w: idempotency key is required", ErrInvalidInput)
	}
	if cmd.PaymentToken == "" {
		return nil, fmt.Errorf("%w: payment token is required", ErrInvalidInput)
	}
	return s.orchestrator.ExecuteCharge(ctx, cmd)
}

func (s *Service) invalidateCartCache(ctx context.Context, cartID cartdomain.CartID) {
	if s.cartCache == nil {
		return
	}
	_ = s.cartCache.Invalidate(ctx, cartID)
}

var _ ports.Service = (*Service)(nil)
