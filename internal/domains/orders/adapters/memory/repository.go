package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	cartdomain "github.com/tshirtshop/commerce-api/internal/domains/cart/domain"
	"github.com/tshirtshop/commerce-api/internal/domains/orders/domain"
	"github.com/tshirtshop/commerce-api/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository provides an in-memory order store for development and tests.
type Repository struct {
	mu         sync.RWMutex
	orders     map[int64]*domain.Order
	byCart     map[cartdomain.CartID]int64
	attempts   []ports.Attempt
	nextID     int64
	nextItemID int64
	now        func() time.Time
}

func NewRepository() *Repository {
	return &Repository{
		orders: map[int64]*domain.Order{},
		byCart: map[cartdomain.CartID]int64{},
		now:    time.Now,
	}
}

func (r *Repository) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byCart[order.CartID]; exists {
		return ports.ErrCartAlreadyOrdered
	}

	r.nextID++
	order.ID = r.nextID
	order.CreatedAt = r.now()
	for i := range order.Items {
		r.nextItemID++
		order.Items[i].ID = r.nextItemID
		order.Items[i].OrderID = order.ID
	}

	stored := cloneOrder(order)
	r.orders[order.ID] = stored
	r.byCart[order.CartID] = order.ID
	return nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (r *Repository) GetByCartID(_ context.Context, cartID cartdomain.CartID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byCart[cartID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneOrder(r.orders[id]), nil
}

func (r *Repository) ListByCustomer(_ context.Context, customerID int64, page, pageSize int) ([]*domain.Order, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.Order, 0)
	for _, order := range r.orders {
		if order.CustomerID != nil && *order.CustomerID == customerID {
			matched = append(matched, order)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := int64(len(matched))
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return []*domain.Order{}, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	result := make([]*domain.Order, 0, end-start)
	for _, order := range matched[start:end] {
		result = append(result, cloneOrder(order))
	}
	return result, total, nil
}

func (r *Repository) UpdatePaymentStatus(_ context.Context, id int64, from, to domain.PaymentStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return false, ports.ErrNotFound
	}
	if order.PaymentStatus != from {
		return false, nil
	}
	order.PaymentStatus = to
	return true, nil
}

func (r *Repository) RecordAttempt(_ context.Context, attempt ports.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	attempt.OccurredAt = r.now()
	r.attempts = append(r.attempts, attempt)
	return nil
}

// Attempts returns a copy of the recorded gateway attempts, oldest first.
func (r *Repository) Attempts() []ports.Attempt {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ports.Attempt, len(r.attempts))
	copy(out, r.attempts)
	return out
}

func cloneOrder(order *domain.Order) *domain.Order {
	clone := *order
	clone.Items = make([]domain.OrderItem, len(order.Items))
	copy(clone.Items, order.Items)
	if order.CustomerID != nil {
		id := *order.CustomerID
		clone.CustomerID = &id
	}
	return &clone
}
