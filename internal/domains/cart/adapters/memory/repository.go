package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tshirtshop/commerce-api/internal/domains/cart/domain"
	"github.com/tshirtshop/commerce-api/internal/domains/cart/ports"
)

var _ ports.Store = (*Store)(nil)

// Store is an in-memory cart persistence adapter. A single mutex serializes
// all mutations, which trivially satisfies the per-cart linearizability the
// Store contract demands.
type Store struct {
	mu         sync.RWMutex
	carts      map[domain.CartID]*cartState
	itemOwners map[int64]domain.CartID
	nextItemID int64
}

type cartState struct {
	cart  domain.Cart
	items map[int64]*domain.CartItem
}

func NewStore() *Store {
	return &Store{
		carts:      map[domain.CartID]*cartState{},
		itemOwners: map[int64]domain.CartID{},
	}
}

func (s *Store) AddItem(_ context.Context, cartID domain.CartID, productID int64, attributes string, quantityDelta int32) (*domain.Snapshot, error) {
	if quantityDelta <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.carts[cartID]
	if !ok {
		state = &cartState{
			cart:  domain.Cart{ID: cartID, Status: domain.StatusOpen, CreatedAt: time.Now()},
			items: map[int64]*domain.CartItem{},
		}
		s.carts[cartID] = state
	}
	if !state.cart.Open() {
		return nil, ports.ErrCheckedOut
	}
	for _, item := range state.items {
		if item.ProductID == productID && item.Attributes == attributes {
			item.Quantity += quantityDelta
			return s.snapshotLocked(state), nil
		}
	}
	s.nextItemID++
	item := &domain.CartItem{
		ID:         s.nextItemID,
		CartID:     cartID,
		ProductID:  productID,
		Attributes: attributes,
		Quantity:   quantityDelta,
	}
	state.items[item.ID] = item
	s.itemOwners[item.ID] = cartID
	return s.snapshotLocked(state), nil
}

func (s *Store) SetItemQuantity(_ context.Context, itemID int64, quantity int32) (domain.CartID, error) {
	if quantity < 0 {
		return "", domain.ErrNegativeQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	state, item, err := s.findItemLocked(itemID)
	if err != nil {
		return "", err
	}
	if !state.cart.Open() {
		return "", ports.ErrCheckedOut
	}
	if quantity == 0 {
		delete(state.items, itemID)
		delete(s.itemOwners, itemID)
		return state.cart.ID, nil
	}
	item.Quantity = quantity
	return state.cart.ID, nil
}

func (s *Store) RemoveItem(_ context.Context, itemID int64) (domain.CartID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, _, err := s.findItemLocked(itemID)
	if err != nil {
		return "", err
	}
	if !state.cart.Open() {
		return "", ports.ErrCheckedOut
	}
	delete(state.items, itemID)
	delete(s.itemOwners, itemID)
	return state.cart.ID, nil
}

func (s *Store) EmptyCart(_ context.Context, cartID domain.CartID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.carts[cartID]
	if !ok {
		return nil
	}
	if !state.cart.Open() {
		return ports.ErrCheckedOut
	}
	for id := range state.items {
		delete(s.itemOwners, id)
	}
	state.items = map[int64]*domain.CartItem{}
	return nil
}

func (s *Store) GetCart(_ context.Context, cartID domain.CartID) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.carts[cartID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return s.snapshotLocked(state), nil
}

func (s *Store) MarkCheckedOut(_ context.Context, cartID domain.CartID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.carts[cartID]
	if !ok || !state.cart.Open() {
		return false, nil
	}
	state.cart.Status = domain.StatusCheckedOut
	return true, nil
}

func (s *Store) Reopen(_ context.Context, cartID domain.CartID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.carts[cartID]
	if !ok {
		return ports.ErrNotFound
	}
	if state.cart.Open() {
		return nil
	}
	state.cart.Status = domain.StatusOpen
	return nil
}

func (s *Store) PurgeItems(_ context.Context, cartID domain.CartID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.carts[cartID]
	if !ok {
		return nil
	}
	for id := range state.items {
		delete(s.itemOwners, id)
	}
	state.items = map[int64]*domain.CartItem{}
	return nil
}

func (s *Store) findItemLocked(itemID int64) (*cartState, *domain.CartItem, error) {
	cartID, ok := s.itemOwners[itemID]
	if !ok {
		return nil, nil, ports.ErrItemNotFound
	}
	state := s.carts[cartID]
	item, ok := state.items[itemID]
	if !ok {
		return nil, nil, ports.ErrItemNotFound
	}
	return state, item, nil
}

func (s *Store) snapshotLocked(state *cartState) *domain.Snapshot {
	items := make([]domain.CartItem, 0, len(state.items))
	for _, item := range state.items {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return &domain.Snapshot{Cart: state.cart, Items: items}
}
