package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartmemory "github.com/tshirtshop/commerce-api/internal/domains/cart/adapters/memory"
	cartdomain "github.com/tshirtshop/commerce-api/internal/domains/cart/domain"
	cartports "github.com/tshirtshop/commerce-api/internal/domains/cart/ports"
	"github.com/tshirtshop/commerce-api/internal/domains/orders/adapters/memory"
	"github.com/tshirtshop/commerce-api/internal/domains/orders/application"
	"github.com/tshirtshop/commerce-api/internal/domains/orders/domain"
	"github.com/tshirtshop/commerce-api/internal/domains/orders/ports"
)

const testCartID cartdomain.CartID = "00112233445566778899aabbccddeeff"

type fakeCatalog struct {
	mu       sync.Mutex
	products map[int64]cartports.Product
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{products: map[int64]cartports.Product{
		5: {ID: 5, Name: "Arc d'Triomphe", Price: decimal.RequireFromString("14.99")},
		7: {ID: 7, Name: "Chartres Cathedral", Price: decimal.RequireFromString("16.95"), DiscountedPrice: decimal.RequireFromString("15.95")},
	}}
}

func (c *fakeCatalog) GetProduct(_ context.Context, productID int64) (*cartports.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	product, ok := c.products[productID]
	if !ok {
		return nil, cartports.ErrProductNotFound
	}
	return &product, nil
}

func (c *fakeCatalog) ValidateAttributes(_ context.Context, productID int64, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.products[productID]; !ok {
		return cartports.ErrProductNotFound
	}
	return nil
}

func (c *fakeCatalog) setPrice(productID int64, price string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	product := c.products[productID]
	product.Price = decimal.RequireFromString(price)
	product.DiscountedPrice = decimal.Zero
	c.products[productID] = product
}

type fakeTax struct{}

func (fakeTax) GetRate(_ context.Context, taxID int64) (decimal.Decimal, error) {
	if taxID != 2 {
		return decimal.Zero, ports.ErrTaxNotFound
	}
	return decimal.RequireFromString("8.625"), nil
}

type fakeShipping struct{}

func (fakeShipping) GetCost(_ context.Context, shippingID int64) (decimal.Decimal, error) {
	if shippingID != 1 {
		return decimal.Zero, ports.ErrShippingNotFound
	}
	return decimal.RequireFromString("9.95"), nil
}

type approvingGateway struct{}

func (approvingGateway) Charge(_ context.Context, _ ports.ChargeRequest) (*ports.ChargeResult, error) {
	return &ports.ChargeResult{Captured: true, Reference: "ch_test"}, nil
}

func newCheckoutFixture(t *testing.T) (*application.Service, *cartmemory.Store, *memory.Repository, *fakeCatalog) {
	t.Helper()
	cartStore := cartmemory.NewStore()
	repo := memory.NewRepository()
	catalog := newFakeCatalog()
	coordinator := application.NewCoordinator(repo, memory.NewChargeKeyStore(), approvingGateway{})
	svc := application.NewService(repo, cartStore, catalog, fakeTax{}, fakeShipping{}, inlineOrchestrator{coordinator})
	return svc, cartStore, repo, catalog
}

type inlineOrchestrator struct {
	charger ports.Charger
}

func (o inlineOrchestrator) ExecuteCharge(ctx context.Context, cmd ports.ChargeCommand) (*ports.ChargeOutcome, error) {
	return o.charger.Charge(ctx, cmd)
}

func seedCart(t *testing.T, store *cartmemory.Store, cartID cartdomain.CartID) {
	t.Helper()
	_, err := store.AddItem(context.Background(), cartID, 5, "color:red", 4)
	require.NoError(t, err)
}

func TestCreateOrder_FreezesPricesAndTotals(t *testing.T) {
	svc, cartStore, _, _ := newCheckoutFixture(t)
	seedCart(t, cartStore, testCartID)

	order, err := svc.CreateOrder(context.Background(), ports.CreateOrderInput{
		CartID: testCartID, ShippingID: 1, TaxID: 2,
	})
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(5), order.Items[0].ProductID)
	assert.Equal(t, int32(4), order.Items[0].Quantity)
	assert.True(t, order.Items[0].UnitPrice.Equal(decimal.RequireFromString("14.99")))

	// 4*14.99 = 59.96; 8.625% tax = 5.17; shipping 9.95.
	assert.True(t, order.Subtotal.Equal(decimal.RequireFromString("59.96")), "subtotal %s", order.Subtotal)
	assert.True(t, order.TaxAmount.Equal(decimal.RequireFromString("5.17")), "tax %s", order.TaxAmount)
	assert.True(t, order.GrandTotal.Equal(decimal.RequireFromString("75.08")), "total %s", order.GrandTotal)
	assert.Equal(t, domain.PaymentCreated, order.PaymentStatus)

	snapshot, err := cartStore.GetCart(context.Background(), testCartID)
	require.NoError(t, err)
	assert.Equal(t, cartdomain.StatusCheckedOut, snapshot.Cart.Status)
	assert.Empty(t, snapshot.Items, "cart rows purged after the order persists")
}

func TestCreateOrder_SecondCheckoutConflicts(t *testing.T) {
	svc, cartStore, _, _ := newCheckoutFixture(t)
	seedCart(t, cartStore, testCartID)

	_, err := svc.CreateOrder(context.Background(), ports.CreateOrderInput{CartID: testCartID, ShippingID: 1, TaxID: 2})
	require.NoError(t, err)

	_, err = svc.CreateOrder(context.Background(), ports.CreateOrderInput{CartID: testCartID, ShippingID: 1, TaxID: 2})
	require.ErrorIs(t, err, application.ErrCheckoutConflict)
}

func TestCreateOrder_ConcurrentCheckoutsSingleWinner(t *testing.T) {
	svc, cartStore, repo, _ := newCheckoutFixture(t)
	seedCart(t, cartStore, testCartID)

	const racers = 8
	var wg sync.WaitGroup
	results := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.CreateOrder(context.Background(), ports.CreateOrderInput{CartID: testCartID, ShippingID: 1, TaxID: 2})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, application.ErrCheckoutConflict)
		}
	}
	assert.Equal(t, 1, winners)

	order, err := repo.GetByCartID(context.Background(), testCartID)
	require.NoError(t, err)
	assert.Equal(t, testCartID, order.CartID)
}

func TestCreateOrder_EmptyCartRejected(t *testing.T) {
	svc, cartStore, _, _ := newCheckoutFixture(t)
	seedCart(t, cartStore, testCartID)
	require.NoError(t, cartStore.EmptyCart(context.Background(), testCartID))

	_, err := svc.CreateOrder(context.Background(), ports.CreateOrderInput{CartID: testCartID, ShippingID: 1, TaxID: 2})
	require.ErrorIs(t, err, application.ErrInvalidInput)
}

func TestCreateOrder_UnknownCartNotFound(t *testing.T) {
	svc, _, _, _ := newCheckoutFixture(t)

	_, err := svc.CreateOrder(context.Background(), ports.CreateOrderInput{CartID: testCartID, ShippingID: 1, TaxID: 2})
	require.ErrorIs(t, err, cartports.ErrNotFound)
}

func TestCreateOrder_UnknownTaxOrShippingInvalid(t *testing.T) {
	svc, cartStore, _, _ := newCheckoutFixture(t)
	seedCart(t, cartStore, testCartID)

	_, err := svc.CreateOrder(context.Background(), ports.CreateOrderInput{CartID: testCartID, ShippingID: 99, TaxID: 2})
	assert.ErrorIs(t, err, application.ErrInvalidInput)

	_, err = svc.CreateOrder(context.Background(), ports.CreateOrderInput{CartID: testCartID, ShippingID: 1, TaxID: 99})
	assert.ErrorIs(t, err, application.ErrInvalidInput)
}

func TestOrderTotals_ImmuneToLaterPriceChanges(t *testing.T) {
	svc, cartStore, _, catalog := newCheckoutFixture(t)
	seedCart(t, cartStore, testCartID)

	order, err := svc.CreateOrder(context.Background(), ports.CreateOrderInput{CartID: testCartID, ShippingID: 1, TaxID: 2})
	require.NoError(t, err)

	catalog.setPrice(5, "99.99")

	reloaded, err := svc.GetOrderSummary(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Items[0].UnitPrice.Equal(decimal.RequireFromString("14.99")))
	assert.True(t, reloaded.GrandTotal.Equal(order.GrandTotal))
}

func TestGetCustomerOrders_Paginates(t *testing.T) {
	svc, cartStore, _, _ := newCheckoutFixture(t)

	customerID := int64(42)
	cartIDs := []cartdomain.CartID{
		"10112233445566778899aabbccddeeff",
		"20112233445566778899aabbccddeeff",
		"30112233445566778899aabbccddeeff",
	}
	for _, id := range cartIDs {
		seedCart(t, cartStore, id)
		_, err := svc.CreateOrder(context.Background(), ports.CreateOrderInput{
			CartID: id, CustomerID: &customerID, ShippingID: 1, TaxID: 2,
		})
		require.NoError(t, err)
	}

	page1, total, err := svc.GetCustomerOrders(context.Background(), customerID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page1, 2)

	page2, _, err := svc.GetCustomerOrders(context.Background(), customerID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page2, 1)

	none, total, err := svc.GetCustomerOrders(context.Background(), 999, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, none)
}

type failingRepo struct {
	*memory.Repository
	createErr error
}

func (r *failingRepo) Create(ctx context.Context, order *domain.Order) error {
	if r.createErr != nil {
		return r.createErr
	}
	return r.Repository.Create(ctx, order)
}

type brokenReopenStore struct {
	cartports.Store
}

func (s *brokenReopenStore) Reopen(context.Context, cartdomain.CartID) error {
	return errors.New("reopen failed")
}

func TestCreateOrder_CompensatesFailedPersistence(t *testing.T) {
	cartStore := cartmemory.NewStore()
	seedCart(t, cartStore, testCartID)
	repo := &failingRepo{Repository: memory.NewRepository(), createErr: errors.New("insert failed")}
	svc := application.NewService(repo, cartStore, newFakeCatalog(), fakeTax{}, fakeShipping{}, nil)

	_, err := svc.CreateOrder(context.Background(), ports.CreateOrderInput{CartID: testCartID, ShippingID: 1, TaxID: 2})
	require.Error(t, err)
	assert.NotErrorIs(t, err, application.ErrTransaction)

	// Compensation reopened the cart, so a later checkout can still win.
	snapshot, err := cartStore.GetCart(context.Background(), testCartID)
	require.NoError(t, err)
	assert.Equal(t, cartdomain.StatusOpen, snapshot.Cart.Status)
	assert.Len(t, snapshot.Items, 1)

	repo.createErr = nil
	_, err = svc.CreateOrder(context.Background(), ports.CreateOrderInput{CartID: testCartID, ShippingID: 1, TaxID: 2})
	require.NoError(t, err)
}

func TestCreateOrder_TransactionErrorWhenCompensationFails(t *testing.T) {
	cartStore := cartmemory.NewStore()
	seedCart(t, cartStore, testCartID)
	repo := &failingRepo{Repository: memory.NewRepository(), createErr: errors.New("insert failed")}
	svc := application.NewService(repo, &brokenReopenStore{Store: cartStore}, newFakeCatalog(), fakeTax{}, fakeShipping{}, nil)

	_, err := svc.CreateOrder(context.Background(), ports.CreateOrderInput{CartID: testCartID, ShippingID: 1, TaxID: 2})
	require.ErrorIs(t, err, application.ErrTransaction)

	// The cart stays checked out and flagged for operators.
	snapshot, err := cartStore.GetCart(context.Background(), testCartID)
	require.NoError(t, err)
	assert.Equal(t, cartdomain.StatusCheckedOut, snapshot.Cart.Status)
}

func TestPay_RequiresTokenAndKey(t *testing.T) {
	svc, _, _, _ := newCheckoutFixture(t)

	_, err := svc.Pay(context.Background(), ports.ChargeCommand{OrderID: 1, PaymentToken: "tok"})
	assert.ErrorIs(t, err, application.ErrInvalidInput)

	_, err = svc.Pay(context.Background(), ports.ChargeCommand{OrderID: 1, IdempotencyKey: "key"})
	assert.ErrorIs(t, err, application.ErrInvalidInput)
}
