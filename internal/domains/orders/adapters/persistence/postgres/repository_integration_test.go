//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	cartdomain "github.com/tshirtshop/commerce-api/internal/domains/cart/domain"
	"github.com/tshirtshop/commerce-api/internal/domains/orders/domain"
	"github.com/tshirtshop/commerce-api/internal/domains/orders/ports"
	"github.com/tshirtshop/commerce-api/internal/platform/migrations"
)

func setupOrdersPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("shop_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func buildOrder(t *testing.T, cartID cartdomain.CartID) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(cartID, nil, 1, 2, []domain.OrderItem{
		{ProductID: 5, ProductName: "Arc d'Triomphe", Attributes: "color:red", Quantity: 4, UnitPrice: decimal.RequireFromString("14.99")},
		{ProductID: 7, ProductName: "Chartres Cathedral", Quantity: 1, UnitPrice: decimal.RequireFromString("16.95")},
	})
	require.NoError(t, err)
	require.NoError(t, order.ComputeTotals(decimal.RequireFromString("8.625"), decimal.RequireFromString("9.95")))
	return order
}

func newOrderCartID(t *testing.T) cartdomain.CartID {
	id, err := cartdomain.NewCartID()
	require.NoError(t, err)
	return id
}

func TestRepository_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	cartID := newOrderCartID(t)

	order := buildOrder(t, cartID)
	require.NoError(t, repo.Create(ctx, order))
	require.NotZero(t, order.ID)

	loaded, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, cartID, loaded.CartID)
	assert.Equal(t, domain.PaymentCreated, loaded.PaymentStatus)
	require.Len(t, loaded.Items, 2)
	assert.True(t, loaded.Items[0].UnitPrice.Equal(decimal.RequireFromString("14.99")))
	assert.True(t, loaded.GrandTotal.Equal(order.GrandTotal))

	byCart, err := repo.GetByCartID(ctx, cartID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, byCart.ID)

	_, err = repo.GetByID(ctx, order.ID+1000)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_OneOrderPerCart(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	cartID := newOrderCartID(t)

	require.NoError(t, repo.Create(ctx, buildOrder(t, cartID)))

	err := repo.Create(ctx, buildOrder(t, cartID))
	require.ErrorIs(t, err, ports.ErrCartAlreadyOrdered)

	var count int64
	require.NoError(t, db.Model(&orderRecord{}).Where("cart_id = ?", string(cartID)).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRepository_ConcurrentCreatesSingleWinner(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	cartID := newOrderCartID(t)

	const racers = 8
	var wg sync.WaitGroup
	results := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = repo.Create(ctx, buildOrder(t, cartID))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ports.ErrCartAlreadyOrdered)
		}
	}
	assert.Equal(t, 1, winners)
}

func TestRepository_PaymentStatusCAS(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	order := buildOrder(t, newOrderCartID(t))
	require.NoError(t, repo.Create(ctx, order))

	moved, err := repo.UpdatePaymentStatus(ctx, order.ID, domain.PaymentCreated, domain.PaymentPending)
	require.NoError(t, err)
	assert.True(t, moved)

	// The guard refuses a stale transition.
	moved, err = repo.UpdatePaymentStatus(ctx, order.ID, domain.PaymentCreated, domain.PaymentPending)
	require.NoError(t, err)
	assert.False(t, moved)

	moved, err = repo.UpdatePaymentStatus(ctx, order.ID, domain.PaymentPending, domain.PaymentPaid)
	require.NoError(t, err)
	assert.True(t, moved)

	loaded, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, loaded.PaymentStatus)
}

func TestRepository_ListByCustomerPaginates(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	customerID := int64(7)

	for i := 0; i < 3; i++ {
		order := buildOrder(t, newOrderCartID(t))
		order.CustomerID = &customerID
		require.NoError(t, repo.Create(ctx, order))
	}

	page1, total, err := repo.ListByCustomer(ctx, customerID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page1, 2)
	assert.Greater(t, page1[0].ID, page1[1].ID, "newest first")

	page2, _, err := repo.ListByCustomer(ctx, customerID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page2, 1)
}

func TestChargeKeyStore_SaveGetUpdate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	store := NewChargeKeyStore(db)
	ctx := context.Background()

	missing, err := store.Get(ctx, "key-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	saved, err := store.Save(ctx, ports.ChargeKeyRecord{
		Key: "key-1", RequestHash: "hash-a", OrderID: 1, Outcome: ports.OutcomePending,
	})
	require.NoError(t, err)
	require.NotNil(t, saved)

	// Same key and hash replays the stored record.
	replayed, err := store.Save(ctx, ports.ChargeKeyRecord{
		Key: "key-1", RequestHash: "hash-a", OrderID: 1, Outcome: ports.OutcomePending,
	})
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomePending, replayed.Outcome)

	// Same key with a different payload conflicts.
	_, err = store.Save(ctx, ports.ChargeKeyRecord{
		Key: "key-1", RequestHash: "hash-b", OrderID: 1, Outcome: ports.OutcomePending,
	})
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)

	require.NoError(t, store.Update(ctx, ports.ChargeKeyRecord{
		Key: "key-1", Outcome: ports.OutcomeCaptured, Reference: "ch_1",
	}))

	final, err := store.Get(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeCaptured, final.Outcome)
	assert.Equal(t, "ch_1", final.Reference)
}
