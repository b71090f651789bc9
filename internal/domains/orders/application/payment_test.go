package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tshirtshop/commerce-api/internal/domains/orders/adapters/memory"
	"github.com/tshirtshop/commerce-api/internal/domains/orders/application"
	"github.com/tshirtshop/commerce-api/internal/domains/orders/domain"
	"github.com/tshirtshop/commerce-api/internal/domains/orders/ports"
)

// scriptedGateway answers Charge calls from a fixed script and counts
// captures so tests can assert at-most-one capture per key.
type scriptedGateway struct {
	mu       sync.Mutex
	script   []func() (*ports.ChargeResult, error)
	calls    int
	captures int
}

func (g *scriptedGateway) Charge(_ context.Context, _ ports.ChargeRequest) (*ports.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.calls >= len(g.script) {
		return nil, ports.ErrGatewayUnavailable
	}
	result, err := g.script[g.calls]()
	g.calls++
	if err == nil && result.Captured {
		g.captures++
	}
	return result, err
}

func (g *scriptedGateway) stats() (calls, captures int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls, g.captures
}

func capture(reference string) func() (*ports.ChargeResult, error) {
	return func() (*ports.ChargeResult, error) {
		return &ports.ChargeResult{Captured: true, Reference: reference}, nil
	}
}

func decline(reason string) func() (*ports.ChargeResult, error) {
	return func() (*ports.ChargeResult, error) {
		return &ports.ChargeResult{Captured: false, DeclineReason: reason}, nil
	}
}

func unavailable() (*ports.ChargeResult, error) {
	return nil, ports.ErrGatewayUnavailable
}

func seedOrder(t *testing.T, repo *memory.Repository) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(testCartID, nil, 1, 2, []domain.OrderItem{
		{ProductID: 5, ProductName: "Arc d'Triomphe", Quantity: 4, UnitPrice: decimal.RequireFromString("14.99")},
	})
	require.NoError(t, err)
	require.NoError(t, order.ComputeTotals(decimal.RequireFromString("8.625"), decimal.RequireFromString("9.95")))
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func newCoordinator(repo *memory.Repository, ledger *memory.ChargeKeyStore, gateway ports.PaymentGateway) *application.Coordinator {
	return application.NewCoordinator(repo, ledger, gateway,
		application.WithInitialInterval(time.Millisecond),
		application.WithMaxRetries(3),
	)
}

func TestCharge_TimeoutsThenSuccessCapturesOnce(t *testing.T) {
	repo := memory.NewRepository()
	ledger := memory.NewChargeKeyStore()
	gateway := &scriptedGateway{script: []func() (*ports.ChargeResult, error){
		unavailable, unavailable, capture("ch_1"),
	}}
	order := seedOrder(t, repo)
	coordinator := newCoordinator(repo, ledger, gateway)

	outcome, err := coordinator.Charge(context.Background(), ports.ChargeCommand{
		OrderID: order.ID, PaymentToken: "tok_visa", IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, outcome.Status)
	assert.Equal(t, "ch_1", outcome.Reference)

	calls, captures := gateway.stats()
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, captures)

	reloaded, err := repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, reloaded.PaymentStatus)
}

func TestCharge_ReplaySameKeySkipsGateway(t *testing.T) {
	repo := memory.NewRepository()
	ledger := memory.NewChargeKeyStore()
	gateway := &scriptedGateway{script: []func() (*ports.ChargeResult, error){capture("ch_1")}}
	order := seedOrder(t, repo)
	coordinator := newCoordinator(repo, ledger, gateway)

	cmd := ports.ChargeCommand{OrderID: order.ID, PaymentToken: "tok_visa", IdempotencyKey: "key-1"}
	first, err := coordinator.Charge(context.Background(), cmd)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentPaid, first.Status)

	second, err := coordinator.Charge(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, second.Status)
	assert.Equal(t, "ch_1", second.Reference)

	calls, captures := gateway.stats()
	assert.Equal(t, 1, calls, "replay must not touch the gateway")
	assert.Equal(t, 1, captures)
}

func TestCharge_KeyReuseWithDifferentPayloadConflicts(t *testing.T) {
	repo := memory.NewRepository()
	ledger := memory.NewChargeKeyStore()
	gateway := &scriptedGateway{script: []func() (*ports.ChargeResult, error){capture("ch_1")}}
	order := seedOrder(t, repo)
	coordinator := newCoordinator(repo, ledger, gateway)

	_, err := coordinator.Charge(context.Background(), ports.ChargeCommand{
		OrderID: order.ID, PaymentToken: "tok_visa", IdempotencyKey: "key-1",
	})
	require.NoError(t, err)

	_, err = coordinator.Charge(context.Background(), ports.ChargeCommand{
		OrderID: order.ID, PaymentToken: "tok_other", IdempotencyKey: "key-1",
	})
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
}

func TestCharge_DeclineIsAnOutcomeNotAnError(t *testing.T) {
	repo := memory.NewRepository()
	ledger := memory.NewChargeKeyStore()
	gateway := &scriptedGateway{script: []func() (*ports.ChargeResult, error){decline("insufficient funds")}}
	order := seedOrder(t, repo)
	coordinator := newCoordinator(repo, ledger, gateway)

	cmd := ports.ChargeCommand{OrderID: order.ID, PaymentToken: "tok_visa", IdempotencyKey: "key-1"}
	outcome, err := coordinator.Charge(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, outcome.Status)
	assert.Equal(t, "insufficient funds", outcome.DeclineReason)

	reloaded, err := repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, reloaded.PaymentStatus)

	// A decline is definitive: replaying the key reports it without retrying.
	replay, err := coordinator.Charge(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, replay.Status)
	assert.Equal(t, "insufficient funds", replay.DeclineReason)

	calls, _ := gateway.stats()
	assert.Equal(t, 1, calls)
}

func TestCharge_GatewayDownLeavesOrderPending(t *testing.T) {
	repo := memory.NewRepository()
	ledger := memory.NewChargeKeyStore()
	gateway := &scriptedGateway{script: nil}
	order := seedOrder(t, repo)
	coordinator := newCoordinator(repo, ledger, gateway)

	cmd := ports.ChargeCommand{OrderID: order.ID, PaymentToken: "tok_visa", IdempotencyKey: "key-1"}
	_, err := coordinator.Charge(context.Background(), cmd)
	require.ErrorIs(t, err, ports.ErrGatewayUnavailable)

	reloaded, err := repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, reloaded.PaymentStatus)

	attempts := repo.Attempts()
	require.Len(t, attempts, 1)
	assert.Equal(t, "gateway_error", attempts[0].Outcome)
	assert.Len(t, attempts[0].GatewayErrors, 4, "initial call plus three retries")

	// The gateway recovers; retrying the same key completes the payment.
	gateway.mu.Lock()
	gateway.script = append(gateway.script, make([]func() (*ports.ChargeResult, error), gateway.calls)...)
	gateway.script = append(gateway.script, capture("ch_late"))
	gateway.mu.Unlock()

	outcome, err := coordinator.Charge(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, outcome.Status)

	_, captures := gateway.stats()
	assert.Equal(t, 1, captures)
}

func TestCharge_FailedOrderRetriesWithFreshKey(t *testing.T) {
	repo := memory.NewRepository()
	ledger := memory.NewChargeKeyStore()
	gateway := &scriptedGateway{script: []func() (*ports.ChargeResult, error){
		decline("card expired"), capture("ch_2"),
	}}
	order := seedOrder(t, repo)
	coordinator := newCoordinator(repo, ledger, gateway)

	first, err := coordinator.Charge(context.Background(), ports.ChargeCommand{
		OrderID: order.ID, PaymentToken: "tok_old", IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	require.Equal(t, domain.PaymentFailed, first.Status)

	second, err := coordinator.Charge(context.Background(), ports.ChargeCommand{
		OrderID: order.ID, PaymentToken: "tok_new", IdempotencyKey: "key-2",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, second.Status)

	reloaded, err := repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, reloaded.PaymentStatus)
}

func TestCharge_UnknownOrderNotFound(t *testing.T) {
	repo := memory.NewRepository()
	coordinator := newCoordinator(repo, memory.NewChargeKeyStore(), &scriptedGateway{})

	_, err := coordinator.Charge(context.Background(), ports.ChargeCommand{
		OrderID: 404, PaymentToken: "tok", IdempotencyKey: "key",
	})
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestCharge_PaidOrderRejectsNewKey(t *testing.T) {
	repo := memory.NewRepository()
	ledger := memory.NewChargeKeyStore()
	gateway := &scriptedGateway{script: []func() (*ports.ChargeResult, error){capture("ch_1")}}
	order := seedOrder(t, repo)
	coordinator := newCoordinator(repo, ledger, gateway)

	_, err := coordinator.Charge(context.Background(), ports.ChargeCommand{
		OrderID: order.ID, PaymentToken: "tok_visa", IdempotencyKey: "key-1",
	})
	require.NoError(t, err)

	_, err = coordinator.Charge(context.Background(), ports.ChargeCommand{
		OrderID: order.ID, PaymentToken: "tok_visa", IdempotencyKey: "key-2",
	})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, captures := gateway.stats()
	assert.Equal(t, 1, captures)
}
