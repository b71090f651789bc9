package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tshirtshop/commerce-api/internal/domains/orders/domain"
	"github.com/tshirtshop/commerce-api/internal/domains/orders/ports"
)

const (
	defaultChargeTimeout   = 10 * time.Second
	defaultMaxRetries      = 3
	defaultInitialInterval = 250 * time.Millisecond
	defaultCurrency        = "USD"
)

// Coordinator captures payments idempotently. The ledger guarantees at most
// one capture per idempotency key: known outcomes are replayed without
// touching the gateway, and the key is forwarded unchanged on every retry so
// the gateway can deduplicate in-flight attempts.
type Coordinator struct {
	repo    ports.Repository
	ledger  ports.ChargeKeyStore
	gateway ports.PaymentGateway

	chargeTimeout   time.Duration
	maxRetries      uint64
	initialInterval time.Duration
	currency        string
}

type CoordinatorOption func(*Coordinator)

func WithChargeTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d > 0 {
			c.chargeTimeout = d
		}
	}
}

func WithMaxRetries(n uint64) CoordinatorOption {
	return func(c *Coordinator) {
		c.maxRetries = n
	}
}

func WithInitialInterval(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d > 0 {
			c.initialInterval = d
		}
	}
}

func NewCoordinator(repo ports.Repository, ledger ports.ChargeKeyStore, gateway ports.PaymentGateway, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		repo:            repo,
		ledger:          ledger,
		gateway:         gateway,
		chargeTimeout:   defaultChargeTimeout,
		maxRetries:      defaultMaxRetries,
		initialInterval: defaultInitialInterval,
		currency:        defaultCurrency,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Charge drives one idempotent capture attempt for the order.
func (c *Coordinator) Charge(ctx context.Context, cmd ports.ChargeCommand) (*ports.ChargeOutcome, error) {
	order, err := c.repo.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	hash, err := FingerprintCharge(cmd)
	if err != nil {
		return nil, err
	}

	record, err := c.ledger.Get(ctx, cmd.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if record != nil {
		if record.RequestHash != hash || record.OrderID != cmd.OrderID {
			return nil, ports.ErrIdempotencyConflict
		}
		switch record.Outcome {
		case ports.OutcomeCaptured:
			// Reconcile the order row in case an earlier attempt crashed
			// between recording the capture and flipping the status.
			_, _ = c.repo.UpdatePaymentStatus(ctx, cmd.OrderID, domain.PaymentPending, domain.PaymentPaid)
			return &ports.ChargeOutcome{Status: domain.PaymentPaid, Reference: record.Reference}, nil
		case ports.OutcomeDeclined:
			return &ports.ChargeOutcome{Status: domain.PaymentFailed, DeclineReason: record.DeclineReason}, nil
		}
		// Pending: a previous attempt died before the gateway answered.
		// Fall through and retry with the same key.
	} else {
		if _, err := c.ledger.Save(ctx, ports.ChargeKeyRecord{
			Key:         cmd.IdempotencyKey,
			RequestHash: hash,
			OrderID:     cmd.OrderID,
			Outcome:     ports.OutcomePending,
		}); err != nil {
			return nil, err
		}
	}

	if err := c.beginPayment(ctx, order); err != nil {
		return nil, err
	}

	result, gatewayErrors, err := c.chargeWithBackoff(ctx, ports.ChargeRequest{
		OrderID:        order.ID,
		Amount:         order.GrandTotal,
		Currency:       c.currency,
		PaymentToken:   cmd.PaymentToken,
		IdempotencyKey: cmd.IdempotencyKey,
	})
	if err != nil {
		// Transient failure after exhausted retries: the order stays
		// payment_pending and the key stays pending for a later retry.
		c.recordAttempt(ctx, order.ID, cmd.IdempotencyKey, "gateway_error", gatewayErrors)
		return nil, err
	}

	if !result.Captured {
		if err := c.ledger.Update(ctx, ports.ChargeKeyRecord{
			Key:           cmd.IdempotencyKey,
			RequestHash:   hash,
			OrderID:       cmd.OrderID,
			Outcome:       ports.OutcomeDeclined,
			DeclineReason: result.DeclineReason,
		}); err != nil {
			return nil, err
		}
		if _, err := c.repo.UpdatePaymentStatus(ctx, order.ID, domain.PaymentPending, domain.PaymentFailed); err != nil {
			return nil, err
		}
		c.recordAttempt(ctx, order.ID, cmd.IdempotencyKey, ports.OutcomeDeclined, gatewayErrors)
		return &ports.ChargeOutcome{Status: domain.PaymentFailed, DeclineReason: result.DeclineReason}, nil
	}

	if err := c.ledger.Update(ctx, ports.ChargeKeyRecord{
		Key:         cmd.IdempotencyKey,
		RequestHash: hash,
		OrderID:     cmd.OrderID,
		Outcome:     ports.OutcomeCaptured,
		Reference:   result.Reference,
	}); err != nil {
		return nil, err
	}
	if _, err := c.repo.UpdatePaymentStatus(ctx, order.ID, domain.PaymentPending, domain.PaymentPaid); err != nil {
		return nil, err
	}
	c.recordAttempt(ctx, order.ID, cmd.IdempotencyKey, ports.OutcomeCaptured, gatewayErrors)
	return &ports.ChargeOutcome{Status: domain.PaymentPaid, Reference: result.Reference}, nil
}

// beginPayment moves the order into payment_pending through the repository
// compare-and-set, tolerating a concurrent attempt that got there first.
func (c *Coordinator) beginPayment(ctx context.Context, order *domain.Order) error {
	switch order.PaymentStatus {
	case domain.PaymentCreated, domain.PaymentFailed:
		moved, err := c.repo.UpdatePaymentStatus(ctx, order.ID, order.PaymentStatus, domain.PaymentPending)
		if err != nil {
			return err
		}
		if !moved {
			current, err := c.repo.GetByID(ctx, order.ID)
			if err != nil {
				return err
			}
			if current.PaymentStatus != domain.PaymentPending {
				return fmt.Errorf("%w: order %d is %s", domain.ErrInvalidTransition, order.ID, current.PaymentStatus)
			}
		}
		return nil
	case domain.PaymentPending:
		return nil
	default:
		return fmt.Errorf("%w: order %d is %s", domain.ErrInvalidTransition, order.ID, order.PaymentStatus)
	}
}

// chargeWithBackoff calls the gateway under a per-attempt timeout, retrying
// only transient gateway errors with bounded exponential backoff. Declines
// come back as successful results and are never retried.
func (c *Coordinator) chargeWithBackoff(ctx context.Context, req ports.ChargeRequest) (*ports.ChargeResult, []string, error) {
	var result *ports.ChargeResult
	var gatewayErrors []string

	operation := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, c.chargeTimeout)
		defer cancel()

		res, err := c.gateway.Charge(attemptCtx, req)
		if err != nil {
			if errors.Is(err, ports.ErrGatewayUnavailable) || errors.Is(err, context.DeadlineExceeded) {
				gatewayErrors = append(gatewayErrors, err.Error())
				return fmt.Errorf("%w: %w", ports.ErrGatewayUnavailable, err)
			}
			return backoff.Permanent(err)
		}
		result = res
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialInterval
	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx)); err != nil {
		return nil, gatewayErrors, err
	}
	return result, gatewayErrors, nil
}

func (c *Coordinator) recordAttempt(ctx context.Context, orderID int64, key, outcome string, gatewayErrors []string) {
	attempts := len(gatewayErrors)
	if outcome != "gateway_error" {
		// The final call reached a definitive answer.
		attempts++
	}
	_ = c.repo.RecordAttempt(ctx, ports.Attempt{
		OrderID:        orderID,
		IdempotencyKey: key,
		Attempts:       int32(attempts),
		Outcome:        outcome,
		GatewayErrors:  gatewayErrors,
	})
}

var _ ports.Charger = (*Coordinator)(nil)
