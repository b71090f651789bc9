package ports

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrGatewayUnavailable marks transient gateway failures such as timeouts,
// connection errors, and 5xx responses. These are the only errors the
// coordinator retries.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// ChargeRequest asks the gateway to capture a payment exactly once for the
// given idempotency key.
type ChargeRequest struct {
	OrderID        int64
	Amount         decimal.Decimal
	Currency       string
	PaymentToken   string
	IdempotencyKey string
}

// ChargeResult is the gateway's definitive answer. A decline is an outcome,
// not an error: Captured is false and DeclineReason carries the gateway's
// verbatim reason.
type ChargeResult struct {
	Captured      bool
	DeclineReason string
	Reference     string
}

// PaymentGateway is the external charge processor.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}
