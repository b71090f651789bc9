package payments

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/tshirtshop/commerce-api/internal/domains/orders/ports"
)

// Activities groups activities that operate on order payments.
type Activities struct {
	charger ports.Charger
}

// NewActivities wires the payment coordinator into the Temporal activities bundle.
func NewActivities(charger ports.Charger) *Activities {
	return &Activities{charger: charger}
}

// ExecuteCharge captures the order payment through the coordinator. Only
// transient gateway failures are left retryable; everything else fails the
// workflow immediately.
func (a *Activities) ExecuteCharge(ctx context.Context, cmd ports.ChargeCommand) (*ports.ChargeOutcome, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.charger == nil {
		logger.Error("charge activity not initialized", "orderId", cmd.OrderID)
		return nil, errors.New("charge activity not initialized")
	}
	logger.Info("ExecuteCharge activity started", "orderId", cmd.OrderID)
	outcome, err := a.charger.Charge(ctx, cmd)
	if err != nil {
		logger.Error("ExecuteCharge activity failed", "orderId", cmd.OrderID, "error", err)
		if errors.Is(err, ports.ErrGatewayUnavailable) {
			return nil, err
		}
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), "ChargeFailure", err)
	}
	logger.Info("ExecuteCharge activity completed", "orderId", cmd.OrderID, "status", string(outcome.Status))
	return outcome, nil
}
