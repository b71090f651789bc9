package payments

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/tshirtshop/commerce-api/internal/domains/orders/ports"
)

const (
	// ChargeWorkflowName is the public identifier for registering the workflow.
	ChargeWorkflowName = "payments.workflows.Charge"
	// ChargeTaskQueue is the queue consumed by the worker processing charge workflows.
	ChargeTaskQueue = "PAYMENT_CHARGE"
	// ExecuteChargeActivityName performs the idempotent capture against the gateway.
	ExecuteChargeActivityName = "payments.activities.ExecuteCharge"
)

// ChargeWorkflowInput captures the payload required to charge an order.
type ChargeWorkflowInput struct {
	Command ports.ChargeCommand
	TraceID string
}

// ChargeWorkflow drives the idempotent capture of one order payment. The
// activity carries the client's idempotency key unchanged, so Temporal's
// retry policy can safely re-run it on transient gateway failures.
func ChargeWorkflow(ctx workflow.Context, input ChargeWorkflowInput) (*ports.ChargeOutcome, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("ChargeWorkflow started", withTraceID(input.TraceID, "orderId", input.Command.OrderID)...)

	options := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    5,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var outcome ports.ChargeOutcome
	if err := workflow.ExecuteActivity(ctx, ExecuteChargeActivityName, input.Command).Get(ctx, &outcome); err != nil {
		logger.Error("ChargeWorkflow failed", withTraceID(input.TraceID, "orderId", input.Command.OrderID, "error", err)...)
		return nil, err
	}
	logger.Info("ChargeWorkflow completed", withTraceID(input.TraceID, "orderId", input.Command.OrderID, "status", string(outcome.Status))...)
	return &outcome, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
