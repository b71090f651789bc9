package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/tshirtshop/commerce-api/internal/domains/orders/ports"
	paymentworkflows "github.com/tshirtshop/commerce-api/internal/durable/temporal/workflows/payments"
)

var (
	_ ports.ChargeOrchestrator = (*TemporalChargeWorkflows)(nil)
	_ ports.ChargeOrchestrator = (*InlineChargeWorkflows)(nil)
)

// TemporalChargeWorkflows starts charge workflows on a Temporal cluster. The
// workflow ID is derived from the idempotency key, so a retried request joins
// the run already in flight instead of starting a second one.
type TemporalChargeWorkflows struct {
	client    client.Client
	taskQueue string
}

// NewTemporalChargeWorkflows wires a Temporal client into the orchestrator.
func NewTemporalChargeWorkflows(c client.Client) *TemporalChargeWorkflows {
	return &TemporalChargeWorkflows{client: c, taskQueue: paymentworkflows.ChargeTaskQueue}
}

// ExecuteCharge starts the durable charge workflow and waits for its outcome.
func (o *TemporalChargeWorkflows) ExecuteCharge(ctx context.Context, cmd ports.ChargeCommand) (*ports.ChargeOutcome, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal charge workflows not configured")
	}
	workflowID := buildChargeWorkflowID(cmd)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		paymentworkflows.ChargeWorkflow,
		paymentworkflows.ChargeWorkflowInput{Command: cmd, TraceID: workflowTraceID(ctx)},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			existingRun := o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
			var outcome ports.ChargeOutcome
			if err := existingRun.Get(ctx, &outcome); err != nil {
				return nil, err
			}
			return &outcome, nil
		}
		return nil, err
	}
	var outcome ports.ChargeOutcome
	if err := run.Get(ctx, &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}

// InlineChargeWorkflows executes the coordinator directly without Temporal,
// useful for tests or dev fallbacks.
type InlineChargeWorkflows struct {
	charger ports.Charger
}

// NewInlineChargeWorkflows wraps the payment coordinator for synchronous execution.
func NewInlineChargeWorkflows(charger ports.Charger) *InlineChargeWorkflows {
	return &InlineChargeWorkflows{charger: charger}
}

// ExecuteCharge delegates to the coordinator without durable orchestration.
func (o *InlineChargeWorkflows) ExecuteCharge(ctx context.Context, cmd ports.ChargeCommand) (*ports.ChargeOutcome, error) {
	if o == nil || o.charger == nil {
		return nil, errors.New("inline charge workflows not configured")
	}
	return o.charger.Charge(ctx, cmd)
}

func buildChargeWorkflowID(cmd ports.ChargeCommand) string {
	if key := strings.TrimSpace(cmd.IdempotencyKey); key != "" {
		return fmt.Sprintf("payment-charge-idem-%s", hashIdempotencyKey(key))
	}
	return fmt.Sprintf("payment-charge-%d-%d", cmd.OrderID, time.Now().UnixNano())
}

func hashIdempotencyKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	// First 16 hex chars keep workflow IDs readable while staying deterministic.
	return hex.EncodeToString(sum[:8])
}

func workflowTraceID(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() || !spanCtx.TraceID().IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
