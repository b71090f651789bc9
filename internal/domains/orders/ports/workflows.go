package ports

import (
	"context"
)

// ChargeOrchestrator executes the charge for an order, either durably on a
// Temporal cluster or inline against the payment coordinator.
type ChargeOrchestrator interface {
	ExecuteCharge(ctx context.Context, cmd ChargeCommand) (*ChargeOutcome, error)
}

// Charger performs the actual idempotent charge. The orchestrator adapters
// route to it directly or through a workflow activity.
type Charger interface {
	Charge(ctx context.Context, cmd ChargeCommand) (*ChargeOutcome, error)
}
