package memory

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/tshirtshop/commerce-api/internal/domains/orders/ports"
)

// Gateway is an in-memory payment gateway that captures every charge. It
// stands in for a real provider in local development and tests.
type Gateway struct {
	seq atomic.Int64
}

// NewGateway creates an always-approving in-memory gateway.
func NewGateway() *Gateway {
	return &Gateway{}
}

// Charge captures the request and hands back a synthetic reference.
func (g *Gateway) Charge(_ context.Context, req ports.ChargeRequest) (*ports.ChargeResult, error) {
	return &ports.ChargeResult{
		Captured:  true,
		Reference: fmt.Sprintf("memcharge-%d-%d", req.OrderID, g.seq.Add(1)),
	}, nil
}

var _ ports.PaymentGateway = (*Gateway)(nil)
