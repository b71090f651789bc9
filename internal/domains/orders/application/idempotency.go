package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/tshirtshop/commerce-api/internal/domains/orders/ports"
)

type normalizedChargeCommand struct {
	OrderID      int64  `json:"order_id"`
	PaymentToken string `json:"payment_token"`
}

// FingerprintCharge builds a deterministic hash of the charge payload
// (excluding the idempotency key) so key reuse with a different payload is
// detectable.
func FingerprintCharge(cmd ports.ChargeCommand) (string, error) {
	payload, err := json.Marshal(normalizedChargeCommand{
		OrderID:      cmd.OrderID,
		PaymentToken: cmd.PaymentToken,
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
