package ports

import (
	"context"
	"errors"
	"time"
)

// ErrIdempotencyConflict indicates the same key was reused with a different payload.
var ErrIdempotencyConflict = errors.New("idempotency conflict")

// Charge outcomes stored in the ledger. In-flight keys hold OutcomePending
// until the gateway answers definitively.
const (
	OutcomePending  = "pending"
	OutcomeCaptured = "captured"
	OutcomeDeclined = "declined"
)

// ChargeKeyRecord associates a client-supplied idempotency key with the charge
// it names and, once known, the definitive outcome.
type ChargeKeyRecord struct {
	Key           string
	RequestHash   string
	OrderID       int64
	Outcome       string
	Reference     string
	DeclineReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ChargeKeyStore persists idempotency keys so charge retries replay the stored
// outcome instead of touching the gateway twice.
type ChargeKeyStore interface {
	// Get returns the stored record for the key, or nil when unknown.
	Get(ctx context.Context, key string) (*ChargeKeyRecord, error)
	// Save persists a new record; when the key exists with the same hash the
	// stored record is returned, and when it exists with a different hash
	// ErrIdempotencyConflict is returned with the stored record.
	Save(ctx context.Context, record ChargeKeyRecord) (*ChargeKeyRecord, error)
	// Update overwrites the outcome fields of an existing key.
	Update(ctx context.Context, record ChargeKeyRecord) error
}
