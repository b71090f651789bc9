package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tshirtshop/commerce-api/internal/domains/orders/ports"
)

var _ ports.ChargeKeyStore = (*ChargeKeyStore)(nil)

// ChargeKeyStore provides an in-memory ledger for development and tests.
type ChargeKeyStore struct {
	mu      sync.RWMutex
	records map[string]ports.ChargeKeyRecord
	now     func() time.Time
}

// NewChargeKeyStore constructs an empty in-memory ledger.
func NewChargeKeyStore() *ChargeKeyStore {
	return &ChargeKeyStore{
		records: map[string]ports.ChargeKeyRecord{},
		now:     time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (s *ChargeKeyStore) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Get returns the stored record for the provided key, or nil when absent.
func (s *ChargeKeyStore) Get(_ context.Context, key string) (*ports.ChargeKeyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	copy := record
	return &copy, nil
}

// Save persists the record or returns the existing record if it matches.
func (s *ChargeKeyStore) Save(_ context.Context, record ports.ChargeKeyRecord) (*ports.ChargeKeyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[record.Key]; ok {
		if existing.RequestHash != record.RequestHash || existing.OrderID != record.OrderID {
			copy := existing
			return &copy, ports.ErrIdempotencyConflict
		}
		copy := existing
		return &copy, nil
	}

	now := s.now()
	record.CreatedAt = now
	record.UpdatedAt = now
	s.records[record.Key] = record
	saved := record
	return &saved, nil
}

// Update overwrites the outcome fields of an existing key.
func (s *ChargeKeyStore) Update(_ context.Context, record ports.ChargeKeyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[record.Key]
	if !ok {
		return ports.ErrIdempotencyConflict
	}
	existing.Outcome = record.Outcome
	existing.Reference = record.Reference
	existing.DeclineReason = record.DeclineReason
	existing.UpdatedAt = s.now()
	s.records[record.Key] = existing
	return nil
}
