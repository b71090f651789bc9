package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tshirtshop/commerce-api/internal/domains/orders/ports"
)

var _ ports.ChargeKeyStore = (*ChargeKeyStore)(nil)

// ChargeKeyStore persists charge idempotency keys in PostgreSQL.
type ChargeKeyStore struct {
	db *gorm.DB
}

// NewChargeKeyStore wires a PostgreSQL-backed ledger.
func NewChargeKeyStore(db *gorm.DB) *ChargeKeyStore {
	return &ChargeKeyStore{db: db}
}

// Get loads a record by key, returning nil when absent.
func (s *ChargeKeyStore) Get(ctx context.Context, key string) (*ports.ChargeKeyRecord, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var record chargeKeyRecord
	if err := s.db.WithContext(ctx).First(&record, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toPortRecord(&record), nil
}

// Save inserts the record; if the key already exists with the same hash/order
// it is returned, otherwise ErrIdempotencyConflict is returned with the
// stored record.
func (s *ChargeKeyStore) Save(ctx context.Context, record ports.ChargeKeyRecord) (*ports.ChargeKeyRecord, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	dbRecord := toDBRecord(record)
	if err := s.db.WithContext(ctx).Create(&dbRecord).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, err := s.Get(ctx, record.Key)
			if err != nil {
				return nil, err
			}
			if existing == nil {
				return nil, err
			}
			if existing.RequestHash != record.RequestHash || existing.OrderID != record.OrderID {
				return existing, ports.ErrIdempotencyConflict
			}
			return existing, nil
		}
		return nil, err
	}
	return toPortRecord(&dbRecord), nil
}

// Update overwrites the outcome fields of an existing key.
func (s *ChargeKeyStore) Update(ctx context.Context, record ports.ChargeKeyRecord) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Model(&chargeKeyRecord{}).
		Where("key = ?", record.Key).
		Updates(map[string]any{
			"outcome":        record.Outcome,
			"reference":      record.Reference,
			"decline_reason": record.DeclineReason,
			"updated_at":     gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrIdempotencyConflict
	}
	return nil
}

func (s *ChargeKeyStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres charge key store not configured")
	}
	return nil
}

type chargeKeyRecord struct {
	Key           string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash   string    `gorm:"column:request_hash;size:128"`
	OrderID       int64     `gorm:"column:order_id;index"`
	Outcome       string    `gorm:"column:outcome;type:varchar(32)"`
	Reference     string    `gorm:"column:reference;size:128"`
	DeclineReason string    `gorm:"column:decline_reason;size:255"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (chargeKeyRecord) TableName() string { return "charge_idempotency_keys" }

func toDBRecord(rec ports.ChargeKeyRecord) chargeKeyRecord {
	return chargeKeyRecord{
		Key:           rec.Key,
		RequestHash:   rec.RequestHash,
		OrderID:       rec.OrderID,
		Outcome:       rec.Outcome,
		Reference:     rec.Reference,
		DeclineReason: rec.DeclineReason,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
}

func toPortRecord(rec *chargeKeyRecord) *ports.ChargeKeyRecord {
	if rec == nil {
		return nil
	}
	return &ports.ChargeKeyRecord{
		Key:           rec.Key,
		RequestHash:   rec.RequestHash,
		OrderID:       rec.OrderID,
		Outcome:       rec.Outcome,
		Reference:     rec.Reference,
		DeclineReason: rec.DeclineReason,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
}
