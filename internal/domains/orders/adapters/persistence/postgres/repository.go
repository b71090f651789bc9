package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	cartdomain "github.com/tshirtshop/commerce-api/internal/domains/cart/domain"
	"github.com/tshirtshop/commerce-api/internal/domains/orders/domain"
	"github.com/tshirtshop/commerce-api/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB
// lifecycle and runs migrations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type orderRecord struct {
	ID            int64           `gorm:"primaryKey;autoIncrement;column:id"`
	CartID        string          `gorm:"column:cart_id;size:64;uniqueIndex"`
	CustomerID    *int64          `gorm:"column:customer_id;index"`
	ShippingID    int64           `gorm:"column:shipping_id"`
	TaxID         int64           `gorm:"column:tax_id"`
	PaymentStatus string          `gorm:"column:payment_status;type:varchar(32);index"`
	Subtotal      decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2)"`
	TaxAmount     decimal.Decimal `gorm:"column:tax_amount;type:numeric(12,2)"`
	ShippingCost  decimal.Decimal `gorm:"column:shipping_cost;type:numeric(12,2)"`
	GrandTotal    decimal.Decimal `gorm:"column:grand_total;type:numeric(12,2)"`
	CreatedAt     time.Time       `gorm:"column:created_at;index"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type orderItemRecord struct {
	ID          int64           `gorm:"primaryKey;autoIncrement;column:id"`
	OrderID     int64           `gorm:"column:order_id;index"`
	ProductID   int64           `gorm:"column:product_id"`
	ProductName string          `gorm:"column:product_name;size:255"`
	Attributes  string          `gorm:"column:attributes;size:1000"`
	Quantity    int32           `gorm:"column:quantity"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2)"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
}

func (orderItemRecord) TableName() string { return "order_items" }

type paymentAttemptRecord struct {
	ID             int64          `gorm:"primaryKey;autoIncrement;column:id"`
	OrderID        int64          `gorm:"column:order_id;index"`
	IdempotencyKey string         `gorm:"column:idempotency_key;size:255;index"`
	Attempts       int32          `gorm:"column:attempts"`
	Outcome        string         `gorm:"column:outcome;type:varchar(32)"`
	GatewayErrors  pq.StringArray `gorm:"column:gateway_errors;type:text[]"`
	CreatedAt      time.Time      `gorm:"column:created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at"`
}

func (paymentAttemptRecord) TableName() string { return "payment_attempts" }

// Create inserts the order and its frozen items in one transaction. The
// unique index on cart_id turns a duplicate checkout into
// ports.ErrCartAlreadyOrdered.
func (r *Repository) Create(ctx context.Context, order *domain.Order) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := toOrderRecord(order)
		if err := tx.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ports.ErrCartAlreadyOrdered
			}
			return err
		}
		items := make([]orderItemRecord, 0, len(order.Items))
		for _, item := range order.Items {
			items = append(items, orderItemRecord{
				OrderID:     record.ID,
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Attributes:  item.Attributes,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
			})
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		order.ID = record.ID
		order.CreatedAt = record.CreatedAt
		for i := range items {
			order.Items[i].ID = items[i].ID
			order.Items[i].OrderID = record.ID
		}
		return nil
	})
}

// GetByID fetches an order with its items.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return r.hydrate(ctx, &record)
}

// GetByCartID fetches the order created from the given cart.
func (r *Repository) GetByCartID(ctx context.Context, cartID cartdomain.CartID) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).First(&record, "cart_id = ?", string(cartID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return r.hydrate(ctx, &record)
}

// ListByCustomer returns one page of the customer's orders, newest first,
// along with the total count.
func (r *Repository) ListByCustomer(ctx context.Context, customerID int64, page, pageSize int) ([]*domain.Order, int64, error) {
	if err := r.ensureDB(); err != nil {
		return nil, 0, err
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&orderRecord{}).
		Where("customer_id = ?", customerID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var records []orderRecord
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error; err != nil {
		return nil, 0, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		order, err := r.hydrate(ctx, &records[i])
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}
	return orders, total, nil
}

// UpdatePaymentStatus performs the compare-and-set transition guard.
func (r *Repository) UpdatePaymentStatus(ctx context.Context, id int64, from, to domain.PaymentStatus) (bool, error) {
	if err := r.ensureDB(); err != nil {
		return false, err
	}
	result := r.db.WithContext(ctx).Model(&orderRecord{}).
		Where("id = ? AND payment_status = ?", id, string(from)).
		Updates(map[string]any{
			"payment_status": string(to),
			"updated_at":     gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RecordAttempt appends a gateway interaction audit row.
func (r *Repository) RecordAttempt(ctx context.Context, attempt ports.Attempt) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	record := paymentAttemptRecord{
		OrderID:        attempt.OrderID,
		IdempotencyKey: attempt.IdempotencyKey,
		Attempts:       attempt.Attempts,
		Outcome:        attempt.Outcome,
		GatewayErrors:  pq.StringArray(attempt.GatewayErrors),
	}
	return r.db.WithContext(ctx).Create(&record).Error
}

func (r *Repository) hydrate(ctx context.Context, record *orderRecord) (*domain.Order, error) {
	var items []orderItemRecord
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", record.ID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return toDomainOrder(record, items), nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toOrderRecord(order *domain.Order) orderRecord {
	return orderRecord{
		ID:            order.ID,
		CartID:        string(order.CartID),
		CustomerID:    order.CustomerID,
		ShippingID:    order.ShippingID,
		TaxID:         order.TaxID,
		PaymentStatus: string(order.PaymentStatus),
		Subtotal:      order.Subtotal,
		TaxAmount:     order.TaxAmount,
		ShippingCost:  order.ShippingCost,
		GrandTotal:    order.GrandTotal,
	}
}

func toDomainOrder(record *orderRecord, items []orderItemRecord) *domain.Order {
	order := &domain.Order{
		ID:            record.ID,
		CartID:        cartdomain.CartID(record.CartID),
		CustomerID:    record.CustomerID,
		ShippingID:    record.ShippingID,
		TaxID:         record.TaxID,
		PaymentStatus: domain.PaymentStatus(record.PaymentStatus),
		Subtotal:      record.Subtotal,
		TaxAmount:     record.TaxAmount,
		ShippingCost:  record.ShippingCost,
		GrandTotal:    record.GrandTotal,
		CreatedAt:     record.CreatedAt,
		Items:         make([]domain.OrderItem, 0, len(items)),
	}
	for _, item := range items {
		order.Items = append(order.Items, domain.OrderItem{
			ID:          item.ID,
			OrderID:     item.OrderID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Attributes:  item.Attributes,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return order
}
