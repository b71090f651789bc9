package migrations

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&cartRecord{},
		&cartItemRecord{},
		&orderRecord{},
		&orderItemRecord{},
		&chargeKeyRecord{},
		&paymentAttemptRecord{},
	)
}

// Cart schema mirrors the cart Postgres adapter.
type cartRecord struct {
	ID        string    `gorm:"primaryKey;column:id;size:64"`
	Status    string    `gorm:"column:status;type:varchar(32);index"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (cartRecord) TableName() string { return "carts" }

type cartItemRecord struct {
	ID         int64     `gorm:"primaryKey;autoIncrement;column:id"`
	CartID     string    `gorm:"column:cart_id;size:64;uniqueIndex:uq_cart_product_attrs,priority:1;index"`
	ProductID  int64     `gorm:"column:product_id;uniqueIndex:uq_cart_product_attrs,priority:2"`
	Attributes string    `gorm:"column:attributes;size:1000;uniqueIndex:uq_cart_product_attrs,priority:3"`
	Quantity   int32     `gorm:"column:quantity"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (cartItemRecord) TableName() string { return "cart_items" }

// Order schema mirrors the orders Postgres adapter.
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

// Charge idempotency ledger mirrors the orders Postgres idempotency store.
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

// Payment attempt audit rows keep the gateway error trail per logical charge.
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
