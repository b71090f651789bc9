package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tshirtshop/commerce-api/internal/domains/cart/domain"
	"github.com/tshirtshop/commerce-api/internal/domains/cart/ports"
)

var _ ports.Store = (*Store)(nil)

// Store persists carts in PostgreSQL using GORM. Mutations on the same cart
// serialize on a row-level lock of the cart row; quantity merges happen
// inside the database via ON CONFLICT, so concurrent deltas never lose
// updates.
type Store struct {
	db *gorm.DB
}

// NewStore wires a PostgreSQL-backed cart store. Caller manages DB lifecycle.
func NewStore(db *gorm.DB) *Store {
	store := &Store{db: db}
	if db != nil {
		_ = db.AutoMigrate(&cartRecord{}, &cartItemRecord{})
	}
	return store
}

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

func (s *Store) AddItem(ctx context.Context, cartID domain.CartID, productID int64, attributes string, quantityDelta int32) (*domain.Snapshot, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	if quantityDelta <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	var snapshot *domain.Snapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// A first mutation for an unseen token creates the cart as Open.
		cart := cartRecord{ID: cartID.String(), Status: string(domain.StatusOpen)}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).Create(&cart).Error; err != nil {
			return err
		}
		locked, err := lockCart(tx, cartID)
		if err != nil {
			return err
		}
		if locked.Status != string(domain.StatusOpen) {
			return ports.ErrCheckedOut
		}
		item := cartItemRecord{
			CartID:     cartID.String(),
			ProductID:  productID,
			Attributes: attributes,
			Quantity:   quantityDelta,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}, {Name: "attributes"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_items.quantity + EXCLUDED.quantity"),
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).Create(&item).Error; err != nil {
			return err
		}
		snapshot, err = loadSnapshot(tx, locked)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *Store) SetItemQuantity(ctx context.Context, itemID int64, quantity int32) (domain.CartID, error) {
	if err := s.ensureDB(); err != nil {
		return "", err
	}
	if quantity < 0 {
		return "", domain.ErrNegativeQuantity
	}
	var cartID domain.CartID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := lockItemCart(tx, itemID)
		if err != nil {
			return err
		}
		cartID = domain.CartID(item.CartID)
		if quantity == 0 {
			return tx.Delete(&cartItemRecord{}, item.ID).Error
		}
		return tx.Model(&cartItemRecord{}).
			Where("id = ?", item.ID).
			Updates(map[string]any{"quantity": quantity, "updated_at": gorm.Expr("NOW()")}).Error
	})
	if err != nil {
		return "", err
	}
	return cartID, nil
}

func (s *Store) RemoveItem(ctx context.Context, itemID int64) (domain.CartID, error) {
	if err := s.ensureDB(); err != nil {
		return "", err
	}
	var cartID domain.CartID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := lockItemCart(tx, itemID)
		if err != nil {
			return err
		}
		cartID = domain.CartID(item.CartID)
		return tx.Delete(&cartItemRecord{}, item.ID).Error
	})
	if err != nil {
		return "", err
	}
	return cartID, nil
}

func (s *Store) EmptyCart(ctx context.Context, cartID domain.CartID) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockCart(tx, cartID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Emptying a cart storage has never seen is a no-op.
			return nil
		}
		if err != nil {
			return err
		}
		if locked.Status != string(domain.StatusOpen) {
			return ports.ErrCheckedOut
		}
		return tx.Where("cart_id = ?", cartID.String()).Delete(&cartItemRecord{}).Error
	})
}

func (s *Store) GetCart(ctx context.Context, cartID domain.CartID) (*domain.Snapshot, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var cart cartRecord
	if err := s.db.WithContext(ctx).First(&cart, "id = ?", cartID.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return loadSnapshot(s.db.WithContext(ctx), cart)
}

// MarkCheckedOut is a single UPDATE guarded on the current status; the
// affected-row count is the compare-and-set outcome.
func (s *Store) MarkCheckedOut(ctx context.Context, cartID domain.CartID) (bool, error) {
	if err := s.ensureDB(); err != nil {
		return false, err
	}
	result := s.db.WithContext(ctx).Model(&cartRecord{}).
		Where("id = ? AND status = ?", cartID.String(), string(domain.StatusOpen)).
		Updates(map[string]any{"status": string(domain.StatusCheckedOut), "updated_at": gorm.Expr("NOW()")})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *Store) Reopen(ctx context.Context, cartID domain.CartID) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Model(&cartRecord{}).
		Where("id = ? AND status = ?", cartID.String(), string(domain.StatusCheckedOut)).
		Updates(map[string]any{"status": string(domain.StatusOpen), "updated_at": gorm.Expr("NOW()")})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (s *Store) PurgeItems(ctx context.Context, cartID domain.CartID) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Where("cart_id = ?", cartID.String()).
		Delete(&cartItemRecord{}).Error
}

func (s *Store) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres cart store not configured")
	}
	return nil
}

// lockCart takes the row-level lock that serializes mutations on a cart.
func lockCart(tx *gorm.DB, cartID domain.CartID) (cartRecord, error) {
	var cart cartRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&cart, "id = ?", cartID.String()).Error
	return cart, err
}

// lockItemCart resolves an item to its owning cart, locks the cart row, and
// re-reads the item under the lock. Checked-out carts refuse the mutation.
func lockItemCart(tx *gorm.DB, itemID int64) (cartItemRecord, error) {
	var item cartItemRecord
	if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return item, ports.ErrItemNotFound
		}
		return item, err
	}
	locked, err := lockCart(tx, domain.CartID(item.CartID))
	if err != nil {
		return item, err
	}
	if locked.Status != string(domain.StatusOpen) {
		return item, ports.ErrCheckedOut
	}
	// The item may have been removed between the read and the lock.
	if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return item, ports.ErrItemNotFound
		}
		return item, err
	}
	return item, nil
}

func loadSnapshot(tx *gorm.DB, cart cartRecord) (*domain.Snapshot, error) {
	var records []cartItemRecord
	if err := tx.Where("cart_id = ?", cart.ID).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	items := make([]domain.CartItem, 0, len(records))
	for _, rec := range records {
		items = append(items, domain.CartItem{
			ID:         rec.ID,
			CartID:     domain.CartID(rec.CartID),
			ProductID:  rec.ProductID,
			Attributes: rec.Attributes,
			Quantity:   rec.Quantity,
		})
	}
	return &domain.Snapshot{
		Cart: domain.Cart{
			ID:        domain.CartID(cart.ID),
			Status:    domain.Status(cart.Status),
			CreatedAt: cart.CreatedAt,
		},
		Items: items,
	}, nil
}
