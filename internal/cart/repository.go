package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmagtoto/tindahan-backend/pkg/db/models"
	"github.com/rmagtoto/tindahan-backend/pkg/enums"
)

// Repository handles cart and cart item persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to cart operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create persists a new cart row.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) error {
	if cart == nil {
		return fmt.Errorf("cart is required")
	}
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(cart).Error
}

// FindByID loads a cart with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&cart, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// ListByStore returns carts for a store, optionally filtered by status.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID, status *enums.CartStatus) ([]models.Cart, error) {
	query := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at DESC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var rows []models.Cart
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// InsertItem adds a fresh line item. Callers handle the unique violation that
// signals a concurrent add of the same product.
func (r *Repository) InsertItem(ctx context.Context, item *models.CartItem) error {
	if item == nil {
		return fmt.Errorf("cart item is required")
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(item).Error
}

// IncrementItem bumps the quantity of an existing line item.
func (r *Repository) IncrementItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, fmt.Errorf("quantity must be positive")
	}
	result := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Update("quantity", gorm.Expr("quantity + ?", quantity))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// FindItem loads a single line item by cart and product.
func (r *Repository) FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveItem deletes a single line item.
func (r *Repository) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{}).Error
}

// ClearItems removes every line item from the cart.
func (r *Repository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

// UpdateStatus transitions the cart, recording conversion time when provided.
func (r *Repository) UpdateStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus, convertedAt *time.Time) error {
	updates := map[string]any{"status": status}
	if convertedAt != nil {
		updates["converted_at"] = *convertedAt
	}
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(updates).Error
}
