package sales

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmagtoto/tindahan-backend/pkg/db/models"
	"github.com/rmagtoto/tindahan-backend/pkg/pagination"
)

// Repository handles sales transaction persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to sales operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create persists a transaction with its line items.
func (r *Repository) Create(ctx context.Context, transaction *models.SalesTransaction) error {
	if transaction == nil {
		return fmt.Errorf("transaction is required")
	}
	if transaction.ID == uuid.Nil {
		transaction.ID = uuid.New()
	}
	for i := range transaction.LineItems {
		if transaction.LineItems[i].ID == uuid.Nil {
			transaction.LineItems[i].ID = uuid.New()
		}
		transaction.LineItems[i].TransactionID = transaction.ID
	}
	return r.db.WithContext(ctx).Create(transaction).Error
}

// FindByID loads a transaction with its line items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.SalesTransaction, error) {
	var transaction models.SalesTransaction
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		First(&transaction, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// FindByCartID loads the transaction a cart converted into, if any.
func (r *Repository) FindByCartID(ctx context.Context, cartID uuid.UUID) (*models.SalesTransaction, error) {
	var transaction models.SalesTransaction
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		First(&transaction, "cart_id = ?", cartID).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// ListByStore returns one page of transactions ordered by (created_at, id) descending.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.SalesTransaction, error) {
	query := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.SalesTransaction
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
