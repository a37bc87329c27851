package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rmagtoto/tindahan-backend/pkg/enums"
)

// Cart accumulates line items for one scanning session. A cart never reopens
// once converted or canceled; a new session creates a new cart.
type Cart struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID     uuid.UUID        `gorm:"column:store_id;type:uuid;not null"`
	Name        string           `gorm:"column:name;not null"`
	Status      enums.CartStatus `gorm:"column:status;not null;default:'active'"`
	ConvertedAt *time.Time       `gorm:"column:converted_at"`
	Items       []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
