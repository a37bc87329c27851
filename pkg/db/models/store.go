package models

import (
	"time"

	"github.com/google/uuid"
)

// Store is a single retail location owning a catalog, carts and sales.
type Store struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Address   *string   `gorm:"column:address"`
	Phone     *string   `gorm:"column:phone"`
	Latitude  *float64  `gorm:"column:latitude;type:numeric(9,6)"`
	Longitude *float64  `gorm:"column:longitude;type:numeric(9,6)"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
