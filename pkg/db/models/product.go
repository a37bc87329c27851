package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry scoped to one store. Barcode is optional: store
// owners can create products before labeling them, and the resolver creates
// barcode-bearing rows from registry hits. `(store_id, barcode)` is unique so
// repeat scans of the same code land on the same row.
type Product struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID      uuid.UUID       `gorm:"column:store_id;type:uuid;not null;uniqueIndex:ux_products_store_barcode"`
	Name         string          `gorm:"column:name;not null"`
	Barcode      *string         `gorm:"column:barcode;uniqueIndex:ux_products_store_barcode"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Stock        int             `gorm:"column:stock;not null;default:0"`
	ReorderLevel int             `gorm:"column:reorder_level;not null;default:0"`
	Sold         int             `gorm:"column:sold;not null;default:0"`
	Category     *string         `gorm:"column:category"`
	Description  *string         `gorm:"column:description"`
	Tags         pq.StringArray  `gorm:"column:tags;type:text[]"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
