package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmagtoto/tindahan-backend/pkg/db/models"
)

// CreateProductInput holds the validated payload to create a catalog product.
type CreateProductInput struct {
	Name         string
	Barcode      *string
	Price        decimal.Decimal
	Stock        int
	ReorderLevel int
	Category     *string
	Description  *string
	Tags         []string
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name         *string
	Barcode      *string
	Price        *decimal.Decimal
	Stock        *int
	ReorderLevel *int
	Category     *string
	Description  *string
	Tags         *[]string
}

// ProductDTO is the read model returned by catalog endpoints.
type ProductDTO struct {
	ID           uuid.UUID       `json:"id"`
	StoreID      uuid.UUID       `json:"storeId"`
	Name         string          `json:"name"`
	Barcode      *string         `json:"barcode,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	ReorderLevel int             `json:"reorderLevel"`
	Sold         int             `json:"sold"`
	Category     *string         `json:"category,omitempty"`
	Description  *string         `json:"description,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// ProductListResult is one page of products plus the cursor for the next page.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor *string      `json:"nextCursor,omitempty"`
}

func toDTO(product *models.Product) *ProductDTO {
	if product == nil {
		return nil
	}
	return &ProductDTO{
		ID:           product.ID,
		StoreID:      product.StoreID,
		Name:         product.Name,
		Barcode:      product.Barcode,
		Price:        product.Price,
		Stock:        product.Stock,
		ReorderLevel: product.ReorderLevel,
		Sold:         product.Sold,
		Category:     product.Category,
		Description:  product.Description,
		Tags:         product.Tags,
		CreatedAt:    product.CreatedAt,
		UpdatedAt:    product.UpdatedAt,
	}
}
