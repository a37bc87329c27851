package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmagtoto/tindahan-backend/pkg/db/models"
	"github.com/rmagtoto/tindahan-backend/pkg/enums"
)

// CreateCartInput holds the validated payload to open a cart.
type CreateCartInput struct {
	Name string
}

// CartItemDTO is one line of the cart read model.
type CartItemDTO struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// CartDTO is the cart read model with its computed total.
type CartDTO struct {
	ID          uuid.UUID        `json:"id"`
	StoreID     uuid.UUID        `json:"storeId"`
	Name        string           `json:"name"`
	Status      enums.CartStatus `json:"status"`
	Items       []CartItemDTO    `json:"items"`
	Total       decimal.Decimal  `json:"total"`
	ConvertedAt *time.Time       `json:"convertedAt,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

func toDTO(cart *models.Cart) *CartDTO {
	if cart == nil {
		return nil
	}
	dto := &CartDTO{
		ID:          cart.ID,
		StoreID:     cart.StoreID,
		Name:        cart.Name,
		Status:      cart.Status,
		Items:       make([]CartItemDTO, 0, len(cart.Items)),
		Total:       decimal.Zero,
		ConvertedAt: cart.ConvertedAt,
		CreatedAt:   cart.CreatedAt,
		UpdatedAt:   cart.UpdatedAt,
	}
	for _, item := range cart.Items {
		lineTotal := item.LineTotal()
		dto.Items = append(dto.Items, CartItemDTO{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: lineTotal,
		})
		dto.Total = dto.Total.Add(lineTotal)
	}
	return dto
}
