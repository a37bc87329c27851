package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmagtoto/tindahan-backend/pkg/db/models"
)

// LineItemDTO is one immutable line of a recorded sale.
type LineItemDTO struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// TransactionDTO is the sale read model.
type TransactionDTO struct {
	ID        uuid.UUID       `json:"id"`
	StoreID   uuid.UUID       `json:"storeId"`
	CartID    uuid.UUID       `json:"cartId"`
	Total     decimal.Decimal `json:"total"`
	Lines     []LineItemDTO   `json:"lines"`
	CreatedAt time.Time       `json:"createdAt"`
}

// TransactionListResult is one page of sales plus the cursor for the next page.
type TransactionListResult struct {
	Transactions []TransactionDTO `json:"transactions"`
	NextCursor   *string          `json:"nextCursor,omitempty"`
}

// ToDTO converts the persistence model into the read model.
func ToDTO(transaction *models.SalesTransaction) *TransactionDTO {
	if transaction == nil {
		return nil
	}
	dto := &TransactionDTO{
		ID:        transaction.ID,
		StoreID:   transaction.StoreID,
		CartID:    transaction.CartID,
		Total:     transaction.Total,
		Lines:     make([]LineItemDTO, 0, len(transaction.LineItems)),
		CreatedAt: transaction.CreatedAt,
	}
	for _, line := range transaction.LineItems {
		dto.Lines = append(dto.Lines, LineItemDTO{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.LineTotal,
		})
	}
	return dto
}
