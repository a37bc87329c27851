package outbox

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductCreatedPayload is emitted when the resolver creates a catalog product
// from a registry hit.
type ProductCreatedPayload struct {
	ProductID uuid.UUID       `json:"productId"`
	StoreID   uuid.UUID       `json:"storeId"`
	Barcode   string          `json:"barcode"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Source    string          `json:"source"`
}

// SaleLinePayload is one line of a completed sale.
type SaleLinePayload struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// SaleCompletedPayload is emitted after a checkout commits.
type SaleCompletedPayload struct {
	TransactionID uuid.UUID         `json:"transactionId"`
	StoreID       uuid.UUID         `json:"storeId"`
	CartID        uuid.UUID         `json:"cartId"`
	Total         decimal.Decimal   `json:"total"`
	Lines         []SaleLinePayload `json:"lines"`
}

// CartCanceledPayload is emitted when a cart is canceled before checkout.
type CartCanceledPayload struct {
	CartID  uuid.UUID `json:"cartId"`
	StoreID uuid.UUID `json:"storeId"`
}
