package stores

import (
	"time"

	"github.com/google/uuid"

	"github.com/rmagtoto/tindahan-backend/pkg/db/models"
)

// CreateStoreInput holds the validated payload to register a store.
type CreateStoreInput struct {
	Name      string
	Address   *string
	Phone     *string
	Latitude  *float64
	Longitude *float64
}

// UpdateStoreInput holds optional mutation values for a store.
type UpdateStoreInput struct {
	Name      *string
	Address   *string
	Phone     *string
	Latitude  *float64
	Longitude *float64
}

// StoreDTO is the read model returned by store endpoints.
type StoreDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toDTO(store *models.Store) *StoreDTO {
	if store == nil {
		return nil
	}
	return &StoreDTO{
		ID:        store.ID,
		Name:      store.Name,
		Address:   store.Address,
		Phone:     store.Phone,
		Latitude:  store.Latitude,
		Longitude: store.Longitude,
		CreatedAt: store.CreatedAt,
		UpdatedAt: store.UpdatedAt,
	}
}
