package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmagtoto/tindahan-backend/pkg/db"
	"github.com/rmagtoto/tindahan-backend/pkg/db/models"
	"github.com/rmagtoto/tindahan-backend/pkg/enums"
	pkgerrors "github.com/rmagtoto/tindahan-backend/pkg/errors"
	"github.com/rmagtoto/tindahan-backend/pkg/outbox"
	"github.com/rmagtoto/tindahan-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type storeLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// Service exposes catalog management operations.
type Service interface {
	CreateProduct(ctx context.Context, storeID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	FindByBarcode(ctx context.Context, storeID uuid.UUID, barcode string) (*ProductDTO, error)
	ListProducts(ctx context.Context, storeID uuid.UUID, params pagination.Params) (*ProductListResult, error)
	ListLowStock(ctx context.Context, storeID uuid.UUID) ([]ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	CreateFromRegistry(ctx context.Context, storeID uuid.UUID, input CreateProductInput, source string) (*ProductDTO, bool, error)
}

type service struct {
	repo      *Repository
	txRunner  txRunner
	storeRepo storeLoader
	events    outboxEmitter
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, runner txRunner, storeRepo storeLoader, events outboxEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if runner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if storeRepo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		repo:      repo,
		txRunner:  runner,
		storeRepo: storeRepo,
		events:    events,
	}, nil
}

func validateCreateInput(input *CreateProductInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if input.Barcode != nil {
		trimmed := strings.TrimSpace(*input.Barcode)
		if trimmed == "" {
			input.Barcode = nil
		} else {
			input.Barcode = &trimmed
		}
	}
	return nil
}

func (s *service) CreateProduct(ctx context.Context, storeID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	if err := validateCreateInput(&input); err != nil {
		return nil, err
	}
	if _, err := s.storeRepo.FindByID(ctx, storeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load store")
	}

	product := &models.Product{
		StoreID:      storeID,
		Name:         input.Name,
		Barcode:      input.Barcode,
		Price:        input.Price,
		Stock:        input.Stock,
		ReorderLevel: input.ReorderLevel,
		Category:     input.Category,
		Description:  input.Description,
		Tags:         input.Tags,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "ux_products_store_barcode") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "barcode already registered for this store")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return toDTO(product), nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return toDTO(product), nil
}

// FindByBarcode resolves a barcode against the local catalog.
func (s *service) FindByBarcode(ctx context.Context, storeID uuid.UUID, barcode string) (*ProductDTO, error) {
	trimmed := strings.TrimSpace(barcode)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	product, err := s.repo.FindByStoreAndBarcode(ctx, storeID, trimmed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "barcode not in catalog")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup barcode")
	}
	return toDTO(product), nil
}

func (s *service) ListProducts(ctx context.Context, storeID uuid.UUID, params pagination.Params) (*ProductListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	rows, err := s.repo.ListByStore(ctx, storeID, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	result := &ProductListResult{Products: make([]ProductDTO, 0, len(rows))}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &next
	}
	for i := range rows {
		result.Products = append(result.Products, *toDTO(&rows[i]))
	}
	return result, nil
}

func (s *service) ListLowStock(ctx context.Context, storeID uuid.UUID) ([]ProductDTO, error) {
	rows, err := s.repo.ListLowStock(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list low stock")
	}
	dtos := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *toDTO(&rows[i]))
	}
	return dtos, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		product.Name = name
	}
	if input.Barcode != nil {
		trimmed := strings.TrimSpace(*input.Barcode)
		if trimmed == "" {
			product.Barcode = nil
		} else {
			product.Barcode = &trimmed
		}
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		product.Price = *input.Price
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		product.Stock = *input.Stock
	}
	if input.ReorderLevel != nil {
		product.ReorderLevel = *input.ReorderLevel
	}
	if input.Category != nil {
		product.Category = input.Category
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Tags != nil {
		product.Tags = *input.Tags
	}

	if err := s.repo.Update(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "ux_products_store_barcode") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "barcode already registered for this store")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	return toDTO(product), nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	return nil
}

// CreateFromRegistry persists a product built from an external registry hit and
// queues the product.created event in the same transaction. When a concurrent
// scan already created the row, the existing row is returned with created=false.
func (s *service) CreateFromRegistry(ctx context.Context, storeID uuid.UUID, input CreateProductInput, source string) (*ProductDTO, bool, error) {
	if err := validateCreateInput(&input); err != nil {
		return nil, false, err
	}
	if input.Barcode == nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required for registry products")
	}

	product := &models.Product{
		StoreID:      storeID,
		Name:         input.Name,
		Barcode:      input.Barcode,
		Price:        input.Price,
		Stock:        input.Stock,
		ReorderLevel: input.ReorderLevel,
		Category:     input.Category,
		Description:  input.Description,
		Tags:         input.Tags,
	}

	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, product); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductCreated,
			AggregateType: enums.AggregateProduct,
			AggregateID:   product.ID,
			Data: outbox.ProductCreatedPayload{
				ProductID: product.ID,
				StoreID:   storeID,
				Barcode:   *input.Barcode,
				Name:      input.Name,
				Price:     input.Price,
				Source:    source,
			},
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err, "ux_products_store_barcode") {
			existing, findErr := s.repo.FindByStoreAndBarcode(ctx, storeID, *input.Barcode)
			if findErr != nil {
				return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, findErr, "load product after create race")
			}
			return toDTO(existing), false, nil
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product from registry")
	}
	return toDTO(product), true, nil
}
