package cart

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
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type storeLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes cart lifecycle and mutation operations.
type Service interface {
	CreateCart(ctx context.Context, storeID uuid.UUID, input CreateCartInput) (*CartDTO, error)
	GetCart(ctx context.Context, id uuid.UUID) (*CartDTO, error)
	ListCarts(ctx context.Context, storeID uuid.UUID, status *enums.CartStatus) ([]CartDTO, error)
	AddOrIncrementItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, cartID, productID uuid.UUID) (*CartDTO, error)
	CancelCart(ctx context.Context, cartID uuid.UUID) (*CartDTO, error)
}

type service struct {
	repo        *Repository
	txRunner    txRunner
	productRepo productLoader
	storeRepo   storeLoader
	events      outboxEmitter
}

// NewService constructs a cart service instance.
func NewService(repo *Repository, runner txRunner, productRepo productLoader, storeRepo storeLoader, events outboxEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if runner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if storeRepo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		repo:        repo,
		txRunner:    runner,
		productRepo: productRepo,
		storeRepo:   storeRepo,
		events:      events,
	}, nil
}

func (s *service) CreateCart(ctx context.Context, storeID uuid.UUID, input CreateCartInput) (*CartDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart name is required")
	}
	if _, err := s.storeRepo.FindByID(ctx, storeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load store")
	}

	cart := &models.Cart{
		StoreID: storeID,
		Name:    name,
		Status:  enums.CartStatusActive,
	}
	if err := s.repo.Create(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	return toDTO(cart), nil
}

func (s *service) GetCart(ctx context.Context, id uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return toDTO(cart), nil
}

func (s *service) ListCarts(ctx context.Context, storeID uuid.UUID, status *enums.CartStatus) ([]CartDTO, error) {
	rows, err := s.repo.ListByStore(ctx, storeID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list carts")
	}
	dtos := make([]CartDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *toDTO(&rows[i]))
	}
	return dtos, nil
}

// AddOrIncrementItem adds the product to the cart or bumps its quantity when a
// line already exists. The unit price is snapshotted from the catalog on first
// add; repeat adds keep the original snapshot.
func (s *service) AddOrIncrementItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) (*CartDTO, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	cart, err := s.repo.FindByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if cart.Status != enums.CartStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is no longer active")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if product.StoreID != cart.StoreID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product belongs to a different store")
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		updated, err := txRepo.IncrementItem(ctx, cartID, productID, quantity)
		if err != nil {
			return err
		}
		if updated {
			return nil
		}
		insertErr := txRepo.InsertItem(ctx, &models.CartItem{
			CartID:    cartID,
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: product.Price,
		})
		if insertErr == nil {
			return nil
		}
		// Lost the insert race with another scan of the same product;
		// fall back to incrementing the row that beat us.
		if db.IsUniqueViolation(insertErr, "ux_cart_items_cart_product") {
			updated, err := txRepo.IncrementItem(ctx, cartID, productID, quantity)
			if err != nil {
				return err
			}
			if updated {
				return nil
			}
		}
		return insertErr
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add cart item")
	}

	return s.GetCart(ctx, cartID)
}

func (s *service) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if cart.Status != enums.CartStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is no longer active")
	}

	if err := s.repo.RemoveItem(ctx, cartID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
	}
	return s.GetCart(ctx, cartID)
}

func (s *service) CancelCart(ctx context.Context, cartID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if cart.Status != enums.CartStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is no longer active")
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.UpdateStatus(ctx, cartID, enums.CartStatusCanceled, nil); err != nil {
			return err
		}
		if err := txRepo.ClearItems(ctx, cartID); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCartCanceled,
			AggregateType: enums.AggregateCart,
			AggregateID:   cartID,
			Data: outbox.CartCanceledPayload{
				CartID:  cartID,
				StoreID: cart.StoreID,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel cart")
	}
	return s.GetCart(ctx, cartID)
}
