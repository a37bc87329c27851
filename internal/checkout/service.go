package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/rmagtoto/tindahan-backend/internal/cart"
	"github.com/rmagtoto/tindahan-backend/internal/products"
	"github.com/rmagtoto/tindahan-backend/internal/sales"
	"github.com/rmagtoto/tindahan-backend/pkg/db/models"
	"github.com/rmagtoto/tindahan-backend/pkg/enums"
	pkgerrors "github.com/rmagtoto/tindahan-backend/pkg/errors"
	"github.com/rmagtoto/tindahan-backend/pkg/logger"
	"github.com/rmagtoto/tindahan-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type checkoutMetrics interface {
	ObserveCheckout(result string, duration time.Duration)
}

// ShortageDetail reports one line that could not be fulfilled.
type ShortageDetail struct {
	ProductID uuid.UUID `json:"productId"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// Service executes checkouts and reports per-cart checkout state.
type Service interface {
	Execute(ctx context.Context, cartID uuid.UUID) (*sales.TransactionDTO, error)
	State(cartID uuid.UUID) enums.CheckoutState
	Forget(cartID uuid.UUID)
}

type service struct {
	guard       *Guard
	txRunner    txRunner
	cartRepo    *cart.Repository
	productRepo *products.Repository
	salesRepo   *sales.Repository
	events      outboxEmitter
	metrics     checkoutMetrics
	logg        *logger.Logger
}

// NewService constructs the checkout transactor.
func NewService(runner txRunner, cartRepo *cart.Repository, productRepo *products.Repository, salesRepo *sales.Repository, events outboxEmitter, metrics checkoutMetrics, logg *logger.Logger) (Service, error) {
	if runner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if salesRepo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		guard:       NewGuard(),
		txRunner:    runner,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		salesRepo:   salesRepo,
		events:      events,
		metrics:     metrics,
		logg:        logg,
	}, nil
}

// State reports the in-memory checkout state for a cart.
func (s *service) State(cartID uuid.UUID) enums.CheckoutState {
	return s.guard.State(cartID)
}

// Forget drops the in-memory checkout state for a cart. Called when a cart
// is canceled so guard entries do not accumulate for every cart ever seen.
func (s *service) Forget(cartID uuid.UUID) {
	s.guard.Forget(cartID)
}

// Execute converts the cart into a sale. Stock debits, the transaction row,
// the cart clear and the outbox event share one database transaction; any
// failure rolls the whole attempt back and leaves the cart retryable.
func (s *service) Execute(ctx context.Context, cartID uuid.UUID) (*sales.TransactionDTO, error) {
	if err := s.guard.Begin(cartID); err != nil {
		s.observe("rejected", 0)
		return nil, err
	}

	started := time.Now()
	transaction, err := s.execute(ctx, cartID)
	if err != nil {
		s.guard.Fail(cartID)
		s.observe("failed", time.Since(started))
		return nil, err
	}

	s.guard.Complete(cartID)
	s.observe("completed", time.Since(started))
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"cart_id":        cartID.String(),
			"transaction_id": transaction.ID.String(),
			"total":          transaction.Total.String(),
		})
		s.logg.Info(logCtx, "checkout completed")
	}
	return transaction, nil
}

func (s *service) execute(ctx context.Context, cartID uuid.UUID) (*sales.TransactionDTO, error) {
	var transaction *models.SalesTransaction
	txErr := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txProducts := s.productRepo.WithTx(tx)
		txCarts := s.cartRepo.WithTx(tx)
		txSales := s.salesRepo.WithTx(tx)

		// The cart and its items are loaded inside the transaction: a scan
		// committing a line between an outside load and ClearItems would
		// silently erase that line unpaid.
		target, err := txCarts.FindByID(ctx, cartID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		if target.Status != enums.CartStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is no longer active")
		}
		if len(target.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		// Debit every line first, collecting all shortages so the seller
		// sees the full picture in one response. Any shortage fails the
		// transaction and the rollback returns the partial debits.
		var shortages []ShortageDetail
		var debitErr error
		for _, item := range target.Items {
			debited, err := txProducts.DebitStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !debited {
				available := 0
				if current, err := txProducts.FindByID(ctx, item.ProductID); err == nil {
					available = current.Stock
				}
				shortages = append(shortages, ShortageDetail{
					ProductID: item.ProductID,
					Requested: item.Quantity,
					Available: available,
				})
				debitErr = multierr.Append(debitErr, fmt.Errorf("product %s: requested %d, available %d", item.ProductID, item.Quantity, available))
			}
		}
		if len(shortages) > 0 {
			return pkgerrors.Wrap(pkgerrors.CodeInsufficientStock, debitErr, "insufficient stock").
				WithDetails(map[string]any{"shortages": shortages})
		}

		total := decimal.Zero
		lines := make([]models.SalesLineItem, 0, len(target.Items))
		for _, item := range target.Items {
			lineTotal := item.LineTotal()
			total = total.Add(lineTotal)
			lines = append(lines, models.SalesLineItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				LineTotal: lineTotal,
			})
			if err := txProducts.IncrementSold(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		transaction = &models.SalesTransaction{
			StoreID:   target.StoreID,
			CartID:    target.ID,
			Total:     total,
			LineItems: lines,
		}
		if err := txSales.Create(ctx, transaction); err != nil {
			return err
		}

		if err := txCarts.ClearItems(ctx, target.ID); err != nil {
			return err
		}
		convertedAt := time.Now()
		if err := txCarts.UpdateStatus(ctx, target.ID, enums.CartStatusConverted, &convertedAt); err != nil {
			return err
		}

		payloadLines := make([]outbox.SaleLinePayload, 0, len(lines))
		for _, line := range lines {
			payloadLines = append(payloadLines, outbox.SaleLinePayload{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
				LineTotal: line.LineTotal,
			})
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSaleCompleted,
			AggregateType: enums.AggregateSalesTransaction,
			AggregateID:   transaction.ID,
			Data: outbox.SaleCompletedPayload{
				TransactionID: transaction.ID,
				StoreID:       target.StoreID,
				CartID:        target.ID,
				Total:         total,
				Lines:         payloadLines,
			},
		})
	})
	if txErr != nil {
		if appErr := pkgerrors.As(txErr); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, txErr, "checkout transaction")
	}

	return sales.ToDTO(transaction), nil
}

func (s *service) observe(result string, duration time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveCheckout(result, duration)
	}
}
