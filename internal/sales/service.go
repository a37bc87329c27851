package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/rmagtoto/tindahan-backend/pkg/errors"
	"github.com/rmagtoto/tindahan-backend/pkg/pagination"
)

// Service exposes sales history reads.
type Service interface {
	GetTransaction(ctx context.Context, id uuid.UUID) (*TransactionDTO, error)
	ListTransactions(ctx context.Context, storeID uuid.UUID, params pagination.Params) (*TransactionListResult, error)
}

type service struct {
	repo *Repository
}

// NewService constructs a sales service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetTransaction(ctx context.Context, id uuid.UUID) (*TransactionDTO, error) {
	transaction, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load sale")
	}
	return ToDTO(transaction), nil
}

func (s *service) ListTransactions(ctx context.Context, storeID uuid.UUID, params pagination.Params) (*TransactionListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	rows, err := s.repo.ListByStore(ctx, storeID, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list sales")
	}

	result := &TransactionListResult{Transactions: make([]TransactionDTO, 0, len(rows))}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &next
	}
	for i := range rows {
		result.Transactions = append(result.Transactions, *ToDTO(&rows[i]))
	}
	return result, nil
}
