package products

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rmagtoto/tindahan-backend/pkg/pagination"
)

func TestFindByStoreAndBarcode(t *testing.T) {
	gdb := setupCatalogTestDB(t)
	store := seedStore(t, gdb)
	other := seedStore(t, gdb)
	repo := NewRepository(gdb)

	seeded := seedProduct(t, gdb, store.ID, "Pancit Canton", "4800016644931", 10)
	seedProduct(t, gdb, other.ID, "Pancit Canton", "4800016644931", 3)

	found, err := repo.FindByStoreAndBarcode(context.Background(), store.ID, "4800016644931")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)

	_, err = repo.FindByStoreAndBarcode(context.Background(), store.ID, "0000000000000")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestDebitStockRefusesOverdraw(t *testing.T) {
	gdb := setupCatalogTestDB(t)
	store := seedStore(t, gdb)
	repo := NewRepository(gdb)
	product := seedProduct(t, gdb, store.ID, "Sardinas", "748485100074", 2)

	ok, err := repo.DebitStock(context.Background(), product.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	// Stock is now zero; a further debit must be refused, not go negative.
	ok, err = repo.DebitStock(context.Background(), product.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	reloaded, err := repo.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Stock)
}

func TestCreditStockRestoresDebit(t *testing.T) {
	gdb := setupCatalogTestDB(t)
	store := seedStore(t, gdb)
	repo := NewRepository(gdb)
	product := seedProduct(t, gdb, store.ID, "Kape", "480001111111", 5)

	ok, err := repo.DebitStock(context.Background(), product.ID, 3)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, repo.CreditStock(context.Background(), product.ID, 3))

	reloaded, err := repo.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, reloaded.Stock)
}

func TestListLowStock(t *testing.T) {
	gdb := setupCatalogTestDB(t)
	store := seedStore(t, gdb)
	repo := NewRepository(gdb)

	low := seedProduct(t, gdb, store.ID, "Suka", "", 1)
	low.ReorderLevel = 5
	require.NoError(t, gdb.Save(low).Error)

	healthy := seedProduct(t, gdb, store.ID, "Toyo", "", 50)
	healthy.ReorderLevel = 5
	require.NoError(t, gdb.Save(healthy).Error)

	rows, err := repo.ListLowStock(context.Background(), store.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, low.ID, rows[0].ID)
}

func TestListByStorePaginates(t *testing.T) {
	gdb := setupCatalogTestDB(t)
	store := seedStore(t, gdb)
	repo := NewRepository(gdb)

	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		product := seedProduct(t, gdb, store.ID, "Item", "", 1)
		require.NoError(t, gdb.Model(product).Update("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}

	first, err := repo.ListByStore(context.Background(), store.ID, nil, 3)
	require.NoError(t, err)
	require.Len(t, first, 3)

	cursor := &pagination.Cursor{CreatedAt: first[2].CreatedAt, ID: first[2].ID}
	second, err := repo.ListByStore(context.Background(), store.ID, cursor, 3)
	require.NoError(t, err)
	require.Len(t, second, 2)

	seen := map[uuid.UUID]bool{}
	for _, row := range append(first, second...) {
		assert.False(t, seen[row.ID], "row repeated across pages")
		seen[row.ID] = true
	}
}
