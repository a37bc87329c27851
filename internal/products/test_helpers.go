package products

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rmagtoto/tindahan-backend/pkg/db/models"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS stores (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  address TEXT,
  phone TEXT,
  latitude REAL,
  longitude REAL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  name TEXT NOT NULL,
  barcode TEXT,
  price TEXT NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  reorder_level INTEGER NOT NULL DEFAULT 0,
  sold INTEGER NOT NULL DEFAULT 0,
  category TEXT,
  description TEXT,
  tags TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (store_id, barcode)
);`,
		`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT,
  published_at DATETIME,
  created_at DATETIME
);`,
	} {
		require.NoError(t, gdb.Exec(ddl).Error)
	}

	return gdb
}

func seedStore(t *testing.T, gdb *gorm.DB) *models.Store {
	t.Helper()
	store := &models.Store{ID: uuid.New(), Name: "Tindahan ni Aling Nena"}
	require.NoError(t, gdb.Create(store).Error)
	return store
}

func seedProduct(t *testing.T, gdb *gorm.DB, storeID uuid.UUID, name, barcode string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:      uuid.New(),
		StoreID: storeID,
		Name:    name,
		Price:   decimal.NewFromInt(15),
		Stock:   stock,
	}
	if barcode != "" {
		product.Barcode = &barcode
	}
	require.NoError(t, gdb.Create(product).Error)
	return product
}
