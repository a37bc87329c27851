package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rmagtoto/tindahan-backend/internal/cart"
	"github.com/rmagtoto/tindahan-backend/internal/products"
	"github.com/rmagtoto/tindahan-backend/internal/sales"
	"github.com/rmagtoto/tindahan-backend/pkg/db/models"
	"github.com/rmagtoto/tindahan-backend/pkg/enums"
	pkgerrors "github.com/rmagtoto/tindahan-backend/pkg/errors"
	"github.com/rmagtoto/tindahan-backend/pkg/outbox"
)

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
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
		`CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  name TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  converted_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, product_id)
);`,
		`CREATE TABLE IF NOT EXISTS sales_transactions (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  cart_id TEXT NOT NULL,
  total TEXT NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS sales_line_items (
  id TEXT PRIMARY KEY,
  transaction_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price TEXT NOT NULL,
  line_total TEXT NOT NULL
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

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type checkoutFixture struct {
	gdb     *gorm.DB
	svc     Service
	store   *models.Store
	cart    *models.Cart
	pancit  *models.Product
	sardina *models.Product
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	gdb := setupCheckoutTestDB(t)

	svc, err := NewService(
		testTxRunner{db: gdb},
		cart.NewRepository(gdb),
		products.NewRepository(gdb),
		sales.NewRepository(gdb),
		outbox.NewService(outbox.NewRepository(gdb), nil),
		nil,
		nil,
	)
	require.NoError(t, err)

	store := &models.Store{ID: uuid.New(), Name: "Tindahan ni Aling Nena"}
	require.NoError(t, gdb.Create(store).Error)

	pancit := &models.Product{
		ID:      uuid.New(),
		StoreID: store.ID,
		Name:    "Pancit Canton",
		Price:   decimal.NewFromInt(15),
		Stock:   10,
	}
	sardina := &models.Product{
		ID:      uuid.New(),
		StoreID: store.ID,
		Name:    "Mega Sardines",
		Price:   decimal.NewFromInt(28),
		Stock:   10,
	}
	require.NoError(t, gdb.Create(pancit).Error)
	require.NoError(t, gdb.Create(sardina).Error)

	cartRow := &models.Cart{
		ID:      uuid.New(),
		StoreID: store.ID,
		Name:    "Counter 1",
		Status:  enums.CartStatusActive,
	}
	require.NoError(t, gdb.Create(cartRow).Error)

	return &checkoutFixture{
		gdb:     gdb,
		svc:     svc,
		store:   store,
		cart:    cartRow,
		pancit:  pancit,
		sardina: sardina,
	}
}

func (f *checkoutFixture) addItem(t *testing.T, product *models.Product, quantity int) {
	t.Helper()
	require.NoError(t, f.gdb.Create(&models.CartItem{
		ID:        uuid.New(),
		CartID:    f.cart.ID,
		ProductID: product.ID,
		Quantity:  quantity,
		UnitPrice: product.Price,
	}).Error)
}

func (f *checkoutFixture) reloadProduct(t *testing.T, id uuid.UUID) *models.Product {
	t.Helper()
	var product models.Product
	require.NoError(t, f.gdb.First(&product, "id = ?", id).Error)
	return &product
}

func TestExecuteHappyPath(t *testing.T) {
	f := newCheckoutFixture(t)
	f.addItem(t, f.pancit, 3)
	f.addItem(t, f.sardina, 2)

	dto, err := f.svc.Execute(context.Background(), f.cart.ID)
	require.NoError(t, err)
	assert.True(t, dto.Total.Equal(decimal.NewFromInt(101)), "total %s", dto.Total)
	assert.Len(t, dto.Lines, 2)
	assert.Equal(t, f.cart.ID, dto.CartID)

	pancit := f.reloadProduct(t, f.pancit.ID)
	assert.Equal(t, 7, pancit.Stock)
	assert.Equal(t, 3, pancit.Sold)

	var cartRow models.Cart
	require.NoError(t, f.gdb.First(&cartRow, "id = ?", f.cart.ID).Error)
	assert.Equal(t, enums.CartStatusConverted, cartRow.Status)
	assert.NotNil(t, cartRow.ConvertedAt)

	var itemCount int64
	require.NoError(t, f.gdb.Model(&models.CartItem{}).Where("cart_id = ?", f.cart.ID).Count(&itemCount).Error)
	assert.Zero(t, itemCount)

	var events []models.OutboxEvent
	require.NoError(t, f.gdb.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventSaleCompleted, events[0].EventType)

	assert.Equal(t, enums.CheckoutStateCompleted, f.svc.State(f.cart.ID))
}

func TestExecuteInsufficientStockRollsBackEverything(t *testing.T) {
	f := newCheckoutFixture(t)
	f.addItem(t, f.pancit, 3)
	f.addItem(t, f.sardina, 50)

	_, err := f.svc.Execute(context.Background(), f.cart.ID)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, appErr.Code())

	// The pancit debit succeeded inside the transaction; rollback must
	// restore it.
	assert.Equal(t, 10, f.reloadProduct(t, f.pancit.ID).Stock)
	assert.Equal(t, 10, f.reloadProduct(t, f.sardina.ID).Stock)

	var txCount int64
	require.NoError(t, f.gdb.Model(&models.SalesTransaction{}).Count(&txCount).Error)
	assert.Zero(t, txCount)

	var itemCount int64
	require.NoError(t, f.gdb.Model(&models.CartItem{}).Where("cart_id = ?", f.cart.ID).Count(&itemCount).Error)
	assert.Equal(t, int64(2), itemCount, "cart must keep its items after a failed checkout")

	var eventCount int64
	require.NoError(t, f.gdb.Model(&models.OutboxEvent{}).Count(&eventCount).Error)
	assert.Zero(t, eventCount)

	assert.Equal(t, enums.CheckoutStateFailed, f.svc.State(f.cart.ID))
}

func TestExecuteFailedCheckoutIsRetryable(t *testing.T) {
	f := newCheckoutFixture(t)
	f.addItem(t, f.sardina, 50)

	_, err := f.svc.Execute(context.Background(), f.cart.ID)
	require.Error(t, err)

	// Restock and retry the same cart.
	require.NoError(t, f.gdb.Model(&models.Product{}).
		Where("id = ?", f.sardina.ID).
		Update("stock", 60).Error)

	dto, err := f.svc.Execute(context.Background(), f.cart.ID)
	require.NoError(t, err)
	assert.True(t, dto.Total.Equal(decimal.NewFromInt(1400)))
	assert.Equal(t, 10, f.reloadProduct(t, f.sardina.ID).Stock)
}

func TestExecuteRejectsSecondCheckout(t *testing.T) {
	f := newCheckoutFixture(t)
	f.addItem(t, f.pancit, 1)

	_, err := f.svc.Execute(context.Background(), f.cart.ID)
	require.NoError(t, err)

	_, err = f.svc.Execute(context.Background(), f.cart.ID)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestForgetReleasesGuardState(t *testing.T) {
	f := newCheckoutFixture(t)
	f.addItem(t, f.pancit, 1)

	_, err := f.svc.Execute(context.Background(), f.cart.ID)
	require.NoError(t, err)
	require.Equal(t, enums.CheckoutStateCompleted, f.svc.State(f.cart.ID))

	// Cart cancellation drops the guard entry so the map does not retain
	// every cart the service has ever seen.
	f.svc.Forget(f.cart.ID)
	assert.Equal(t, enums.CheckoutStateIdle, f.svc.State(f.cart.ID))
}

func TestExecuteRejectsEmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.svc.Execute(context.Background(), f.cart.ID)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	// An empty-cart rejection must not burn the cart's checkout.
	assert.Equal(t, enums.CheckoutStateFailed, f.svc.State(f.cart.ID))
	f.addItem(t, f.pancit, 1)
	_, err = f.svc.Execute(context.Background(), f.cart.ID)
	require.NoError(t, err)
}

type injectingTxRunner struct {
	db     *gorm.DB
	inject func()
}

func (r *injectingTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if r.inject != nil {
		inject := r.inject
		r.inject = nil
		inject()
	}
	return r.db.WithContext(ctx).Transaction(fn)
}

func TestExecuteChargesLineCommittedJustBeforeTransaction(t *testing.T) {
	f := newCheckoutFixture(t)
	f.addItem(t, f.pancit, 1)

	// A scan can land between the checkout tap and the transaction start;
	// that line must be debited and billed, not cleared away.
	runner := &injectingTxRunner{
		db: f.gdb,
		inject: func() {
			f.addItem(t, f.sardina, 1)
		},
	}
	svc, err := NewService(
		runner,
		cart.NewRepository(f.gdb),
		products.NewRepository(f.gdb),
		sales.NewRepository(f.gdb),
		outbox.NewService(outbox.NewRepository(f.gdb), nil),
		nil,
		nil,
	)
	require.NoError(t, err)

	dto, err := svc.Execute(context.Background(), f.cart.ID)
	require.NoError(t, err)
	require.Len(t, dto.Lines, 2)
	assert.True(t, dto.Total.Equal(decimal.NewFromInt(43)), "total %s", dto.Total)

	sardina := f.reloadProduct(t, f.sardina.ID)
	assert.Equal(t, 9, sardina.Stock)
	assert.Equal(t, 1, sardina.Sold)

	var itemCount int64
	require.NoError(t, f.gdb.Model(&models.CartItem{}).Where("cart_id = ?", f.cart.ID).Count(&itemCount).Error)
	assert.Zero(t, itemCount)
}

func TestExecuteUnknownCart(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.svc.Execute(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}
