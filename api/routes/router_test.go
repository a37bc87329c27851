package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	cartsvc "github.com/rmagtoto/tindahan-backend/internal/cart"
	salesvc "github.com/rmagtoto/tindahan-backend/internal/sales"
	storesvc "github.com/rmagtoto/tindahan-backend/internal/stores"
	"github.com/rmagtoto/tindahan-backend/pkg/config"
	"github.com/rmagtoto/tindahan-backend/pkg/enums"
	pkgerrors "github.com/rmagtoto/tindahan-backend/pkg/errors"
	"github.com/rmagtoto/tindahan-backend/pkg/pagination"
)

type stubStoreService struct{}

func (stubStoreService) CreateStore(context.Context, storesvc.CreateStoreInput) (*storesvc.StoreDTO, error) {
	return &storesvc.StoreDTO{ID: uuid.New(), Name: "stub"}, nil
}

func (stubStoreService) GetStore(context.Context, uuid.UUID) (*storesvc.StoreDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
}

func (stubStoreService) ListStores(context.Context) ([]storesvc.StoreDTO, error) {
	return []storesvc.StoreDTO{}, nil
}

func (stubStoreService) UpdateStore(context.Context, uuid.UUID, storesvc.UpdateStoreInput) (*storesvc.StoreDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
}

type stubCartService struct{}

func (stubCartService) CreateCart(context.Context, uuid.UUID, cartsvc.CreateCartInput) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{ID: uuid.New()}, nil
}

func (stubCartService) GetCart(context.Context, uuid.UUID) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{ID: uuid.New(), Status: enums.CartStatusActive}, nil
}

func (stubCartService) ListCarts(context.Context, uuid.UUID, *enums.CartStatus) ([]cartsvc.CartDTO, error) {
	return []cartsvc.CartDTO{}, nil
}

func (stubCartService) AddOrIncrementItem(context.Context, uuid.UUID, uuid.UUID, int) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

func (stubCartService) RemoveItem(context.Context, uuid.UUID, uuid.UUID) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

func (stubCartService) CancelCart(context.Context, uuid.UUID) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

type stubSalesService struct{}

func (stubSalesService) GetTransaction(context.Context, uuid.UUID) (*salesvc.TransactionDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
}

func (stubSalesService) ListTransactions(context.Context, uuid.UUID, pagination.Params) (*salesvc.TransactionListResult, error) {
	return &salesvc.TransactionListResult{}, nil
}

func newTestRouter() http.Handler {
	cfg := &config.Config{}
	cfg.App.Env = config.AppEnvDev

	return NewRouter(Dependencies{
		Config:       cfg,
		StoreService: stubStoreService{},
		CartService:  stubCartService{},
		SalesService: stubSalesService{},
	})
}

func TestRouterHealthLive(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if env := rec.Header().Get("X-Tindahan-Env"); env != config.AppEnvDev {
		t.Fatalf("expected env header %q got %q", config.AppEnvDev, env)
	}
}

func TestRouterStoreRoutesWired(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 from stub got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("request id middleware must stamp responses")
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}
