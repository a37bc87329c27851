package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cartsvc "github.com/rmagtoto/tindahan-backend/internal/cart"
	salesvc "github.com/rmagtoto/tindahan-backend/internal/sales"
	storesvc "github.com/rmagtoto/tindahan-backend/internal/stores"
	"github.com/rmagtoto/tindahan-backend/pkg/enums"
	pkgerrors "github.com/rmagtoto/tindahan-backend/pkg/errors"
	"github.com/rmagtoto/tindahan-backend/pkg/pagination"
)

func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

type stubStoreService struct {
	dto *storesvc.StoreDTO
	err error
}

func (s stubStoreService) CreateStore(context.Context, storesvc.CreateStoreInput) (*storesvc.StoreDTO, error) {
	return s.dto, s.err
}

func (s stubStoreService) GetStore(context.Context, uuid.UUID) (*storesvc.StoreDTO, error) {
	return s.dto, s.err
}

func (s stubStoreService) ListStores(context.Context) ([]storesvc.StoreDTO, error) {
	if s.dto == nil {
		return nil, s.err
	}
	return []storesvc.StoreDTO{*s.dto}, s.err
}

func (s stubStoreService) UpdateStore(context.Context, uuid.UUID, storesvc.UpdateStoreInput) (*storesvc.StoreDTO, error) {
	return s.dto, s.err
}

func TestStoreCreateSuccess(t *testing.T) {
	dto := &storesvc.StoreDTO{
		ID:        uuid.New(),
		Name:      "Tindahan ni Aling Nena",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	handler := StoreCreate(stubStoreService{dto: dto}, nil)

	body := []byte(`{"name":"Tindahan ni Aling Nena"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stores", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data storesvc.StoreDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != dto.ID {
		t.Fatalf("expected id %s got %s", dto.ID, envelope.Data.ID)
	}
}

func TestStoreCreateRejectsMissingName(t *testing.T) {
	handler := StoreCreate(stubStoreService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stores", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestStoreGetNotFound(t *testing.T) {
	handler := StoreGet(stubStoreService{err: pkgerrors.New(pkgerrors.CodeNotFound, "store not found")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores/"+uuid.NewString(), nil)
	req = withURLParam(req, "storeID", uuid.NewString())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestStoreGetRejectsBadID(t *testing.T) {
	handler := StoreGet(stubStoreService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores/nope", nil)
	req = withURLParam(req, "storeID", "nope")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

type stubCartService struct {
	dto *cartsvc.CartDTO
	err error
}

func (s stubCartService) CreateCart(context.Context, uuid.UUID, cartsvc.CreateCartInput) (*cartsvc.CartDTO, error) {
	return s.dto, s.err
}

func (s stubCartService) GetCart(context.Context, uuid.UUID) (*cartsvc.CartDTO, error) {
	return s.dto, s.err
}

func (s stubCartService) ListCarts(context.Context, uuid.UUID, *enums.CartStatus) ([]cartsvc.CartDTO, error) {
	if s.dto == nil {
		return nil, s.err
	}
	return []cartsvc.CartDTO{*s.dto}, s.err
}

func (s stubCartService) AddOrIncrementItem(context.Context, uuid.UUID, uuid.UUID, int) (*cartsvc.CartDTO, error) {
	return s.dto, s.err
}

func (s stubCartService) RemoveItem(context.Context, uuid.UUID, uuid.UUID) (*cartsvc.CartDTO, error) {
	return s.dto, s.err
}

func (s stubCartService) CancelCart(context.Context, uuid.UUID) (*cartsvc.CartDTO, error) {
	return s.dto, s.err
}

type stubCheckoutService struct {
	dto       *salesvc.TransactionDTO
	err       error
	state     enums.CheckoutState
	forgotten []uuid.UUID
}

func (s *stubCheckoutService) Execute(context.Context, uuid.UUID) (*salesvc.TransactionDTO, error) {
	return s.dto, s.err
}

func (s *stubCheckoutService) State(uuid.UUID) enums.CheckoutState {
	return s.state
}

func (s *stubCheckoutService) Forget(cartID uuid.UUID) {
	s.forgotten = append(s.forgotten, cartID)
}

func TestCartCancelStateConflict(t *testing.T) {
	checkout := &stubCheckoutService{}
	handler := CartCancel(stubCartService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "cart is not active")}, checkout, nil)

	cartID := uuid.NewString()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/carts/"+cartID+"/cancel", nil)
	req = withURLParam(req, "cartID", cartID)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
	if len(checkout.forgotten) != 0 {
		t.Fatal("checkout state must survive a failed cancel")
	}
}

func TestCartCancelReleasesCheckoutState(t *testing.T) {
	cartID := uuid.New()
	dto := &cartsvc.CartDTO{ID: cartID, Status: enums.CartStatusCanceled}
	checkout := &stubCheckoutService{}
	handler := CartCancel(stubCartService{dto: dto}, checkout, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/carts/"+cartID.String(), nil)
	req = withURLParam(req, "cartID", cartID.String())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(checkout.forgotten) != 1 || checkout.forgotten[0] != cartID {
		t.Fatalf("expected checkout state released for %s, got %v", cartID, checkout.forgotten)
	}
}

func TestCartListRejectsUnknownStatus(t *testing.T) {
	handler := CartList(stubCartService{}, nil)

	storeID := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores/"+storeID+"/carts?status=bogus", nil)
	req = withURLParam(req, "storeID", storeID)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

type stubSalesService struct {
	dto *salesvc.TransactionDTO
	err error
}

func (s stubSalesService) GetTransaction(context.Context, uuid.UUID) (*salesvc.TransactionDTO, error) {
	return s.dto, s.err
}

func (s stubSalesService) ListTransactions(context.Context, uuid.UUID, pagination.Params) (*salesvc.TransactionListResult, error) {
	if s.dto == nil {
		return &salesvc.TransactionListResult{}, s.err
	}
	return &salesvc.TransactionListResult{Transactions: []salesvc.TransactionDTO{*s.dto}}, s.err
}

func TestSaleListRejectsOversizeLimit(t *testing.T) {
	handler := SaleList(stubSalesService{}, nil)

	storeID := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores/"+storeID+"/sales?limit=5000", nil)
	req = withURLParam(req, "storeID", storeID)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestSaleGetSuccess(t *testing.T) {
	dto := &salesvc.TransactionDTO{
		ID:      uuid.New(),
		StoreID: uuid.New(),
		CartID:  uuid.New(),
		Total:   decimal.NewFromInt(101),
	}
	handler := SaleGet(stubSalesService{dto: dto}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales/"+dto.ID.String(), nil)
	req = withURLParam(req, "saleID", dto.ID.String())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data salesvc.TransactionDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.Total.Equal(dto.Total) {
		t.Fatalf("expected total %s got %s", dto.Total, envelope.Data.Total)
	}
}
