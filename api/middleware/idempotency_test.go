package middleware

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type fakeStore struct {
	data   map[string]string
	gets   int
	setnxs int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	f.gets++
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.setnxs++
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func requestWithPattern(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestRouteTTLSelection(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		pattern string
		want    time.Duration
		ok      bool
	}{
		{"checkout", http.MethodPost, "/api/v1/carts/" + uuid.NewString() + "/checkout", criticalIdempotencyTTL, true},
		{"store create", http.MethodPost, "/api/v1/stores", defaultIdempotencyTTL, true},
		{"product create", http.MethodPost, "/api/v1/stores/" + uuid.NewString() + "/products", defaultIdempotencyTTL, true},
		{"cart create", http.MethodPost, "/api/v1/stores/" + uuid.NewString() + "/carts", defaultIdempotencyTTL, true},
		{"scan is not idempotent-keyed", http.MethodPost, "/api/v1/carts/" + uuid.NewString() + "/scan", 0, false},
		{"get is never keyed", http.MethodGet, "/api/v1/carts/" + uuid.NewString() + "/checkout", 0, false},
	}

	for _, tt := range tests {
		ttl, ok := routeTTL(tt.method, tt.pattern)
		if ok != tt.ok {
			t.Fatalf("%s: expected ok=%v got %v", tt.name, tt.ok, ok)
		}
		if ok && ttl != tt.want {
			t.Fatalf("%s: expected ttl=%v got %v", tt.name, tt.want, ttl)
		}
	}
}

// The middleware is mounted with r.Use on the /api/v1 subrouter, where chi's
// route pattern so far is "/api/v1/*". The store must still be consulted for
// guarded routes reached through that nesting.
func TestIdempotencyFiresThroughNestedRouter(t *testing.T) {
	store := newFakeStore()
	var calls int

	root := chi.NewRouter()
	root.Route("/api/v1", func(r chi.Router) {
		r.Use(Idempotency(store, nil))
		r.Route("/carts/{cartID}", func(r chi.Router) {
			r.Post("/checkout", func(w http.ResponseWriter, _ *http.Request) {
				calls++
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{"data":{"id":"tx-1"}}`))
			})
		})
	})

	url := "/api/v1/carts/" + uuid.NewString() + "/checkout"

	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "first-checkout")
	rec := httptest.NewRecorder()
	root.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if store.gets == 0 || store.setnxs == 0 {
		t.Fatalf("store never consulted: gets=%d setnxs=%d", store.gets, store.setnxs)
	}

	replay := httptest.NewRequest(http.MethodPost, url, strings.NewReader(`{}`))
	replay.Header.Set("Idempotency-Key", "first-checkout")
	replayRec := httptest.NewRecorder()
	root.ServeHTTP(replayRec, replay)

	if replayRec.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201 got %d", replayRec.Code)
	}
	if calls != 1 {
		t.Fatalf("handler executed %d times, expected 1", calls)
	}
	if !strings.Contains(replayRec.Body.String(), "tx-1") {
		t.Fatalf("expected stored body replayed, got %s", replayRec.Body.String())
	}
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusCreated)
	})

	req := requestWithPattern(http.MethodPost, "/api/v1/stores", "/api/v1/stores", strings.NewReader(`{"name":"x"}`))
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if handlerCalled {
		t.Fatal("handler should not run without idempotency key")
	}
}

func TestIdempotencyDetectsBodyChange(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := requestWithPattern(http.MethodPost, "/api/v1/stores", "/api/v1/stores", strings.NewReader(`{"name":"sari"}`))
	req.Header.Set("Idempotency-Key", "xyz")
	mw(handler).ServeHTTP(httptest.NewRecorder(), req)

	replay := requestWithPattern(http.MethodPost, "/api/v1/stores", "/api/v1/stores", strings.NewReader(`{"name":"different"}`))
	replay.Header.Set("Idempotency-Key", "xyz")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, replay)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestIdempotencySkipsUnguardedRoutes(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	})

	req := requestWithPattern(http.MethodPost, "/api/v1/carts/abc/scan", "/api/v1/carts/{cartID}/scan", strings.NewReader(`{"barcode":"123"}`))
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if !handlerCalled {
		t.Fatal("unguarded route must pass straight through")
	}
	if store.gets != 0 {
		t.Fatalf("store must not be consulted on unguarded routes, gets=%d", store.gets)
	}
}
