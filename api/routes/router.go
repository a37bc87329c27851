package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rmagtoto/tindahan-backend/api/controllers"
	"github.com/rmagtoto/tindahan-backend/api/middleware"
	cartsvc "github.com/rmagtoto/tindahan-backend/internal/cart"
	checkoutsvc "github.com/rmagtoto/tindahan-backend/internal/checkout"
	productsvc "github.com/rmagtoto/tindahan-backend/internal/products"
	salesvc "github.com/rmagtoto/tindahan-backend/internal/sales"
	"github.com/rmagtoto/tindahan-backend/internal/scan"
	storesvc "github.com/rmagtoto/tindahan-backend/internal/stores"
	"github.com/rmagtoto/tindahan-backend/pkg/config"
	"github.com/rmagtoto/tindahan-backend/pkg/db"
	"github.com/rmagtoto/tindahan-backend/pkg/logger"
	"github.com/rmagtoto/tindahan-backend/pkg/redis"
)

// Dependencies carries everything the HTTP surface needs.
type Dependencies struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              db.Pinger
	Redis           *redis.Client
	Metrics         *prometheus.Registry
	StoreService    storesvc.Service
	ProductService  productsvc.Service
	CartService     cartsvc.Service
	SalesService    salesvc.Service
	CheckoutService checkoutsvc.Service
	ScanController  *scan.Controller
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var redisPinger redis.Pinger
	if deps.Redis != nil {
		redisPinger = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, redisPinger))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		var idempotencyStore redis.IdempotencyStore
		if deps.Redis != nil {
			idempotencyStore = deps.Redis
		}
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/stores", func(r chi.Router) {
			r.Post("/", controllers.StoreCreate(deps.StoreService, logg))
			r.Get("/", controllers.StoreList(deps.StoreService, logg))

			r.Route("/{storeID}", func(r chi.Router) {
				r.Get("/", controllers.StoreGet(deps.StoreService, logg))
				r.Patch("/", controllers.StoreUpdate(deps.StoreService, logg))

				r.Route("/products", func(r chi.Router) {
					r.Post("/", controllers.ProductCreate(deps.ProductService, logg))
					r.Get("/", controllers.ProductList(deps.ProductService, logg))
					r.Get("/low-stock", controllers.ProductLowStock(deps.ProductService, logg))
				})

				r.Route("/carts", func(r chi.Router) {
					r.Post("/", controllers.CartCreate(deps.CartService, logg))
					r.Get("/", controllers.CartList(deps.CartService, logg))
				})

				r.Get("/sales", controllers.SaleList(deps.SalesService, logg))
			})
		})

		r.Route("/products/{productID}", func(r chi.Router) {
			r.Get("/", controllers.ProductGet(deps.ProductService, logg))
			r.Patch("/", controllers.ProductUpdate(deps.ProductService, logg))
			r.Delete("/", controllers.ProductDelete(deps.ProductService, logg))
		})

		r.Route("/carts/{cartID}", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.CartService, logg))
			r.Delete("/", controllers.CartCancel(deps.CartService, deps.CheckoutService, logg))
			r.Post("/cancel", controllers.CartCancel(deps.CartService, deps.CheckoutService, logg))
			r.Delete("/items/{productID}", controllers.CartRemoveItem(deps.CartService, logg))

			r.Post("/scan", controllers.ScanBarcode(deps.ScanController, logg))
			r.Get("/session", controllers.ScanSession(deps.ScanController, logg))
			r.Delete("/session", controllers.ScanSessionClose(deps.ScanController, logg))

			r.Post("/checkout", controllers.CheckoutExecute(deps.CheckoutService, logg))
			r.Get("/checkout", controllers.CheckoutState(deps.CheckoutService, logg))
		})

		r.Get("/sales/{saleID}", controllers.SaleGet(deps.SalesService, logg))
	})

	return r
}
