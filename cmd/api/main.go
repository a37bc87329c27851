package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rmagtoto/tindahan-backend/api/routes"
	cartsvc "github.com/rmagtoto/tindahan-backend/internal/cart"
	checkoutsvc "github.com/rmagtoto/tindahan-backend/internal/checkout"
	productsvc "github.com/rmagtoto/tindahan-backend/internal/products"
	salesvc "github.com/rmagtoto/tindahan-backend/internal/sales"
	"github.com/rmagtoto/tindahan-backend/internal/resolver"
	"github.com/rmagtoto/tindahan-backend/internal/scan"
	storesvc "github.com/rmagtoto/tindahan-backend/internal/stores"
	"github.com/rmagtoto/tindahan-backend/pkg/config"
	"github.com/rmagtoto/tindahan-backend/pkg/db"
	"github.com/rmagtoto/tindahan-backend/pkg/logger"
	"github.com/rmagtoto/tindahan-backend/pkg/metrics"
	"github.com/rmagtoto/tindahan-backend/pkg/migrate"
	"github.com/rmagtoto/tindahan-backend/pkg/outbox"
	"github.com/rmagtoto/tindahan-backend/pkg/redis"
	"github.com/rmagtoto/tindahan-backend/pkg/registry"
)

const (
	shutdownTimeout  = 15 * time.Second
	sessionSweepTick = time.Minute
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registryMetrics := prometheus.NewRegistry()
	registryMetrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pipelineMetrics := metrics.NewScanPipelineMetrics(registryMetrics)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	storeRepo := storesvc.NewRepository(dbClient.DB())
	storeService, err := storesvc.NewService(storeRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create store service", err)
		os.Exit(1)
	}

	productRepo := productsvc.NewRepository(dbClient.DB())
	productService, err := productsvc.NewService(productRepo, dbClient, storeRepo, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	cartRepo := cartsvc.NewRepository(dbClient.DB())
	cartService, err := cartsvc.NewService(cartRepo, dbClient, productRepo, storeRepo, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	salesRepo := salesvc.NewRepository(dbClient.DB())
	salesService, err := salesvc.NewService(salesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create sales service", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: cfg.Registry.HTTPTimeout}
	sources := []registry.Source{
		registry.NewOpenFoodFactsClient(
			registry.WithBaseURL(cfg.Registry.OpenFoodFactsBaseURL),
			registry.WithUserAgent(cfg.Registry.UserAgent),
			registry.WithHTTPClient(httpClient),
		),
		registry.NewUPCItemDBClient(
			registry.WithBaseURL(cfg.Registry.UPCItemDBBaseURL),
			registry.WithUserAgent(cfg.Registry.UserAgent),
			registry.WithHTTPClient(httpClient),
		),
	}

	resolverService, err := resolver.NewService(productService, sources, cfg.Resolver, pipelineMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create resolver service", err)
		os.Exit(1)
	}

	scanController, err := scan.NewController(cfg.Scan, resolverService, cartService, pipelineMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create scan controller", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(
		dbClient,
		cartRepo,
		productRepo,
		salesRepo,
		outboxService,
		pipelineMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Dependencies{
		Config:          cfg,
		Logger:          logg,
		DB:              dbClient,
		Redis:           redisClient,
		Metrics:         registryMetrics,
		StoreService:    storeService,
		ProductService:  productService,
		CartService:     cartService,
		SalesService:    salesService,
		CheckoutService: checkoutService,
		ScanController:  scanController,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweepIdleSessions(ctx, scanController, cfg.Scan.SessionIdleTTL)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(logCtx, "api server stopped")
}

func sweepIdleSessions(ctx context.Context, ctrl *scan.Controller, idleTTL time.Duration) {
	if ctrl == nil || idleTTL <= 0 {
		return
	}
	ticker := time.NewTicker(sessionSweepTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			ctrl.PruneIdle(now)
		}
	}
}
