package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/georgemunganga/printa-fulfillment/internal/config"
	"github.com/georgemunganga/printa-fulfillment/internal/database"
	"github.com/georgemunganga/printa-fulfillment/internal/lock"
	"github.com/georgemunganga/printa-fulfillment/internal/logging"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/auth"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/catalog"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/inventory"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/ledger"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/order"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/pricing"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/restock"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type stores struct {
	ledger  ledger.Repository
	catalog catalog.Repository
	restock restock.Repository
	results order.Repository
	close   func()
}

func main() {
	cfg, err := config.Load(os.Getenv("FULFILL_CONFIG_FILE"))
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.New(cfg.LogLevel)
	fields := logrus.Fields{"module": "main"}

	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		logger.WithFields(fields).Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Storage ─────────────────────────────────────────────
	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.WithFields(fields).Fatal(err)
	}
	defer st.close()
	logger.WithFields(fields).WithField("store", cfg.Store).Info("storage ready")

	// ── Catalog & Ledger ────────────────────────────────────
	catalogService := catalog.NewService(st.catalog)
	if err := catalogService.Load(ctx, policy.Items); err != nil {
		logger.WithFields(fields).Fatalf("load catalog: %v", err)
	}
	ledgerService := ledger.NewService(st.ledger, policy.InitialCash, logger)
	inventoryService := inventory.NewService(ledgerService, catalogService, logger, inventory.WithMinorUnits(policy.Pricing.MinorUnits))
	if err := inventoryService.Seed(ctx, policy.Start()); err != nil {
		logger.WithFields(fields).Fatalf("seed inventory: %v", err)
	}

	// ── Pricing & Restock ───────────────────────────────────
	pricingService := pricing.NewService(catalogService, inventoryService, ledgerService, policy.Pricing, logger)
	restockService := restock.NewService(st.restock, catalogService, inventoryService, ledgerService, policy.Restock, logger)

	// ── Request Processor ───────────────────────────────────
	var locker lock.Locker = lock.NewKeyed()
	if cfg.RedisAddress != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.WithFields(fields).Fatalf("connect redis: %v", err)
		}
		locker = lock.NewRedis(rdb, "fulfillment:item", 30*time.Second)
	}
	orderService := order.NewService(st.results, order.Engine{
		Catalog:   catalogService,
		Inventory: inventoryService,
		Ledger:    ledgerService,
		Pricing:   pricingService,
		Restock:   restockService,
		Locker:    locker,
	}, cfg.Workers, logger)

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	authService := auth.NewService(auth.Config{
		JWTSecret:          cfg.JWTSecret,
		OperatorID:         cfg.OperatorID,
		OperatorSecretHash: cfg.OperatorSecretHash,
		TokenTTL:           cfg.TokenTTL,
	})
	if cfg.AuthEnabled() {
		auth.NewHandler(authService).RegisterRoutes(router)
	}

	router.Group(func(r chi.Router) {
		if cfg.AuthEnabled() {
			r.Use(auth.RequireForWrites(authService))
		}
		catalog.NewHandler(catalogService).RegisterRoutes(r)
		ledger.NewHandler(ledgerService).RegisterRoutes(r)
		inventory.NewHandler(inventoryService).RegisterRoutes(r)
		pricing.NewHandler(pricingService).RegisterRoutes(r)
		restock.NewHandler(restockService, catalogService).RegisterRoutes(r)
		order.NewHandler(orderService).RegisterRoutes(r)
	})

	// ── Start Server ────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		logger.WithFields(fields).Infof("fulfillment API listening on :%s", cfg.Port)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.LogError(logger, "main", "Shutdown", "http server", nil, err)
		}
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.LogError(logger, "main", "ListenAndServe", "http server", nil, err)
		}
	}
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.Store != config.StorePostgres {
		return &stores{
			ledger:  ledger.NewMemoryRepository(),
			catalog: catalog.NewMemoryRepository(),
			restock: restock.NewMemoryRepository(),
			results: order.NewMemoryRepository(),
			close:   func() {},
		}, nil
	}
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &stores{
		ledger:  ledger.NewPostgresRepository(db),
		catalog: catalog.NewPostgresRepository(db),
		restock: restock.NewPostgresRepository(db),
		results: order.NewPostgresRepository(db),
		close:   func() { db.Close() },
	}, nil
}
