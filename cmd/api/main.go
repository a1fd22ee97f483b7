package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/fineshyttt/commerce-backend/api/controllers"
	"github.com/fineshyttt/commerce-backend/api/routes"
	"github.com/fineshyttt/commerce-backend/internal/address"
	"github.com/fineshyttt/commerce-backend/internal/cart"
	"github.com/fineshyttt/commerce-backend/internal/checkout"
	"github.com/fineshyttt/commerce-backend/internal/coupons"
	"github.com/fineshyttt/commerce-backend/internal/inventory"
	"github.com/fineshyttt/commerce-backend/internal/orders"
	"github.com/fineshyttt/commerce-backend/pkg/config"
	"github.com/fineshyttt/commerce-backend/pkg/db"
	"github.com/fineshyttt/commerce-backend/pkg/env"
	"github.com/fineshyttt/commerce-backend/pkg/instance"
	"github.com/fineshyttt/commerce-backend/pkg/logger"
	"github.com/fineshyttt/commerce-backend/pkg/metrics"
	"github.com/fineshyttt/commerce-backend/pkg/migrate"
	"github.com/fineshyttt/commerce-backend/pkg/outbox"
	"github.com/fineshyttt/commerce-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := orders.ValidateTransitionTable(); err != nil {
		logg.Error(context.Background(), "order transition table is invalid", err)
		os.Exit(1)
	}

	dbClient, err := db.Connect(context.Background(), cfg, logg)
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	orderMetrics := metrics.NewOrderMetrics(registry)

	conn := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	ledger, err := inventory.NewLedger(inventory.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory ledger", err)
		os.Exit(1)
	}
	couponValidator, err := coupons.NewValidator(coupons.NewRepository(conn), time.Now)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupon validator", err)
		os.Exit(1)
	}
	orderRepo := orders.NewRepository(conn)
	history := orders.NewHistoryRecorder(conn)

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:        dbClient,
		Carts:     cart.NewRepository(conn),
		Addresses: address.NewRepository(conn),
		Ledger:    ledger,
		Coupons:   couponValidator,
		Orders:    orderRepo,
		History:   history,
		Outbox:    emitter,
		Metrics:   orderMetrics,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}
	orderService, err := orders.NewService(orderRepo, history, ledger, dbClient, emitter, orderMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}
	inventoryService, err := inventory.NewService(ledger, dbClient, emitter, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	port := env.Get("PORT", cfg.App.Port)
	addr := ":" + port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config: cfg,
			Logger: logg,
			Readiness: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
			Idempotency: redisClient,
			Gatherer:    registry,
			Checkout:    checkoutService,
			Orders:      orderService,
			Inventory:   inventoryService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}
