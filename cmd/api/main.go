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

	"github.com/sidaputra/dapurlink-backend/api/routes"
	"github.com/sidaputra/dapurlink-backend/internal/auth"
	"github.com/sidaputra/dapurlink-backend/internal/cart"
	checkoutsvc "github.com/sidaputra/dapurlink-backend/internal/checkout"
	"github.com/sidaputra/dapurlink-backend/internal/delivery"
	"github.com/sidaputra/dapurlink-backend/internal/fulfillment"
	"github.com/sidaputra/dapurlink-backend/internal/notifications"
	"github.com/sidaputra/dapurlink-backend/internal/orders"
	"github.com/sidaputra/dapurlink-backend/internal/products"
	"github.com/sidaputra/dapurlink-backend/internal/users"
	"github.com/sidaputra/dapurlink-backend/internal/vendors"
	"github.com/sidaputra/dapurlink-backend/pkg/config"
	"github.com/sidaputra/dapurlink-backend/pkg/db"
	"github.com/sidaputra/dapurlink-backend/pkg/deliverynote"
	"github.com/sidaputra/dapurlink-backend/pkg/logger"
	"github.com/sidaputra/dapurlink-backend/pkg/metrics"
	"github.com/sidaputra/dapurlink-backend/pkg/migrate"
	"github.com/sidaputra/dapurlink-backend/pkg/outbox"
	pkgredis "github.com/sidaputra/dapurlink-backend/pkg/redis"
	"github.com/sidaputra/dapurlink-backend/pkg/storage/local"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := pkgredis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	store, err := local.NewStore(cfg.Storage, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap document storage", err)
		os.Exit(1)
	}

	var renderer deliverynote.Renderer
	if cfg.Renderer.Enabled() {
		renderer, err = deliverynote.NewHTTPRenderer(cfg.Renderer, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap delivery note renderer", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(ctx, "no delivery note renderer configured, notes will be skipped")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	lifecycleMetrics := metrics.NewLifecycleMetrics(registry)

	gdb := dbClient.DB()
	userRepo := users.NewRepository(gdb)
	orderRepo := orders.NewRepository(gdb)
	fulfillmentRepo := fulfillment.NewRepository(gdb)
	productRepo := products.NewRepository(gdb)
	cartRepo := cart.NewRepository(gdb)

	outboxSvc := outbox.NewService(outbox.NewRepository(gdb), logg)
	fanout, err := notifications.NewFanout(notifications.NewRepository(gdb), outboxSvc)
	exitOn(ctx, logg, "notification fanout", err)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:  userRepo,
		JWTConfig: cfg.JWT,
	})
	exitOn(ctx, logg, "auth service", err)

	usersService, err := users.NewService(users.ServiceParams{
		Repo:        userRepo,
		Vendors:     vendors.NewRepository(gdb),
		Tx:          dbClient,
		PasswordCfg: cfg.Password,
	})
	exitOn(ctx, logg, "users service", err)

	productsService, err := products.NewService(productRepo)
	exitOn(ctx, logg, "products service", err)

	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:     cartRepo,
		Products: productRepo,
		Tx:       dbClient,
	})
	exitOn(ctx, logg, "cart service", err)

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Carts:    cartRepo,
		Orders:   orderRepo,
		Products: productRepo,
		Users:    userRepo,
		Fanout:   fanout,
		Outbox:   outboxSvc,
		Tx:       dbClient,
		Metrics:  lifecycleMetrics,
	})
	exitOn(ctx, logg, "checkout service", err)

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:    orderRepo,
		Users:   userRepo,
		Fanout:  fanout,
		Outbox:  outboxSvc,
		Tx:      dbClient,
		Policy:  cfg.Policy,
		Metrics: lifecycleMetrics,
	})
	exitOn(ctx, logg, "orders service", err)

	fulfillmentService, err := fulfillment.NewService(fulfillment.ServiceParams{
		Repo:   fulfillmentRepo,
		Orders: orderRepo,
		Users:  userRepo,
		Fanout: fanout,
		Outbox: outboxSvc,
		Store:  store,
		Tx:     dbClient,
	})
	exitOn(ctx, logg, "fulfillment service", err)

	deliveryService, err := delivery.NewService(delivery.ServiceParams{
		Repo:         delivery.NewRepository(gdb),
		Orders:       orderRepo,
		Fulfillments: fulfillmentRepo,
		Users:        userRepo,
		Fanout:       fanout,
		Outbox:       outboxSvc,
		Store:        store,
		Renderer:     renderer,
		Tx:           dbClient,
		Logger:       logg,
		Metrics:      lifecycleMetrics,
	})
	exitOn(ctx, logg, "delivery service", err)

	notificationsService, err := notifications.NewService(notifications.NewRepository(gdb))
	exitOn(ctx, logg, "notifications service", err)

	handler := routes.NewRouter(routes.Deps{
		Cfg:           cfg,
		Logger:        logg,
		DB:            dbClient,
		Redis:         redisClient,
		Store:         store,
		Metrics:       registry,
		Auth:          authService,
		Cart:          cartService,
		Checkout:      checkoutService,
		Orders:        ordersService,
		Fulfillment:   fulfillmentService,
		Delivery:      deliveryService,
		Products:      productsService,
		Users:         usersService,
		Notifications: notificationsService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	runCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop:
		logg.Info(runCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}

func exitOn(ctx context.Context, logg *logger.Logger, component string, err error) {
	if err != nil {
		logg.Error(ctx, "failed to build "+component, err)
		os.Exit(1)
	}
}
