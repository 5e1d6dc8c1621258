package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/georgemunganga/marketplace-api/internal/modules/auth"
	"github.com/georgemunganga/marketplace-api/internal/modules/cart"
	"github.com/georgemunganga/marketplace-api/internal/modules/catalog"
	"github.com/georgemunganga/marketplace-api/internal/modules/inventory"
	"github.com/georgemunganga/marketplace-api/internal/modules/like"
	"github.com/georgemunganga/marketplace-api/internal/modules/order"
	"github.com/georgemunganga/marketplace-api/internal/modules/user"
	"github.com/georgemunganga/marketplace-api/internal/platform/cache"
	"github.com/georgemunganga/marketplace-api/internal/platform/config"
	"github.com/georgemunganga/marketplace-api/internal/platform/database"
	"github.com/georgemunganga/marketplace-api/internal/platform/events"
	"github.com/georgemunganga/marketplace-api/internal/platform/httpx"
	"github.com/georgemunganga/marketplace-api/internal/platform/logging"
)

const serviceName = "marketplace-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger level comes from config, so fall back to a default one.
		zap.NewExample().Fatal("load config", zap.Error(err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		zap.NewExample().Fatal("build logger", zap.Error(err))
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database.URL, database.Options{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	defer db.Close()

	if err := database.EnsureSchema(ctx, db); err != nil {
		logger.Fatal("apply schema", zap.Error(err))
	}
	logger.Info("database ready")

	orderCache, closeCache := newOrderCache(ctx, cfg, logger)
	defer closeCache()

	publisher, closePublisher := newPublisher(cfg, logger)
	defer closePublisher()

	// ── Identity ────────────────────────────────────────────
	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo)
	authService := auth.NewService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authn := auth.Middleware(authService)

	// ── Catalog, stock and carts ────────────────────────────
	productRepo := inventory.NewPostgresRepository(db)
	catalogService := catalog.NewService(catalog.NewPostgresRepository(db))
	inventoryService := inventory.NewService(productRepo)
	cartService := cart.NewService(cart.NewPostgresRepository(db), productRepo)
	likeService := like.NewService(like.NewPostgresRepository(db), catalogService, logger.Named("like"))

	// ── Orders ──────────────────────────────────────────────
	orderService := order.NewService(order.Deps{
		Orders:     order.NewPostgresRepository(db),
		UnitOfWork: order.NewPostgresUnitOfWork(db),
		Cache:      orderCache,
		Tasks: []order.PostCommitTask{
			order.ClearCartTask{Carts: cartService},
			order.PublishTask{Publisher: publisher},
		},
		Logger:          logger.Named("order"),
		RestockOnCancel: cfg.Orders.RestockOnCancel,
	})

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logging.RequestLogger(logger))
	router.Use(logging.Recoverer(logger))

	router.Get("/healthz", healthz(db))

	user.NewHandler(userService, auth.UserActor).RegisterRoutes(router, authn)
	auth.NewHandler(authService).RegisterRoutes(router)
	catalog.NewHandler(catalogService).RegisterRoutes(router, authn)

	router.Group(func(r chi.Router) {
		r.Use(authn)
		inventory.NewHandler(inventoryService).RegisterRoutes(r)
		cart.NewHandler(cartService).RegisterRoutes(r)
		like.NewHandler(likeService).RegisterRoutes(r)
		order.NewHandler(orderService).RegisterRoutes(r)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newOrderCache connects Redis when configured. A failed connection
// disables caching rather than stopping the server.
func newOrderCache(ctx context.Context, cfg config.Config, logger *zap.Logger) (order.Cache, func()) {
	if cfg.Redis.Addr == "" {
		return nil, func() {}
	}
	store, closeFn, err := cache.NewRedisCache(ctx, cache.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, serviceName)
	if err != nil {
		logger.Warn("order cache disabled", zap.Error(err))
		return nil, func() {}
	}
	logger.Info("order cache enabled", zap.String("addr", cfg.Redis.Addr))
	return order.NewCache(store, cfg.Redis.OrderTTL, logger.Named("order_cache")), func() { _ = closeFn() }
}

func newPublisher(cfg config.Config, logger *zap.Logger) (events.Publisher, func()) {
	if cfg.NATS.URL == "" {
		return events.Nop{}, func() {}
	}
	pub, err := events.NewStanPublisher(events.StanOptions{
		URL:       cfg.NATS.URL,
		ClusterID: cfg.NATS.ClusterID,
		ClientID:  cfg.NATS.ClientID,
		Subject:   cfg.NATS.Subject,
	})
	if err != nil {
		logger.Warn("event publishing disabled", zap.Error(err))
		return events.Nop{}, func() {}
	}
	logger.Info("event publishing enabled", zap.String("subject", cfg.NATS.Subject))
	return pub, func() { _ = pub.Close() }
}

func healthz(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			httpx.Respond(w, http.StatusServiceUnavailable, map[string]any{"success": false, "status": "unavailable"})
			return
		}
		httpx.Respond(w, http.StatusOK, map[string]any{"success": true, "status": "ok"})
	}
}
