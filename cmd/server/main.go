package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	abandonmentapp "github.com/storesync/backend/internal/application/abandonment"
	eventsapp "github.com/storesync/backend/internal/application/events"
	syncapp "github.com/storesync/backend/internal/application/sync"
	"github.com/storesync/backend/internal/application/tenantmgmt"
	webhookapp "github.com/storesync/backend/internal/application/webhook"
	"github.com/storesync/backend/internal/infrastructure/auth"
	"github.com/storesync/backend/internal/infrastructure/cache"
	"github.com/storesync/backend/internal/infrastructure/config"
	"github.com/storesync/backend/internal/infrastructure/logger"
	"github.com/storesync/backend/internal/infrastructure/persistence"
	"github.com/storesync/backend/internal/infrastructure/shopify"
	"github.com/storesync/backend/internal/interfaces/http/handler"
	"github.com/storesync/backend/internal/interfaces/http/middleware"
	"github.com/storesync/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting StoreSync Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Redis is optional. Without it locks degrade to always-granted and
	// event projections are rebuilt on every read.
	var store cache.Store
	if cfg.Redis.Enabled {
		redisStore, err := cache.NewRedisStore(cfg.Redis)
		if err != nil {
			log.Warn("Redis unreachable, continuing without cache", zap.Error(err))
		} else {
			store = redisStore
			defer func() {
				_ = redisStore.Close()
			}()
			log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
		}
	}
	locks := cache.NewLockManager(store, log)

	// Repositories
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	rawEventRepo := persistence.NewGormRawEventRepository(db.DB)
	syncLogRepo := persistence.NewGormSyncLogRepository(db.DB)

	// Application services
	client := shopify.NewClient(cfg.Shopify)
	reconciler := syncapp.NewReconciler(productRepo, customerRepo, orderRepo, log)
	orchestrator := syncapp.NewOrchestrator(tenantRepo, reconciler, client, syncLogRepo, locks, store, cfg.Sync, log)
	intake := webhookapp.NewIntakeService(tenantRepo, rawEventRepo, reconciler, cfg.Shopify.WebhookSecret, log)
	sweeper := abandonmentapp.NewSweepService(tenantRepo, rawEventRepo, customerRepo, orderRepo, locks, cfg.Abandonment, log)
	hybrid := eventsapp.NewHybridService(tenantRepo, rawEventRepo, client, store, log)
	tenantService := tenantmgmt.NewTenantService(tenantRepo, log)

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.AllowOrigins

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.CORSWithConfig(corsCfg),
		logger.GinMiddleware(log),
		logger.Recovery(log),
	)

	tokens := auth.NewTokenService(cfg.JWT)
	syncHandler := handler.NewSyncHandler(orchestrator, syncLogRepo, cfg.Sync.RetryAfterSeconds)
	abandonmentHandler := handler.NewAbandonmentHandler(sweeper, cfg.Sync.RetryAfterSeconds)

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithAdminMiddleware(middleware.JWTAuth(tokens, log)),
		router.WithCronMiddleware(middleware.CronKey(cfg.Sync.CronKey)),
	)
	r.RegisterPublic(
		handler.NewSystemHandler(db, store),
		handler.NewWebhookHandler(intake),
	)
	r.RegisterAdmin(
		handler.NewTenantHandler(tenantService),
		handler.NewEventsHandler(hybrid),
		abandonmentHandler,
		syncHandler,
	)
	r.RegisterCron(
		router.RegistrarFunc(syncHandler.RegisterCronRoutes),
		router.RegistrarFunc(abandonmentHandler.RegisterCronRoutes),
	)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
