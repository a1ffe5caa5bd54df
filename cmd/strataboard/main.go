package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/strataboard/strataboard/internal/app"
	"github.com/strataboard/strataboard/internal/auth"
	"github.com/strataboard/strataboard/internal/directory"
	"github.com/strataboard/strataboard/internal/observability"
	"github.com/strataboard/strataboard/internal/platform/cache"
	"github.com/strataboard/strataboard/internal/platform/db"
	"github.com/strataboard/strataboard/internal/rbac"
	"github.com/strataboard/strataboard/internal/shared"
	"github.com/strataboard/strataboard/internal/users"
	"github.com/strataboard/strataboard/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "strata_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	directoryRepo := directory.NewRepository(dbpool)
	rbacRepo := rbac.NewRepository(dbpool)

	checker := rbac.NewChecker(rbacRepo, logger)
	resolver := rbac.NewAccessResolver(rbacRepo, directoryRepo, logger)
	registry := rbac.DefaultModuleRegistry()
	catalog := rbac.DefaultGroupCatalog()
	engine := rbac.NewGroupEngine(catalog, registry, rbacRepo)
	rbacMiddleware := rbac.Middleware{Checker: checker, Logger: logger, Recorder: metrics}

	rbacService := rbac.NewService(rbacRepo, rbacRepo, rbacRepo, catalog)
	rbacHandler := rbac.NewHandler(logger, rbacService, checker, resolver, engine, registry, rbacMiddleware)

	directoryService := directory.NewService(directoryRepo, resolver, checker)
	directoryHandler := directory.NewHandler(logger, directoryService, rbacMiddleware)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, resolver, checker)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		AuthHandler:      authHandler,
		UsersHandler:     usersHandler,
		RBACHandler:      rbacHandler,
		DirectoryHandler: directoryHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
