package main

import (
	"compress/gzip"
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/training-portal/internal/bootstrap"
	"github.com/mo-amir99/training-portal/internal/features/adminaction"
	"github.com/mo-amir99/training-portal/internal/features/auth"
	"github.com/mo-amir99/training-portal/internal/features/progress"
	"github.com/mo-amir99/training-portal/internal/features/user"
	"github.com/mo-amir99/training-portal/internal/http/routes"
	portaljobs "github.com/mo-amir99/training-portal/internal/jobs"
	"github.com/mo-amir99/training-portal/internal/services/catalog"
	"github.com/mo-amir99/training-portal/pkg/cache"
	"github.com/mo-amir99/training-portal/pkg/config"
	"github.com/mo-amir99/training-portal/pkg/database"
	"github.com/mo-amir99/training-portal/pkg/health"
	"github.com/mo-amir99/training-portal/pkg/jobs"
	"github.com/mo-amir99/training-portal/pkg/logger"
	"github.com/mo-amir99/training-portal/pkg/metrics"
	"github.com/mo-amir99/training-portal/pkg/middleware"
	"github.com/mo-amir99/training-portal/pkg/request"
	socketioserver "github.com/mo-amir99/training-portal/pkg/socketio"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLogger, err := logger.New(cfg.LogLevel, cfg.LogDir)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	stack, err := bootstrap.OpenContent(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("content store authentication failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := bootstrap.OpenDatabase(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("database connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(db, appLogger); err != nil {
			appLogger.Error("database close failed", slog.String("error", err.Error()))
		}
	}()

	if err := bootstrap.EnsureDefaultAdmin(db, cfg.DefaultAdminEmail, cfg.DefaultAdminPass, appLogger); err != nil {
		appLogger.Error("ensure default admin failed", slog.String("error", err.Error()))
	}

	cacheClient, err := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		appLogger.Error("cache connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cacheClient.Close()

	users := user.NewStore(db)
	audit := adminaction.NewStore(db)

	authService := auth.NewService(auth.Config{
		AdminToken: cfg.AdminToken,
		JWTSecret:  cfg.JWTSecret,
		SessionTTL: cfg.SessionTTL,
	}, auth.NewGormStore(db), users, cacheClient, appLogger)

	socketIOServer, err := socketioserver.NewServer(authService, appLogger, socketioserver.Options{})
	if err != nil {
		appLogger.Error("socket.io server initialization failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer socketIOServer.Close()

	catalogService := catalog.NewService(
		catalog.Config{CacheTTL: cfg.Content.CacheTTL},
		stack.Client, cacheClient, audit, socketIOServer, users, appLogger,
	)
	progressService := progress.NewService(progress.NewRepository(db), catalogService, socketIOServer, appLogger)

	scheduler := jobs.NewScheduler(appLogger)
	if err := scheduler.AddJob(portaljobs.NewSessionCleanupJob(authService, appLogger), time.Hour); err != nil {
		appLogger.Error("schedule session cleanup failed", slog.String("error", err.Error()))
	}
	if cfg.Export.Dir != "" {
		err := scheduler.Add(jobs.ScheduledJob{
			Job:        portaljobs.NewSnapshotExportJob(stack.Client, cfg.Export.Dir, appLogger),
			Interval:   cfg.Export.Interval,
			RunAtStart: true,
		})
		if err != nil {
			appLogger.Error("schedule snapshot export failed", slog.String("error", err.Error()))
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	healthHandler := health.NewHandler(db, appLogger)
	healthHandler.AddCheck("store", stack.Store.VerifyCredentials)
	healthHandler.AddCheck("cache", cacheClient.Ping)

	authLimiter := middleware.NewRateLimiter(ctx, 10, time.Minute)

	router := gin.New()

	// Socket.IO is mounted before the full stack so it only gets recovery
	// and CORS. gin copies the middleware chain when a route is added.
	router.Use(middleware.Recovery(appLogger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.GET("/socket.io/*any", gin.WrapH(socketIOServer.GetHandler()))
	router.POST("/socket.io/*any", gin.WrapH(socketIOServer.GetHandler()))

	router.Use(middleware.RequestID())
	router.Use(middleware.Compression(gzip.BestSpeed))
	router.Use(middleware.RequestLogger(appLogger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CacheControl())
	router.Use(middleware.RequestSizeLimit(1 << 20))
	router.Use(metrics.Middleware())
	router.Use(request.Handler(appLogger, catalog.Classify))

	err = routes.Register(router, routes.Dependencies{
		Config:    cfg,
		DB:        db,
		Logger:    appLogger,
		Auth:      authService,
		Catalog:   catalogService,
		Progress:  progressService,
		Audit:     audit,
		Health:    healthHandler,
		AuthGuard: authLimiter.Middleware(),
	})
	if err != nil {
		appLogger.Error("route registration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddress(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		appLogger.Info("server starting",
			slog.String("addr", cfg.ServerAddress()),
			slog.String("env", cfg.Env),
			slog.String("log_level", cfg.LogLevel),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("server listen failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server shutdown failed", slog.String("error", err.Error()))
	} else {
		appLogger.Info("server stopped gracefully")
	}
}
