package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/mo-amir99/training-portal/internal/features/adminaction"
	"github.com/mo-amir99/training-portal/internal/features/auth"
	"github.com/mo-amir99/training-portal/internal/features/dashboard"
	"github.com/mo-amir99/training-portal/internal/features/progress"
	"github.com/mo-amir99/training-portal/internal/features/recording"
	"github.com/mo-amir99/training-portal/internal/features/trainingday"
	"github.com/mo-amir99/training-portal/internal/features/user"
	"github.com/mo-amir99/training-portal/internal/graphql"
	"github.com/mo-amir99/training-portal/internal/middleware"
	"github.com/mo-amir99/training-portal/internal/services/catalog"
	"github.com/mo-amir99/training-portal/pkg/config"
	"github.com/mo-amir99/training-portal/pkg/health"
)

// Dependencies are the long-lived services the HTTP surface is built on.
type Dependencies struct {
	Config   *config.Config
	DB       *gorm.DB
	Logger   *slog.Logger
	Auth     *auth.Service
	Catalog  *catalog.Service
	Progress *progress.Service
	Audit    *adminaction.Store
	Health   *health.Handler
	// AuthGuard runs in front of session issuance and login.
	AuthGuard gin.HandlerFunc
}

// Register wires all feature routes onto the engine.
func Register(engine *gin.Engine, deps Dependencies) error {
	cfg, logger := deps.Config, deps.Logger

	// Probes stay outside /api for load balancers.
	health.RegisterRoutes(engine, deps.Health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if !cfg.IsProduction() {
		engine.GET("/debug/db-stats", deps.Health.DBStats)
	}

	authMw := middleware.NewAuthMiddleware(deps.Auth, logger)
	api := engine.Group("/api/v1")

	var guards []gin.HandlerFunc
	if deps.AuthGuard != nil {
		guards = append(guards, deps.AuthGuard)
	}
	auth.RegisterRoutes(api, auth.NewHandler(deps.Auth, logger), authMw, guards...)

	trainingday.RegisterRoutes(api, trainingday.NewHandler(deps.Catalog, logger), authMw)
	recording.RegisterRoutes(api, recording.NewHandler(deps.Catalog, logger), authMw)
	progress.RegisterRoutes(api, progress.NewHandler(deps.Progress, logger), authMw)
	dashboard.RegisterRoutes(api, dashboard.NewHandler(deps.Catalog, logger, cfg.LogDir), authMw)

	if deps.Audit != nil {
		adminaction.RegisterRoutes(api, adminaction.NewHandler(deps.Audit, logger), authMw)
	}
	if deps.DB != nil {
		user.RegisterRoutes(api, user.NewHandler(deps.DB, logger), authMw)
	}

	gqlHandler, err := graphql.NewHandler(graphql.NewResolver(deps.Catalog, deps.Progress, deps.Auth), logger)
	if err != nil {
		return err
	}
	graphql.RegisterRoutes(engine.Group(""), gqlHandler, authMw)

	return nil
}
