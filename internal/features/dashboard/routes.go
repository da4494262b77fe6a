package dashboard

import (
	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/training-portal/internal/middleware"
	"github.com/mo-amir99/training-portal/pkg/types"
)

func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authMw *middleware.AuthMiddleware) {
	dashboard := router.Group("/dashboard")
	{
		dashboard.GET("/stats", append(authMw.RequireCapability(types.CapStatsRead), handler.GetStats)...)
		dashboard.GET("/system-stats", append(authMw.RequireCapability(types.CapStatsRead), handler.GetSystemStats)...)
		dashboard.GET("/logs", append(authMw.RequireCapability(types.CapStatsRead), handler.GetSystemLogs)...)
	}
}
