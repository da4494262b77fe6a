package adminaction

import (
	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/training-portal/internal/middleware"
	"github.com/mo-amir99/training-portal/pkg/types"
)

// RegisterRoutes attaches audit log endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authMw *middleware.AuthMiddleware) {
	admin := router.Group("/admin")
	{
		admin.GET("/actions", append(authMw.RequireCapability(types.CapStatsRead), handler.List)...)
	}
}
