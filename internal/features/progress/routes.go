package progress

import (
	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/training-portal/internal/middleware"
	"github.com/mo-amir99/training-portal/pkg/types"
)

// RegisterRoutes attaches progress endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authMw *middleware.AuthMiddleware) {
	progress := router.Group("/progress")
	{
		progress.GET("/:userId", append(authMw.RequireCapability(types.CapProgressWrite), handler.List)...)
		progress.POST("", append(authMw.RequireCapability(types.CapProgressWrite), handler.Mark)...)
	}
}
