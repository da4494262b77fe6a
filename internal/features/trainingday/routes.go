package trainingday

import (
	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/training-portal/internal/middleware"
	"github.com/mo-amir99/training-portal/pkg/types"
)

// RegisterRoutes attaches training day endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authMw *middleware.AuthMiddleware) {
	days := router.Group("/days")

	days.GET("", handler.List)
	days.GET("/unlocked", handler.ListUnlocked)
	days.GET("/:dayNumber", handler.Get)
	days.POST("/unlock-all", append(authMw.RequireCapability(types.CapDaysWrite), handler.UnlockAll)...)
	days.POST("/:dayNumber/unlock", append(authMw.RequireCapability(types.CapDaysWrite), handler.Unlock)...)
	days.POST("/:dayNumber/lock", append(authMw.RequireCapability(types.CapDaysWrite), handler.Lock)...)
}
