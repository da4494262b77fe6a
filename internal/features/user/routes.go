package user

import (
	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/training-portal/internal/middleware"
	"github.com/mo-amir99/training-portal/pkg/types"
)

// RegisterRoutes attaches user endpoints to the router. Managing users needs stats:read
// plus days:write, which only admin sessions carry.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authMw *middleware.AuthMiddleware) {
	admin := authMw.RequireCapability(types.CapStatsRead, types.CapDaysWrite)

	users := router.Group("/users")
	{
		users.GET("/me", authMw.AuthenticateToken(), handler.Me)
		users.GET("", append(admin, handler.List)...)
		users.POST("", append(admin, handler.Create)...)
		users.GET("/:userId", append(admin, handler.GetByID)...)
		users.PUT("/:userId", append(admin, handler.Update)...)
		users.DELETE("/:userId", append(admin, handler.Delete)...)
	}
}
