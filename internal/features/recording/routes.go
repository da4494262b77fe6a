package recording

import (
	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/training-portal/internal/middleware"
	"github.com/mo-amir99/training-portal/pkg/types"
)

// RegisterRoutes attaches recording endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authMw *middleware.AuthMiddleware) {
	recordings := router.Group("/recordings")

	recordings.GET("", handler.List)
	recordings.GET("/:dayNumber", handler.Get)
	recordings.PUT("/:dayNumber", append(authMw.RequireCapability(types.CapRecordingsWrite), handler.Upload)...)
	recordings.DELETE("/:dayNumber", append(authMw.RequireCapability(types.CapRecordingsWrite), handler.Remove)...)
	recordings.DELETE("/id/:recordingId", append(authMw.RequireCapability(types.CapRecordingsWrite), handler.RemoveByID)...)
}
