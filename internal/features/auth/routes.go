package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/training-portal/internal/middleware"
)

// RegisterRoutes attaches authentication endpoints to the router. guards run
// in front of the endpoints that accept a secret (rate limiting).
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authMw *middleware.AuthMiddleware, guards ...gin.HandlerFunc) {
	guarded := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, guards...), h)
	}

	auth := router.Group("/auth")
	{
		auth.POST("/session", guarded(handler.CreateSession)...)
		auth.POST("/login", guarded(handler.Login)...)
		auth.POST("/logout", authMw.AuthenticateToken(), handler.Logout)
	}
}
