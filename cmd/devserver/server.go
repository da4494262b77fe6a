package main

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/training-portal/pkg/middleware"
)

// newRouter serves dir as static files with caching disabled and any origin allowed.
func newRouter(dir string, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.CORS([]string{"*"}),
		middleware.NoStore(),
		middleware.RequestLogger(logger),
	)

	r.StaticFS("/", gin.Dir(dir, true))
	return r
}
