package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const noStore = "no-store, no-cache, must-revalidate"

// NoStore marks every response as uncacheable. The dev server uses it so
// edited slides show up on reload.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		setNoStore(c)
		c.Next()
	}
}

// CacheControl disables caching for API, GraphQL and socket paths and lets
// browsers keep static assets for a day. Handlers may still override the
// header (see response.SuccessNoCache).
func CacheControl() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		switch {
		case strings.HasPrefix(path, "/api"), strings.HasPrefix(path, "/graphql"), strings.HasPrefix(path, "/socket.io"):
			setNoStore(c)
		case isStaticAsset(path):
			c.Header("Cache-Control", "public, max-age=86400")
		}

		c.Next()
	}
}

func setNoStore(c *gin.Context) {
	c.Header("Cache-Control", noStore)
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
}

var staticExtensions = []string{".css", ".js", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico", ".woff", ".woff2", ".ttf"}

func isStaticAsset(path string) bool {
	for _, ext := range staticExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
