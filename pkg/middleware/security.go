package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/training-portal/pkg/response"
)

// The portal embeds recordings from these players.
const contentSecurityPolicy = "default-src 'self'; " +
	"script-src 'self'; " +
	"style-src 'self' 'unsafe-inline'; " +
	"img-src 'self' data: https:; " +
	"frame-src https://www.youtube.com https://player.vimeo.com https://*.azureedge.net https://*.blob.core.windows.net; " +
	"connect-src 'self' ws: wss:; " +
	"frame-ancestors 'none'"

// SecurityHeaders adds common security headers to responses.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", contentSecurityPolicy)
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		if gin.Mode() == gin.ReleaseMode {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// RequestSizeLimit limits the size of request bodies.
func RequestSizeLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, "Request body too large", nil)
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
