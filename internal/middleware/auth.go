package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/training-portal/internal/utils/jwt"
	"github.com/mo-amir99/training-portal/pkg/response"
	"github.com/mo-amir99/training-portal/pkg/types"
)

const claimsKey = "session"

// Authenticator resolves a bearer token into session claims.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*jwt.Claims, error)
}

// AuthMiddleware holds dependencies for authentication middleware.
type AuthMiddleware struct {
	auth   Authenticator
	logger *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(auth Authenticator, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, logger: logger}
}

// AuthenticateToken requires a valid session and stores its claims in the context.
func (m *AuthMiddleware) AuthenticateToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := m.ensureAuthenticated(c); !ok {
			return
		}
		c.Next()
	}
}

// OptionalAuth stores claims when a valid token is present and otherwise continues anonymously.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := BearerToken(c.GetHeader("Authorization")); token != "" {
			if claims, err := m.auth.Authenticate(c.Request.Context(), token); err == nil {
				SetClaims(c, claims)
			}
		}
		c.Next()
	}
}

// RequireCapability authenticates the caller and checks it holds every listed capability.
func (m *AuthMiddleware) RequireCapability(caps ...types.Capability) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.AuthenticateToken(),
		func(c *gin.Context) {
			claims, _ := ClaimsFromContext(c)
			for _, want := range caps {
				if !claims.Has(want) {
					response.ErrorWithLog(m.logger, c, http.StatusForbidden,
						"Access denied: missing capability "+string(want)+".", errors.New("capability check failed"))
					c.Abort()
					return
				}
			}
			c.Next()
		},
	}
}

// ClaimsFromContext retrieves the authenticated session from the Gin context.
func ClaimsFromContext(c *gin.Context) (*jwt.Claims, bool) {
	val, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := val.(*jwt.Claims)
	return claims, ok && claims != nil
}

// SetClaims stores an authenticated session on the Gin context.
func SetClaims(c *gin.Context, claims *jwt.Claims) {
	c.Set(claimsKey, claims)
	if claims != nil && claims.UserID != nil {
		c.Set("userId", *claims.UserID)
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func (m *AuthMiddleware) ensureAuthenticated(c *gin.Context) (*jwt.Claims, bool) {
	if claims, ok := ClaimsFromContext(c); ok {
		return claims, true
	}

	token := BearerToken(c.GetHeader("Authorization"))
	if token == "" {
		response.ErrorWithLog(m.logger, c, http.StatusUnauthorized, "No token provided", nil)
		c.Abort()
		return nil, false
	}

	claims, err := m.auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		status, message := http.StatusUnauthorized, "Invalid token"
		switch {
		case errors.Is(err, jwt.ErrExpiredToken):
			message = "Token expired"
		case errors.Is(err, jwt.ErrRevoked):
			message = "Session revoked"
		case errors.Is(err, jwt.ErrInvalidToken):
		default:
			status, message = http.StatusInternalServerError, "Failed to verify session"
		}
		response.ErrorWithLog(m.logger, c, status, message, err)
		c.Abort()
		return nil, false
	}

	SetClaims(c, claims)
	return claims, true
}
