package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/mo-amir99/training-portal/internal/utils/jwt"
	"github.com/mo-amir99/training-portal/pkg/types"
)

type stubAuth map[string]error

func (s stubAuth) Authenticate(_ context.Context, token string) (*jwt.Claims, error) {
	if err, ok := s[token]; ok && err != nil {
		return nil, err
	}
	if token == "stats-only" {
		return &jwt.Claims{Capabilities: []types.Capability{types.CapStatsRead}}, nil
	}
	uid := uuid.New()
	return &jwt.Claims{UserID: &uid, Capabilities: types.AdminCapabilities}, nil
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := stubAuth{
		"expired": jwt.ErrExpiredToken,
		"revoked": jwt.ErrRevoked,
		"garbage": jwt.ErrInvalidToken,
		"db-down": errors.New("connection refused"),
	}
	m := NewAuthMiddleware(auth, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := gin.New()
	r.POST("/days/:dayNumber/unlock", append(m.RequireCapability(types.CapDaysWrite), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})...)
	r.GET("/whoami", m.OptionalAuth(), func(c *gin.Context) {
		if _, ok := ClaimsFromContext(c); ok {
			c.String(http.StatusOK, "session")
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	return r
}

func TestRequireCapability(t *testing.T) {
	r := newRouter()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"expired", "Bearer expired", http.StatusUnauthorized},
		{"revoked", "Bearer revoked", http.StatusUnauthorized},
		{"invalid", "Bearer garbage", http.StatusUnauthorized},
		{"store failure", "Bearer db-down", http.StatusInternalServerError},
		{"missing capability", "Bearer stats-only", http.StatusForbidden},
		{"allowed", "bearer good", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/days/3/unlock", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	r := newRouter()

	for header, want := range map[string]string{
		"":               "anonymous",
		"Bearer garbage": "anonymous",
		"Bearer good":    "session",
	} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Body.String(), header)
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("BEARER  abc "))
	assert.Empty(t, BearerToken("Bearer"))
	assert.Empty(t, BearerToken("Token abc"))
}
