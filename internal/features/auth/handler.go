package auth

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/training-portal/internal/middleware"
	"github.com/mo-amir99/training-portal/pkg/response"
	"github.com/mo-amir99/training-portal/pkg/types"
)

// Handler processes authentication HTTP requests.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs an auth handler instance.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// CreateSession exchanges the shared admin token for a capability session.
func (h *Handler) CreateSession(c *gin.Context) {
	var req struct {
		AdminToken   string   `json:"adminToken" binding:"required"`
		Capabilities []string `json:"capabilities"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid session payload", err)
		return
	}

	caps := make([]types.Capability, 0, len(req.Capabilities))
	for _, raw := range req.Capabilities {
		capability, err := types.ParseCapability(raw)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "unknown capability", err)
			return
		}
		caps = append(caps, capability)
	}

	issued, err := h.service.IssueAdminSession(c.Request.Context(), req.AdminToken, caps, clientInfo(c))
	if err != nil {
		h.respondError(c, err, "failed to create session")
		return
	}

	response.Created(c, issued, "Session created")
}

// Login authenticates a user and returns a session token.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid login payload", err)
		return
	}

	issued, err := h.service.Login(c.Request.Context(), req.Email, req.Password, clientInfo(c))
	if err != nil {
		h.respondError(c, err, "login failed")
		return
	}

	response.Success(c, http.StatusOK, issued, "Login successful")
}

// Logout revokes the caller's session.
func (h *Handler) Logout(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "no session", nil)
		return
	}

	if err := h.service.Revoke(c.Request.Context(), claims); err != nil {
		h.respondError(c, err, "logout failed")
		return
	}

	response.Success(c, http.StatusOK, true, "Logout successful")
}

func clientInfo(c *gin.Context) ClientInfo {
	return ClientInfo{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, ErrMissingFields):
		status = http.StatusBadRequest
		message = "Missing required fields"
	case errors.Is(err, ErrCapabilityDenied):
		status = http.StatusBadRequest
		message = "Requested capability cannot be granted"
	case errors.Is(err, ErrInvalidAdminToken):
		status = http.StatusUnauthorized
		message = "Invalid admin token"
	case errors.Is(err, ErrInvalidCredentials):
		status = http.StatusUnauthorized
		message = "Invalid email or password"
	case errors.Is(err, ErrAdminTokenDisabled):
		status = http.StatusForbidden
		message = "Admin token sessions are disabled"
	case errors.Is(err, ErrInactiveAccount):
		status = http.StatusForbidden
		message = "Your account is inactive"
	case errors.Is(err, ErrSessionNotFound):
		status = http.StatusNotFound
		message = "Session not found"
	}

	response.ErrorWithLog(h.logger, c, status, message, err)
}
