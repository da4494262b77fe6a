package progress

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mo-amir99/training-portal/internal/content"
	"github.com/mo-amir99/training-portal/internal/middleware"
	"github.com/mo-amir99/training-portal/internal/services/catalog"
	"github.com/mo-amir99/training-portal/pkg/response"
	"github.com/mo-amir99/training-portal/pkg/types"
)

// Handler serves progress endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs a progress handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// List returns a user's progress.
func (h *Handler) List(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user id", err)
		return
	}

	claims, _ := middleware.ClaimsFromContext(c)
	if err := Authorize(claims, userID); err != nil {
		h.respondError(c, err, "forbidden")
		return
	}

	rows, err := h.service.ForUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "failed to load progress")
		return
	}

	response.SuccessNoCache(c, http.StatusOK, rows, "")
}

// Mark records that the caller viewed content on a day.
func (h *Handler) Mark(c *gin.Context) {
	var req struct {
		UserID      string `json:"userId"`
		DayNumber   int    `json:"dayNumber" binding:"required"`
		ContentType string `json:"contentType" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid progress payload", err)
		return
	}

	claims, _ := middleware.ClaimsFromContext(c)
	userID, err := ResolveUser(claims, req.UserID)
	if err != nil {
		h.respondError(c, err, "invalid user id")
		return
	}
	if err := Authorize(claims, userID); err != nil {
		h.respondError(c, err, "forbidden")
		return
	}

	p, err := h.service.MarkViewed(c.Request.Context(), userID, req.DayNumber, types.ContentType(req.ContentType))
	if err != nil {
		h.respondError(c, err, "failed to record progress")
		return
	}

	response.Success(c, http.StatusOK, p, "Progress recorded")
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, ErrUserRequired):
		status = http.StatusBadRequest
		message = "A valid user id is required"
	case errors.Is(err, ErrInvalidContentType):
		status = http.StatusBadRequest
		message = "contentType must be presentation or recording"
	case errors.Is(err, content.ErrInvalidDayNumber):
		status = http.StatusBadRequest
		message = "dayNumber must be positive"
	case errors.Is(err, ErrForbidden):
		status = http.StatusForbidden
		message = "Cannot access another user's progress"
	case errors.Is(err, content.ErrDayNotFound):
		status = http.StatusNotFound
		message = "Training day not found"
	case errors.Is(err, ErrDayLocked):
		status = http.StatusConflict
		message = "Training day is locked"
	case errors.Is(err, catalog.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
		message = "Content store unavailable"
	}

	response.ErrorWithLog(h.logger, c, status, message, err)
}
