package trainingday

import (
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/training-portal/internal/middleware"
	"github.com/mo-amir99/training-portal/internal/services/catalog"
	"github.com/mo-amir99/training-portal/pkg/apperrors"
	"github.com/mo-amir99/training-portal/pkg/request"
	"github.com/mo-amir99/training-portal/pkg/response"
)

// Handler serves training day endpoints.
type Handler struct {
	catalog *catalog.Service
	logger  *slog.Logger
}

// NewHandler constructs a training day handler.
func NewHandler(svc *catalog.Service, logger *slog.Logger) *Handler {
	return &Handler{catalog: svc, logger: logger}
}

// List returns every training day.
func (h *Handler) List(c *gin.Context) {
	days, err := h.catalog.Days(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.SuccessNoCache(c, http.StatusOK, days, "")
}

// ListUnlocked returns the days students can open.
func (h *Handler) ListUnlocked(c *gin.Context) {
	days, err := h.catalog.UnlockedDays(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.SuccessNoCache(c, http.StatusOK, days, "")
}

// Get returns one day with its recording.
func (h *Handler) Get(c *gin.Context) {
	dayNumber, ok := h.dayParam(c)
	if !ok {
		return
	}

	day, err := h.catalog.Day(c.Request.Context(), dayNumber)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.SuccessNoCache(c, http.StatusOK, day, "")
}

// Unlock opens a day to students.
func (h *Handler) Unlock(c *gin.Context) {
	dayNumber, ok := h.dayParam(c)
	if !ok {
		return
	}

	claims, _ := middleware.ClaimsFromContext(c)
	day, err := h.catalog.UnlockDay(c.Request.Context(), dayNumber, catalog.ActorFromClaims(claims))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, day, "Day unlocked")
}

// Lock closes a day again.
func (h *Handler) Lock(c *gin.Context) {
	dayNumber, ok := h.dayParam(c)
	if !ok {
		return
	}

	claims, _ := middleware.ClaimsFromContext(c)
	day, err := h.catalog.LockDay(c.Request.Context(), dayNumber, catalog.ActorFromClaims(claims))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, day, "Day locked")
}

// UnlockAll opens every day.
func (h *Handler) UnlockAll(c *gin.Context) {
	claims, _ := middleware.ClaimsFromContext(c)
	count, err := h.catalog.UnlockAllDays(c.Request.Context(), catalog.ActorFromClaims(claims))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unlocked": count}, "All days unlocked")
}

func (h *Handler) dayParam(c *gin.Context) (int, bool) {
	dayNumber, err := request.PositiveIntParam(c, "dayNumber")
	if err != nil {
		response.AppError(h.logger, c, apperrors.Validation(err.Error(), err))
		return 0, false
	}
	return dayNumber, true
}

func (h *Handler) respondError(c *gin.Context, err error) {
	response.AppError(h.logger, c, catalog.AppError(err))
}
