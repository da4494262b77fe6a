package adminaction

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/training-portal/pkg/response"
)

// Lister reads the audit log.
type Lister interface {
	List(ctx context.Context, filters ListFilters) ([]AdminAction, error)
}

// Handler serves the audit log.
type Handler struct {
	store  Lister
	logger *slog.Logger
}

// NewHandler constructs an audit log handler.
func NewHandler(store Lister, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// List returns recent admin actions.
func (h *Handler) List(c *gin.Context) {
	filters := ListFilters{ActionType: c.Query("actionType")}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "limit must be a number", err)
			return
		}
		filters.Limit = limit
	}
	if raw := c.Query("dayNumber"); raw != "" {
		day, err := strconv.Atoi(raw)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "dayNumber must be a number", err)
			return
		}
		filters.DayNumber = &day
	}

	actions, err := h.store.List(c.Request.Context(), filters)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list admin actions", err)
		return
	}

	response.Success(c, http.StatusOK, actions, "")
}
