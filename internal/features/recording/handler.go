package recording

import (
	"net/http"
	"strings"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/training-portal/internal/content"
	"github.com/mo-amir99/training-portal/internal/middleware"
	"github.com/mo-amir99/training-portal/internal/services/catalog"
	"github.com/mo-amir99/training-portal/pkg/apperrors"
	"github.com/mo-amir99/training-portal/pkg/request"
	"github.com/mo-amir99/training-portal/pkg/response"
)

// Handler serves recording endpoints.
type Handler struct {
	catalog *catalog.Service
	logger  *slog.Logger
}

// NewHandler constructs a recording handler.
func NewHandler(svc *catalog.Service, logger *slog.Logger) *Handler {
	return &Handler{catalog: svc, logger: logger}
}

// List returns every recording.
func (h *Handler) List(c *gin.Context) {
	recs, err := h.catalog.Recordings(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.SuccessNoCache(c, http.StatusOK, recs, "")
}

// Get returns the recording of one day.
func (h *Handler) Get(c *gin.Context) {
	dayNumber, ok := h.dayParam(c)
	if !ok {
		return
	}

	rec, err := h.catalog.Recording(c.Request.Context(), dayNumber)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.SuccessNoCache(c, http.StatusOK, rec, "")
}

// Upload replaces the recording of a day.
func (h *Handler) Upload(c *gin.Context) {
	dayNumber, ok := h.dayParam(c)
	if !ok {
		return
	}

	var req struct {
		Title    string `json:"title" binding:"required"`
		VideoURL string `json:"videoUrl" binding:"required"`
		Duration string `json:"duration"`
		Platform string `json:"platform"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.AppError(h.logger, c, apperrors.Validation("title and videoUrl are required", err))
		return
	}

	in := content.UploadInput{
		DayNumber: dayNumber,
		Title:     req.Title,
		VideoURL:  req.VideoURL,
		Duration:  strings.TrimSpace(req.Duration),
	}
	if req.Platform != "" {
		platform, err := content.ParsePlatform(req.Platform)
		if err != nil {
			h.respondError(c, err)
			return
		}
		in.Platform = platform
	}

	claims, _ := middleware.ClaimsFromContext(c)
	rec, err := h.catalog.UploadRecording(c.Request.Context(), in, catalog.ActorFromClaims(claims))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Created(c, rec, "Recording uploaded")
}

// Remove deletes the recording of a day.
func (h *Handler) Remove(c *gin.Context) {
	dayNumber, ok := h.dayParam(c)
	if !ok {
		return
	}

	claims, _ := middleware.ClaimsFromContext(c)
	removed, err := h.catalog.RemoveRecording(c.Request.Context(), dayNumber, catalog.ActorFromClaims(claims))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": removed}, "Recording removed")
}

// RemoveByID deletes one recording by id.
func (h *Handler) RemoveByID(c *gin.Context) {
	recordingID := strings.TrimSpace(c.Param("recordingId"))
	if recordingID == "" {
		response.AppError(h.logger, c, apperrors.Validation("recordingId is required", nil))
		return
	}

	claims, _ := middleware.ClaimsFromContext(c)
	rec, err := h.catalog.RemoveRecordingByID(c.Request.Context(), recordingID, catalog.ActorFromClaims(claims))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, rec, "Recording removed")
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
