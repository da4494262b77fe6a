package user

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mo-amir99/training-portal/internal/middleware"
	"github.com/mo-amir99/training-portal/pkg/pagination"
	"github.com/mo-amir99/training-portal/pkg/response"
	"github.com/mo-amir99/training-portal/pkg/types"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+$`)

// Handler processes user HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a user handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// List returns users matching the optional keyword and role filters.
func (h *Handler) List(c *gin.Context) {
	filters := ListFilters{Keyword: c.Query("filterKeyword")}
	if raw := c.Query("userType"); raw != "" {
		userType, err := types.ParseUserType(raw)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user type", err)
			return
		}
		filters.UserType = userType
	}

	page := pagination.Extract(c)
	users, total, err := List(h.db.WithContext(c.Request.Context()), filters, page)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list users", err)
		return
	}

	response.Paginated(c, users, pagination.MetadataFrom(total, page))
}

type createRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	UserType string `json:"userType"`
	Active   *bool  `json:"isActive"`
}

// Create inserts a new user.
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user payload", err)
		return
	}

	if !emailRegex.MatchString(req.Email) {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid email format", fmt.Errorf("email must be in valid format"))
		return
	}

	userType := types.UserTypeStudent
	if req.UserType != "" {
		parsed, err := types.ParseUserType(req.UserType)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user type", err)
			return
		}
		userType = parsed
	}

	user, err := Create(h.db.WithContext(c.Request.Context()), CreateInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		UserType: userType,
		Active:   req.Active,
	})
	if err != nil {
		h.respondError(c, err, "failed to create user")
		return
	}

	h.logger.Info("user created", slog.String("userId", user.ID.String()), slog.String("userType", string(user.UserType)))
	response.Created(c, user, "")
}

// Me returns the caller's own profile.
func (h *Handler) Me(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok || claims.UserID == nil {
		response.ErrorWithLog(h.logger, c, http.StatusNotFound, "session is not bound to a user", nil)
		return
	}

	user, err := Get(h.db.WithContext(c.Request.Context()), *claims.UserID)
	if err != nil {
		h.respondError(c, err, "failed to load user")
		return
	}
	response.Success(c, http.StatusOK, user, "")
}

// GetByID fetches a single user.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := h.userIDParam(c)
	if !ok {
		return
	}

	user, err := Get(h.db.WithContext(c.Request.Context()), id)
	if err != nil {
		h.respondError(c, err, "failed to load user")
		return
	}
	response.Success(c, http.StatusOK, user, "")
}

type updateRequest struct {
	FullName *string `json:"fullName"`
	Password *string `json:"password"`
	UserType *string `json:"userType"`
	Active   *bool   `json:"isActive"`
}

// Update modifies an existing user.
func (h *Handler) Update(c *gin.Context) {
	id, ok := h.userIDParam(c)
	if !ok {
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user payload", err)
		return
	}

	input := UpdateInput{FullName: req.FullName, Password: req.Password, Active: req.Active}
	if req.UserType != nil {
		parsed, err := types.ParseUserType(*req.UserType)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user type", err)
			return
		}
		input.UserType = &parsed
	}

	user, err := Update(h.db.WithContext(c.Request.Context()), id, input)
	if err != nil {
		h.respondError(c, err, "failed to update user")
		return
	}
	response.Success(c, http.StatusOK, user, "User updated")
}

// Delete removes a user. Admins cannot delete themselves.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := h.userIDParam(c)
	if !ok {
		return
	}

	if claims, ok := middleware.ClaimsFromContext(c); ok && claims.UserID != nil && *claims.UserID == id {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "You cannot delete your own account", nil)
		return
	}

	if err := Delete(h.db.WithContext(c.Request.Context()), id); err != nil {
		h.respondError(c, err, "failed to delete user")
		return
	}
	response.Success(c, http.StatusOK, true, "User deleted")
}

func (h *Handler) userIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user id", err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, ErrUserNotFound):
		status = http.StatusNotFound
		message = "User not found"
	case errors.Is(err, ErrEmailTaken):
		status = http.StatusConflict
		message = "Email already exists"
	case errors.Is(err, ErrInvalidPassword):
		status = http.StatusBadRequest
		message = ErrInvalidPassword.Error()
	}

	response.ErrorWithLog(h.logger, c, status, message, err)
}
