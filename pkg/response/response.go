package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/training-portal/pkg/apperrors"
)

// Envelope represents the standard API response shape.
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Pagination interface{} `json:"pagination,omitempty"`
	Error      interface{} `json:"error,omitempty"`
}

// ErrorBody is the machine readable part of an error response.
type ErrorBody struct {
	Code      string            `json:"code"`
	Retryable bool              `json:"retryable,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Success writes a success response with optional message and data.
func Success(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Paginated writes one page of a list along with its pagination metadata.
func Paginated(c *gin.Context, data interface{}, pagination interface{}) {
	c.JSON(http.StatusOK, Envelope{
		Success:    true,
		Data:       data,
		Pagination: pagination,
	})
}

// Created is a convenience helper for POST 201 responses.
func Created(c *gin.Context, data interface{}, message string) {
	Success(c, http.StatusCreated, data, message)
}

// Error writes an error response. Internal error details never reach the client.
func Error(c *gin.Context, status int, message string, err error) {
	body := ErrorBody{Code: codeFor(status)}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		body.Code = string(appErr.Code())
		body.Retryable = appErr.Retryable()
		body.Fields = appErr.Fields()
	} else if status == http.StatusServiceUnavailable || status == http.StatusConflict {
		body.Retryable = true
	}

	c.JSON(status, Envelope{
		Success: false,
		Message: message,
		Error:   body,
	})
}

// ErrorWithLog writes an error response and logs the error via slog.
// Client errors are logged at warn level, server errors at error level.
func ErrorWithLog(logger *slog.Logger, c *gin.Context, status int, message string, err error) {
	if logger != nil && err != nil {
		level := slog.LevelError
		if status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, message,
			slog.Int("status", status),
			slog.String("path", c.Request.URL.Path),
			slog.String("error", err.Error()),
		)
	}

	Error(c, status, message, err)
}

// AppError writes an apperrors.AppError using its own status and message.
func AppError(logger *slog.Logger, c *gin.Context, err *apperrors.AppError) {
	ErrorWithLog(logger, c, err.StatusCode(), err.Message(), err)
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(apperrors.ErrValidation)
	case http.StatusUnauthorized:
		return string(apperrors.ErrUnauthorized)
	case http.StatusForbidden:
		return string(apperrors.ErrForbidden)
	case http.StatusNotFound:
		return string(apperrors.ErrNotFound)
	case http.StatusConflict:
		return string(apperrors.ErrConflict)
	case http.StatusRequestEntityTooLarge:
		return string(apperrors.ErrValidation)
	case http.StatusTooManyRequests:
		return string(apperrors.ErrTooMany)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return string(apperrors.ErrUnavailable)
	}
	return string(apperrors.ErrInternal)
}
