package request

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mo-amir99/training-portal/pkg/apperrors"
	"github.com/mo-amir99/training-portal/pkg/response"
)

// Classifier maps a domain error to a coded AppError. It returns nil for
// errors it does not recognise.
type Classifier func(error) *apperrors.AppError

// Handler renders errors attached with c.Error when the handler itself wrote
// nothing. Classifiers are consulted in order before the built-in rules.
func Handler(logger *slog.Logger, classifiers ...Classifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		var errs []error
		for _, item := range c.Errors {
			if item != nil && item.Err != nil {
				errs = append(errs, item.Err)
			}
		}
		err := errors.Join(errs...)
		if err == nil {
			return
		}

		response.AppError(logger, c, resolve(err, classifiers))
	}
}

func resolve(err error, classifiers []Classifier) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, classify := range classifiers {
		if mapped := classify(err); mapped != nil {
			return mapped
		}
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NotFound("Resource not found", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.New("Request timed out", http.StatusGatewayTimeout, apperrors.ErrUnavailable, err)
	}
	return apperrors.New("Internal server error", http.StatusInternalServerError, apperrors.ErrInternal, err)
}
