package catalog

import (
	"errors"
	"net/http"

	"github.com/mo-amir99/training-portal/internal/content"
	"github.com/mo-amir99/training-portal/internal/onelake"
	"github.com/mo-amir99/training-portal/pkg/apperrors"
)

// AppError translates content and store failures into coded errors shared by
// the REST and GraphQL layers.
func AppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if mapped := Classify(err); mapped != nil {
		return mapped
	}
	return apperrors.New("Internal server error", http.StatusInternalServerError, apperrors.ErrInternal, err)
}

// Classify is AppError without the internal-error fallback; it returns nil
// for errors that did not come from the content layer.
func Classify(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, content.ErrInvalidDayNumber):
		return apperrors.Validation("dayNumber must be a positive integer", err)
	case errors.Is(err, content.ErrInvalidPlatform):
		return apperrors.Validation("platform must be one of youtube, vimeo, azure, direct", err)
	case errors.Is(err, content.ErrTitleRequired):
		return apperrors.Validation("title is required", err)
	case errors.Is(err, content.ErrVideoURLRequired):
		return apperrors.Validation("videoUrl is required", err)
	case errors.Is(err, content.ErrDayNotFound):
		return apperrors.NotFound("Training day not found", err)
	case errors.Is(err, content.ErrRecordingNotFound):
		return apperrors.NotFound("Recording not found", err)
	case errors.Is(err, content.ErrWriteConflict):
		return apperrors.New("Content changed concurrently, please retry", http.StatusConflict, apperrors.ErrConflict, err)
	case errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, onelake.ErrUnavailable),
		errors.Is(err, onelake.ErrUnauthorized),
		errors.Is(err, onelake.ErrNoCredentials):
		return apperrors.Unavailable("Content store unavailable", err)
	case errors.Is(err, content.ErrMalformedDocument):
		return apperrors.New("Stored content is malformed", http.StatusBadGateway, apperrors.ErrUnavailable, err)
	}
	return nil
}
