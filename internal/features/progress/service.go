package progress

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mo-amir99/training-portal/internal/utils/jwt"
	"github.com/mo-amir99/training-portal/pkg/socketio"
	"github.com/mo-amir99/training-portal/pkg/types"
)

// DayChecker reports whether a training day is open to students.
type DayChecker interface {
	IsDayUnlocked(ctx context.Context, dayNumber int) (bool, error)
}

// Notifier pushes events to one user's connections.
type Notifier interface {
	EmitToUser(userID, event string, payload any)
}

// Service records viewed content.
type Service struct {
	repo     Repository
	days     DayChecker
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds a progress service. notifier may be nil.
func NewService(repo Repository, days DayChecker, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		days:     days,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// MarkViewed flags one content type of an unlocked day as viewed and returns the
// updated row. Marking the same content twice leaves the percentage unchanged.
func (s *Service) MarkViewed(ctx context.Context, userID uuid.UUID, dayNumber int, contentType types.ContentType) (UserProgress, error) {
	if userID == uuid.Nil {
		return UserProgress{}, ErrUserRequired
	}
	contentType, err := types.ParseContentType(string(contentType))
	if err != nil {
		return UserProgress{}, ErrInvalidContentType
	}

	unlocked, err := s.days.IsDayUnlocked(ctx, dayNumber)
	if err != nil {
		return UserProgress{}, err
	}
	if !unlocked {
		return UserProgress{}, ErrDayLocked
	}

	p := UserProgress{UserID: userID, DayNumber: dayNumber}
	switch contentType {
	case types.ContentTypePresentation:
		p.ViewedPresentation = true
	case types.ContentTypeRecording:
		p.ViewedRecording = true
	}
	p.Recompute()
	p.LastAccessed = s.now().UTC()

	if err := s.repo.Merge(ctx, &p); err != nil {
		return UserProgress{}, fmt.Errorf("save progress: %w", err)
	}

	s.logger.Info("content viewed",
		slog.String("userId", userID.String()),
		slog.Int("day", dayNumber),
		slog.String("contentType", string(contentType)),
		slog.String("completion", p.CompletionPercentage.String()),
	)

	if s.notifier != nil {
		s.notifier.EmitToUser(userID.String(), socketio.EventProgressUpdated, p)
	}
	return p, nil
}

// ForUser lists a user's progress rows.
func (s *Service) ForUser(ctx context.Context, userID uuid.UUID) ([]UserProgress, error) {
	if userID == uuid.Nil {
		return nil, ErrUserRequired
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return rows, nil
}

// Authorize allows admins to act on anyone and other sessions only on themselves.
func Authorize(claims *jwt.Claims, userID uuid.UUID) error {
	if claims == nil {
		return ErrForbidden
	}
	if claims.Role == types.UserTypeAdmin {
		return nil
	}
	if claims.UserID != nil && *claims.UserID == userID {
		return nil
	}
	return ErrForbidden
}

// ResolveUser picks the target user of a request: the explicit id when given,
// otherwise the session's own user.
func ResolveUser(claims *jwt.Claims, raw string) (uuid.UUID, error) {
	if raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%w: %v", ErrUserRequired, err)
		}
		return id, nil
	}
	if claims != nil && claims.UserID != nil {
		return *claims.UserID, nil
	}
	return uuid.Nil, ErrUserRequired
}
