package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/mo-amir99/training-portal/internal/content"
	"github.com/mo-amir99/training-portal/internal/features/adminaction"
	"github.com/mo-amir99/training-portal/internal/utils/jwt"
	"github.com/mo-amir99/training-portal/pkg/cache"
	"github.com/mo-amir99/training-portal/pkg/metrics"
	"github.com/mo-amir99/training-portal/pkg/socketio"
	"github.com/mo-amir99/training-portal/pkg/types"
)

const (
	keyDays       = "catalog:days"
	keyRecordings = "catalog:recordings"

	defaultTTL = 30 * time.Second
)

// ErrStoreUnavailable is returned when the document store cannot be read.
var ErrStoreUnavailable = errors.New("content store unavailable")

// Auditor records admin mutations.
type Auditor interface {
	Record(ctx context.Context, action adminaction.AdminAction) error
}

// Notifier pushes content changes to connected clients.
type Notifier interface {
	Broadcast(event string, payload any)
}

// UserCounter reports portal user totals for the dashboard.
type UserCounter interface {
	CountUsers(ctx context.Context) (total, activeStudents int64, err error)
}

// Actor identifies who performed a mutation.
type Actor struct {
	Name      string
	UserID    *uuid.UUID
	SessionID *uuid.UUID
}

// ActorFromClaims derives the actor of a session. Sessions issued from the shared
// admin secret carry no user and are recorded as "admin".
func ActorFromClaims(claims *jwt.Claims) Actor {
	if claims == nil {
		return Actor{Name: "admin"}
	}
	actor := Actor{Name: "admin", UserID: claims.UserID}
	if claims.UserID != nil && claims.Subject != "" {
		actor.Name = claims.Subject
	}
	if sid := claims.SessionID(); sid != uuid.Nil {
		actor.SessionID = &sid
	}
	return actor
}

// DayView is a training day with its recording attached, if any.
type DayView struct {
	content.TrainingDay
	Recording *content.Recording `json:"recording"`
}

// DashboardStats extends content stats with portal user counts.
type DashboardStats struct {
	content.Stats
	TotalUsers     int64 `json:"totalUsers"`
	ActiveStudents int64 `json:"activeStudents"`
}

// Config tunes the service.
type Config struct {
	CacheTTL time.Duration
}

// Service orchestrates content reads and writes for the API surfaces.
type Service struct {
	content  *content.Client
	cache    cache.Client
	audit    Auditor
	notifier Notifier
	users    UserCounter
	logger   *slog.Logger
	ttl      time.Duration
	group    singleflight.Group

	// generations counts writes per cache key. A load only populates the
	// cache if no write landed while it was running.
	generations map[string]*atomic.Uint64
}

// NewService wires the catalog service. audit, notifier and users may be nil.
func NewService(cfg Config, client *content.Client, c cache.Client, audit Auditor, notifier Notifier, users UserCounter, logger *slog.Logger) *Service {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Service{
		content:  client,
		cache:    c,
		audit:    audit,
		notifier: notifier,
		users:    users,
		logger:   logger,
		ttl:      ttl,
		generations: map[string]*atomic.Uint64{
			keyDays:       new(atomic.Uint64),
			keyRecordings: new(atomic.Uint64),
		},
	}
}

// ---------- Reads ----------

// Days returns every training day.
func (s *Service) Days(ctx context.Context) ([]content.TrainingDay, error) {
	var days []content.TrainingDay
	err := s.cached(ctx, keyDays, &days, func(ctx context.Context) (any, error) {
		return s.content.LoadDays(ctx)
	})
	return days, err
}

// UnlockedDays returns only the unlocked days.
func (s *Service) UnlockedDays(ctx context.Context) ([]content.TrainingDay, error) {
	days, err := s.Days(ctx)
	if err != nil {
		return nil, err
	}
	return content.UnlockedDays(days), nil
}

// Day returns one day with its recording.
func (s *Service) Day(ctx context.Context, dayNumber int) (DayView, error) {
	if dayNumber <= 0 {
		return DayView{}, content.ErrInvalidDayNumber
	}
	days, err := s.Days(ctx)
	if err != nil {
		return DayView{}, err
	}
	day, ok := content.FindDay(days, dayNumber)
	if !ok {
		return DayView{}, content.ErrDayNotFound
	}

	view := DayView{TrainingDay: day}
	recs, err := s.Recordings(ctx)
	if err != nil {
		return DayView{}, err
	}
	if rec, ok := content.RecordingForDay(recs, dayNumber); ok {
		view.Recording = &rec
	}
	return view, nil
}

// IsDayUnlocked reports whether a day exists and is unlocked.
func (s *Service) IsDayUnlocked(ctx context.Context, dayNumber int) (bool, error) {
	days, err := s.Days(ctx)
	if err != nil {
		return false, err
	}
	day, ok := content.FindDay(days, dayNumber)
	if !ok {
		return false, content.ErrDayNotFound
	}
	return day.IsUnlocked, nil
}

// Recordings returns every recording.
func (s *Service) Recordings(ctx context.Context) ([]content.Recording, error) {
	var recs []content.Recording
	err := s.cached(ctx, keyRecordings, &recs, func(ctx context.Context) (any, error) {
		return s.content.LoadRecordings(ctx)
	})
	return recs, err
}

// Recording returns the recording for a day.
func (s *Service) Recording(ctx context.Context, dayNumber int) (content.Recording, error) {
	if dayNumber <= 0 {
		return content.Recording{}, content.ErrInvalidDayNumber
	}
	recs, err := s.Recordings(ctx)
	if err != nil {
		return content.Recording{}, err
	}
	rec, ok := content.RecordingForDay(recs, dayNumber)
	if !ok {
		return content.Recording{}, content.ErrRecordingNotFound
	}
	return rec, nil
}

// Stats reads both collections directly and adds user counts when available.
func (s *Service) Stats(ctx context.Context) (DashboardStats, error) {
	stats, err := s.content.GetStats(ctx)
	if err != nil {
		return DashboardStats{}, s.storeError(err)
	}

	out := DashboardStats{Stats: stats}
	if s.users != nil {
		total, active, err := s.users.CountUsers(ctx)
		if err != nil {
			return DashboardStats{}, fmt.Errorf("count users: %w", err)
		}
		out.TotalUsers = total
		out.ActiveStudents = active
	}
	return out, nil
}

// ---------- Writes ----------

// UnlockDay unlocks a day.
func (s *Service) UnlockDay(ctx context.Context, dayNumber int, actor Actor) (content.TrainingDay, error) {
	day, err := s.content.UnlockDay(ctx, dayNumber, actor.Name)
	if err != nil {
		return content.TrainingDay{}, err
	}
	s.afterWrite(ctx, keyDays, actor, adminaction.TypeUnlockDay, &dayNumber, nil)
	s.notify(socketio.EventDayUnlocked, day)
	return day, nil
}

// LockDay locks a day.
func (s *Service) LockDay(ctx context.Context, dayNumber int, actor Actor) (content.TrainingDay, error) {
	day, err := s.content.LockDay(ctx, dayNumber)
	if err != nil {
		return content.TrainingDay{}, err
	}
	s.afterWrite(ctx, keyDays, actor, adminaction.TypeLockDay, &dayNumber, nil)
	s.notify(socketio.EventDayLocked, day)
	return day, nil
}

// UnlockAllDays unlocks every day and returns how many there are.
func (s *Service) UnlockAllDays(ctx context.Context, actor Actor) (int, error) {
	count, err := s.content.UnlockAllDays(ctx, actor.Name)
	if err != nil {
		return 0, err
	}
	s.afterWrite(ctx, keyDays, actor, adminaction.TypeUnlockAllDays, nil, map[string]any{"count": count})
	s.notify(socketio.EventAllDaysUnlocked, map[string]any{"count": count})
	return count, nil
}

// UploadRecording replaces the recording of a day.
func (s *Service) UploadRecording(ctx context.Context, in content.UploadInput, actor Actor) (content.Recording, error) {
	in.Actor = actor.Name
	rec, err := s.content.UploadRecording(ctx, in)
	if err != nil {
		return content.Recording{}, err
	}
	s.afterWrite(ctx, keyRecordings, actor, adminaction.TypeUploadRecording, &rec.DayNumber, map[string]any{
		"recordingId": rec.RecordingID,
		"title":       rec.Title,
		"platform":    rec.Platform,
	})
	s.notify(socketio.EventRecordingAdded, rec)
	return rec, nil
}

// RemoveRecording deletes the recordings of a day. Removing nothing is not an error.
func (s *Service) RemoveRecording(ctx context.Context, dayNumber int, actor Actor) (int, error) {
	removed, err := s.content.RemoveRecording(ctx, dayNumber)
	if err != nil {
		return 0, err
	}
	if removed == 0 {
		return 0, nil
	}
	s.afterWrite(ctx, keyRecordings, actor, adminaction.TypeRemoveRecording, &dayNumber, map[string]any{"removed": removed})
	s.notify(socketio.EventRecordingRemoved, map[string]any{"dayNumber": dayNumber})
	return removed, nil
}

// RemoveRecordingByID deletes one recording by id.
func (s *Service) RemoveRecordingByID(ctx context.Context, recordingID string, actor Actor) (content.Recording, error) {
	rec, err := s.content.RemoveRecordingByID(ctx, recordingID)
	if err != nil {
		return content.Recording{}, err
	}
	s.afterWrite(ctx, keyRecordings, actor, adminaction.TypeRemoveRecording, &rec.DayNumber, map[string]any{"recordingId": rec.RecordingID})
	s.notify(socketio.EventRecordingRemoved, map[string]any{"dayNumber": rec.DayNumber, "recordingId": rec.RecordingID})
	return rec, nil
}

// ---------- Internals ----------

func (s *Service) cached(ctx context.Context, key string, dest any, load func(context.Context) (any, error)) error {
	if s.cache != nil {
		if err := cache.GetJSON(ctx, s.cache, key, dest); err == nil {
			metrics.RecordCacheLookup(true)
			return nil
		} else if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		metrics.RecordCacheLookup(false)
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		// Shared by every waiter, so one caller's cancellation must not fail the rest.
		ctx := context.WithoutCancel(ctx)
		gen := s.generations[key]
		start := gen.Load()

		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if s.cache != nil && gen.Load() == start {
			if err := cache.SetJSON(ctx, s.cache, key, value, s.ttl); err != nil {
				s.logger.Warn("cache write failed", slog.String("key", key), slog.String("error", err.Error()))
			}
			// A write may have invalidated between the check and the set.
			if gen.Load() != start {
				s.invalidate(ctx, key)
			}
		}
		return value, nil
	})
	if err != nil {
		return s.storeError(err)
	}

	switch d := dest.(type) {
	case *[]content.TrainingDay:
		*d = append((*d)[:0], v.([]content.TrainingDay)...)
	case *[]content.Recording:
		*d = append((*d)[:0], v.([]content.Recording)...)
	default:
		return fmt.Errorf("catalog: unsupported cache destination %T", dest)
	}
	return nil
}

// storeError marks a failed read so the API answers 503 instead of serving defaults.
func (s *Service) storeError(err error) error {
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func (s *Service) afterWrite(ctx context.Context, key string, actor Actor, actionType string, dayNumber *int, meta map[string]any) {
	s.generations[key].Add(1)
	s.group.Forget(key)
	s.invalidate(ctx, key)

	if s.audit == nil {
		return
	}
	action := adminaction.AdminAction{
		SessionID:  actor.SessionID,
		AdminID:    actor.UserID,
		Actor:      actor.Name,
		ActionType: actionType,
		DayNumber:  dayNumber,
	}
	if meta != nil {
		if data, err := types.NewJSON(meta); err == nil {
			action.Metadata = data
		}
	}
	if err := s.audit.Record(ctx, action); err != nil {
		s.logger.Error("failed to record admin action", slog.String("type", actionType), slog.String("error", err.Error()))
	}
}

func (s *Service) invalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn("cache invalidation failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (s *Service) notify(event string, payload any) {
	if s.notifier != nil {
		s.notifier.Broadcast(event, payload)
	}
}
