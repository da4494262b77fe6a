package graphql

import (
	"context"
	"errors"
	"net/http"
	"strings"

	gql "github.com/graphql-go/graphql"

	"github.com/mo-amir99/training-portal/internal/content"
	"github.com/mo-amir99/training-portal/internal/features/progress"
	"github.com/mo-amir99/training-portal/internal/middleware"
	"github.com/mo-amir99/training-portal/internal/services/catalog"
	"github.com/mo-amir99/training-portal/internal/utils/jwt"
	"github.com/mo-amir99/training-portal/pkg/apperrors"
	"github.com/mo-amir99/training-portal/pkg/request"
	"github.com/mo-amir99/training-portal/pkg/types"
)

type claimsCtxKey struct{}

// WithClaims attaches the caller's session to ctx.
func WithClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey{}, claims)
}

func claimsFrom(ctx context.Context) *jwt.Claims {
	claims, _ := ctx.Value(claimsCtxKey{}).(*jwt.Claims)
	return claims
}

// Resolver answers GraphQL fields from the catalog and progress services.
type Resolver struct {
	catalog  *catalog.Service
	progress *progress.Service
	auth     middleware.Authenticator
}

// NewResolver wires a resolver.
func NewResolver(svc *catalog.Service, prog *progress.Service, auth middleware.Authenticator) *Resolver {
	return &Resolver{catalog: svc, progress: prog, auth: auth}
}

// ---------- Queries ----------

func (r *Resolver) trainingDays(p gql.ResolveParams) (interface{}, error) {
	days, err := r.catalog.Days(p.Context)
	if err != nil {
		return nil, toGraphQLError(catalog.AppError(err))
	}
	return dayList(days), nil
}

func (r *Resolver) trainingDay(p gql.ResolveParams) (interface{}, error) {
	dayNumber, err := request.ReadInt(p.Args["dayNumber"])
	if err != nil {
		return nil, toGraphQLError(apperrors.Validation("dayNumber must be an integer", err))
	}

	view, err := r.catalog.Day(p.Context, dayNumber)
	if err != nil {
		if content.Classify(err) == content.OutcomeNotFound {
			return nil, nil
		}
		return nil, toGraphQLError(catalog.AppError(err))
	}

	out := dayMap(view.TrainingDay)
	if view.Recording != nil {
		out["recording"] = recordingMap(*view.Recording)
	}
	return out, nil
}

func (r *Resolver) unlockedDays(p gql.ResolveParams) (interface{}, error) {
	days, err := r.catalog.UnlockedDays(p.Context)
	if err != nil {
		return nil, toGraphQLError(catalog.AppError(err))
	}
	return dayList(days), nil
}

func (r *Resolver) recordings(p gql.ResolveParams) (interface{}, error) {
	recs, err := r.catalog.Recordings(p.Context)
	if err != nil {
		return nil, toGraphQLError(catalog.AppError(err))
	}
	out := make([]map[string]interface{}, 0, len(recs))
	for _, rec := range recs {
		out = append(out, recordingMap(rec))
	}
	return out, nil
}

func (r *Resolver) userProgress(p gql.ResolveParams) (interface{}, error) {
	claims, err := r.session(p.Context, "", types.CapProgressWrite)
	if err != nil {
		return nil, err
	}

	raw, _ := request.ReadOptionalString(p.Args["userId"])
	userID, err := progress.ResolveUser(claims, raw)
	if err != nil {
		return nil, toGraphQLError(progressAppError(err))
	}
	if err := progress.Authorize(claims, userID); err != nil {
		return nil, toGraphQLError(progressAppError(err))
	}

	rows, err := r.progress.ForUser(p.Context, userID)
	if err != nil {
		return nil, toGraphQLError(progressAppError(err))
	}
	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		out = append(out, progressMap(row))
	}
	return out, nil
}

func (r *Resolver) dashboardStats(p gql.ResolveParams) (interface{}, error) {
	token, _ := request.ReadOptionalString(p.Args["adminToken"])
	if _, err := r.session(p.Context, token, types.CapStatsRead); err != nil {
		return nil, err
	}

	stats, err := r.catalog.Stats(p.Context)
	if err != nil {
		return nil, toGraphQLError(catalog.AppError(err))
	}
	return map[string]interface{}{
		"totalDays":           stats.TotalDays,
		"unlockedDays":        stats.UnlockedDays,
		"lockedDays":          stats.LockedDays,
		"recordingsAvailable": stats.RecordingsAvailable,
		"totalUsers":          stats.TotalUsers,
		"activeStudents":      stats.ActiveStudents,
		"lastUpdated":         stats.LastUpdated.String(),
	}, nil
}

// ---------- Mutations ----------

func (r *Resolver) unlockDay(p gql.ResolveParams) (interface{}, error) {
	input, _ := p.Args["input"].(map[string]interface{})
	dayNumber, err := request.ReadInt(input["dayNumber"])
	if err != nil {
		return nil, toGraphQLError(apperrors.Validation("dayNumber must be an integer", err))
	}
	token, _ := request.ReadOptionalString(input["adminToken"])

	claims, err := r.session(p.Context, token, types.CapDaysWrite)
	if err != nil {
		return nil, err
	}

	day, err := r.catalog.UnlockDay(p.Context, dayNumber, catalog.ActorFromClaims(claims))
	if err != nil {
		return nil, toGraphQLError(catalog.AppError(err))
	}
	return dayMap(day), nil
}

func (r *Resolver) lockDay(p gql.ResolveParams) (interface{}, error) {
	dayNumber, err := request.ReadInt(p.Args["dayNumber"])
	if err != nil {
		return nil, toGraphQLError(apperrors.Validation("dayNumber must be an integer", err))
	}
	token, _ := request.ReadOptionalString(p.Args["adminToken"])

	claims, err := r.session(p.Context, token, types.CapDaysWrite)
	if err != nil {
		return nil, err
	}

	day, err := r.catalog.LockDay(p.Context, dayNumber, catalog.ActorFromClaims(claims))
	if err != nil {
		return nil, toGraphQLError(catalog.AppError(err))
	}
	return dayMap(day), nil
}

func (r *Resolver) uploadRecording(p gql.ResolveParams) (interface{}, error) {
	input, _ := p.Args["input"].(map[string]interface{})
	token, _ := request.ReadOptionalString(input["adminToken"])

	claims, err := r.session(p.Context, token, types.CapRecordingsWrite)
	if err != nil {
		return nil, err
	}

	dayNumber, err := request.ReadInt(input["dayNumber"])
	if err != nil {
		return nil, toGraphQLError(apperrors.Validation("dayNumber must be an integer", err))
	}
	title, _ := request.ReadOptionalString(input["title"])
	videoURL, _ := request.ReadOptionalString(input["videoUrl"])
	duration, _ := request.ReadOptionalString(input["duration"])
	platform, _ := request.ReadOptionalString(input["platform"])

	rec, err := r.catalog.UploadRecording(p.Context, content.UploadInput{
		DayNumber: dayNumber,
		Title:     title,
		VideoURL:  videoURL,
		Duration:  duration,
		Platform:  content.Platform(platform),
	}, catalog.ActorFromClaims(claims))
	if err != nil {
		return nil, toGraphQLError(catalog.AppError(err))
	}
	return recordingMap(rec), nil
}

func (r *Resolver) removeRecording(p gql.ResolveParams) (interface{}, error) {
	recordingID, err := request.ReadString(p.Args["recordingId"])
	if err != nil {
		return nil, toGraphQLError(apperrors.Validation("recordingId is required", err))
	}
	token, _ := request.ReadOptionalString(p.Args["adminToken"])

	claims, err := r.session(p.Context, token, types.CapRecordingsWrite)
	if err != nil {
		return nil, err
	}

	rec, err := r.catalog.RemoveRecordingByID(p.Context, recordingID, catalog.ActorFromClaims(claims))
	if err != nil {
		return nil, toGraphQLError(catalog.AppError(err))
	}
	return map[string]interface{}{
		"success":     true,
		"recordingId": rec.RecordingID,
		"dayNumber":   rec.DayNumber,
	}, nil
}

func (r *Resolver) markContentViewed(p gql.ResolveParams) (interface{}, error) {
	claims, err := r.session(p.Context, "", types.CapProgressWrite)
	if err != nil {
		return nil, err
	}

	input, _ := p.Args["input"].(map[string]interface{})
	dayNumber, err := request.ReadInt(input["dayNumber"])
	if err != nil {
		return nil, toGraphQLError(apperrors.Validation("dayNumber must be an integer", err))
	}
	contentType, _ := request.ReadOptionalString(input["contentType"])
	raw, _ := request.ReadOptionalString(input["userId"])

	userID, err := progress.ResolveUser(claims, raw)
	if err != nil {
		return nil, toGraphQLError(progressAppError(err))
	}
	if err := progress.Authorize(claims, userID); err != nil {
		return nil, toGraphQLError(progressAppError(err))
	}

	row, err := r.progress.MarkViewed(p.Context, userID, dayNumber, types.ContentType(contentType))
	if err != nil {
		return nil, toGraphQLError(progressAppError(err))
	}
	return progressMap(row), nil
}

// ---------- Helpers ----------

// session resolves the caller from an explicit token argument, or from the
// Authorization header when the argument is empty, and checks a capability.
func (r *Resolver) session(ctx context.Context, token string, want types.Capability) (*jwt.Claims, error) {
	claims := claimsFrom(ctx)

	if token = strings.TrimSpace(token); token != "" {
		verified, err := r.auth.Authenticate(ctx, token)
		if err != nil {
			return nil, toGraphQLError(apperrors.Unauthorized("Invalid or expired admin token", err))
		}
		claims = verified
	}

	if claims == nil {
		return nil, toGraphQLError(apperrors.Unauthorized("Authentication required", nil))
	}
	if !claims.Has(want) {
		return nil, toGraphQLError(apperrors.New("Access denied: missing capability "+string(want), http.StatusForbidden, apperrors.ErrForbidden, nil))
	}
	return claims, nil
}

func progressAppError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, progress.ErrUserRequired), errors.Is(err, progress.ErrInvalidContentType):
		return apperrors.Validation(err.Error(), err)
	case errors.Is(err, progress.ErrForbidden):
		return apperrors.New("Cannot access another user's progress", http.StatusForbidden, apperrors.ErrForbidden, err)
	case errors.Is(err, progress.ErrDayLocked):
		return apperrors.New("Training day is locked", http.StatusConflict, apperrors.ErrConflict, err)
	}
	return catalog.AppError(err)
}

func dayList(days []content.TrainingDay) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(days))
	for _, d := range days {
		out = append(out, dayMap(d))
	}
	return out
}

func dayMap(d content.TrainingDay) map[string]interface{} {
	out := map[string]interface{}{
		"dayNumber":  d.DayNumber,
		"title":      d.Title,
		"isUnlocked": d.IsUnlocked,
		"unlockedAt": nil,
		"unlockedBy": nil,
		"recording":  nil,
	}
	if d.UnlockedAt != nil {
		out["unlockedAt"] = d.UnlockedAt.String()
	}
	if d.UnlockedBy != nil {
		out["unlockedBy"] = *d.UnlockedBy
	}
	return out
}

func recordingMap(r content.Recording) map[string]interface{} {
	return map[string]interface{}{
		"recordingId": r.RecordingID,
		"dayNumber":   r.DayNumber,
		"title":       r.Title,
		"videoUrl":    r.VideoURL,
		"embedUrl":    r.EmbedURL,
		"platform":    string(r.Platform),
		"duration":    r.Duration,
		"uploadedAt":  r.UploadedAt.String(),
		"uploadedBy":  r.UploadedBy,
		"viewCount":   r.ViewCount,
		"isActive":    r.IsActive,
	}
}

func progressMap(p progress.UserProgress) map[string]interface{} {
	return map[string]interface{}{
		"progressId":           p.ID.String(),
		"userId":               p.UserID.String(),
		"dayNumber":            p.DayNumber,
		"viewedPresentation":   p.ViewedPresentation,
		"viewedRecording":      p.ViewedRecording,
		"completionPercentage": p.CompletionPercentage.Float64(),
		"lastAccessed":         content.NewTimestamp(p.LastAccessed).String(),
	}
}
