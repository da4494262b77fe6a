package progress

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mo-amir99/training-portal/pkg/types"
)

// UserProgress tracks what a user has viewed on one training day.
type UserProgress struct {
	ID                   uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"progressId"`
	UserID               uuid.UUID     `gorm:"type:uuid;not null;column:user_id;uniqueIndex:idx_progress_user_day" json:"userId"`
	DayNumber            int           `gorm:"not null;column:day_number;uniqueIndex:idx_progress_user_day" json:"dayNumber"`
	ViewedPresentation   bool          `gorm:"not null;default:false;column:viewed_presentation" json:"viewedPresentation"`
	ViewedRecording      bool          `gorm:"not null;default:false;column:viewed_recording" json:"viewedRecording"`
	CompletionPercentage types.Percent `gorm:"type:numeric(5,2);not null;default:0;column:completion_percentage" json:"completionPercentage"`
	LastAccessed         time.Time     `gorm:"not null;column:last_accessed" json:"lastAccessed"`
	CreatedAt            time.Time     `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt            time.Time     `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName overrides the default table name.
func (UserProgress) TableName() string { return "user_progress" }

// Recompute derives the completion percentage from the viewed flags.
func (p *UserProgress) Recompute() {
	total := types.NewPercent(0)
	if p.ViewedPresentation {
		total = total.Add(types.NewPercent(percentPerContent))
	}
	if p.ViewedRecording {
		total = total.Add(types.NewPercent(percentPerContent))
	}
	p.CompletionPercentage = total
}

const percentPerContent = 50

// Repository persists progress rows.
type Repository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]UserProgress, error)
	// Merge inserts p or ORs its viewed flags into the stored row in a single
	// statement, then fills p with the resulting row.
	Merge(ctx context.Context, p *UserProgress) error
}

// GormRepository stores progress in PostgreSQL.
type GormRepository struct {
	db *gorm.DB
}

// NewRepository wraps a database handle.
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// ListByUser returns every row for a user ordered by day.
func (r *GormRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]UserProgress, error) {
	var rows []UserProgress
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("day_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Merge upserts on (user_id, day_number). Flags are ORed and the percentage is
// recomputed by the database so concurrent views of different content both land.
func (r *GormRepository) Merge(ctx context.Context, p *UserProgress) error {
	return mergeStatement(r.db.WithContext(ctx), p).Error
}

func mergeStatement(db *gorm.DB, p *UserProgress) *gorm.DB {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "day_number"}},
		DoUpdates: clause.Set{
			{Column: clause.Column{Name: "viewed_presentation"}, Value: gorm.Expr(mergedPresentation)},
			{Column: clause.Column{Name: "viewed_recording"}, Value: gorm.Expr(mergedRecording)},
			{Column: clause.Column{Name: "completion_percentage"}, Value: gorm.Expr(
				"(CASE WHEN "+mergedPresentation+" THEN ? ELSE 0 END) + (CASE WHEN "+mergedRecording+" THEN ? ELSE 0 END)",
				percentPerContent, percentPerContent,
			)},
			{Column: clause.Column{Name: "last_accessed"}, Value: gorm.Expr("excluded.last_accessed")},
			{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("excluded.updated_at")},
		},
	}, clause.Returning{}).Create(p)
}

const (
	mergedPresentation = "user_progress.viewed_presentation OR excluded.viewed_presentation"
	mergedRecording    = "user_progress.viewed_recording OR excluded.viewed_recording"
)
