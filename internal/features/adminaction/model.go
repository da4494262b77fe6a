package adminaction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mo-amir99/training-portal/pkg/types"
)

// Action types recorded for content mutations.
const (
	TypeUnlockDay       = "unlock_day"
	TypeLockDay         = "lock_day"
	TypeUnlockAllDays   = "unlock_all_days"
	TypeUploadRecording = "upload_recording"
	TypeRemoveRecording = "remove_recording"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// AdminAction is one audited admin mutation.
type AdminAction struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"actionId"`
	SessionID  *uuid.UUID `gorm:"type:uuid;column:session_id" json:"sessionId,omitempty"`
	AdminID    *uuid.UUID `gorm:"type:uuid;column:admin_id" json:"adminId,omitempty"`
	Actor      string     `gorm:"type:varchar(255);not null" json:"actor"`
	ActionType string     `gorm:"type:varchar(50);not null;index" json:"actionType"`
	DayNumber  *int       `gorm:"column:day_number;index" json:"dayNumber,omitempty"`
	Metadata   types.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	Timestamp  time.Time  `gorm:"not null;index" json:"timestamp"`
}

// TableName overrides the default table name.
func (AdminAction) TableName() string { return "admin_actions" }

// ListFilters narrows the audit log.
type ListFilters struct {
	ActionType string
	DayNumber  *int
	Limit      int
}

// Store persists audit entries in PostgreSQL.
type Store struct {
	db *gorm.DB
}

// NewStore wraps a database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Record inserts an audit entry, stamping it when no timestamp is set.
func (s *Store) Record(ctx context.Context, action AdminAction) error {
	if action.Timestamp.IsZero() {
		action.Timestamp = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(&action).Error
}

// List returns the most recent entries first.
func (s *Store) List(ctx context.Context, filters ListFilters) ([]AdminAction, error) {
	query := s.db.WithContext(ctx).Model(&AdminAction{})

	if filters.ActionType != "" {
		query = query.Where("action_type = ?", filters.ActionType)
	}
	if filters.DayNumber != nil {
		query = query.Where("day_number = ?", *filters.DayNumber)
	}

	var actions []AdminAction
	if err := query.Order("timestamp DESC").Limit(ClampLimit(filters.Limit)).Find(&actions).Error; err != nil {
		return nil, err
	}
	return actions, nil
}

// ClampLimit bounds a requested list size.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	}
	return limit
}
