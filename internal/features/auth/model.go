package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/mo-amir99/training-portal/pkg/types"
)

// Session is an issued, revocable session token record.
type Session struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       *uuid.UUID     `gorm:"type:uuid;column:user_id;index" json:"userId,omitempty"`
	Subject      string         `gorm:"type:varchar(255);not null" json:"subject"`
	Role         types.UserType `gorm:"type:varchar(20);not null" json:"role"`
	Capabilities pq.StringArray `gorm:"type:text[];not null" json:"capabilities"`
	ClientIP     string         `gorm:"type:varchar(64);column:client_ip" json:"-"`
	UserAgent    string         `gorm:"type:varchar(255);column:user_agent" json:"-"`
	ExpiresAt    time.Time      `gorm:"not null;index" json:"expiresAt"`
	RevokedAt    *time.Time     `gorm:"column:revoked_at" json:"revokedAt,omitempty"`
	CreatedAt    time.Time      `gorm:"column:created_at" json:"createdAt"`
}

// TableName overrides the default table name.
func (Session) TableName() string { return "sessions" }

// Active reports whether the session can still be used at now.
func (s Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// SessionStore persists session records.
type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id uuid.UUID) (Session, error)
	Revoke(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// GormStore stores sessions in PostgreSQL.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a database handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, session *Session) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s *GormStore) Get(ctx context.Context, id uuid.UUID) (Session, error) {
	var session Session
	if err := s.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return session, ErrSessionNotFound
		}
		return session, err
	}
	return session, nil
}

func (s *GormStore) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteExpired removes sessions that expired before the cutoff.
func (s *GormStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&Session{})
	return result.RowsAffected, result.Error
}
