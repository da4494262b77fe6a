package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mo-amir99/training-portal/pkg/pagination"
	"github.com/mo-amir99/training-portal/pkg/types"
)

const bcryptCost = 10

// User represents a portal user.
type User struct {
	types.BaseModel

	FullName    string         `gorm:"type:varchar(100);not null;column:full_name" json:"fullName"`
	Email       string         `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Password    string         `gorm:"type:varchar(255);not null" json:"-"`
	UserType    types.UserType `gorm:"type:varchar(20);not null;default:'student';column:user_type;index:idx_usertype_active,priority:1" json:"userType"`
	Active      bool           `gorm:"type:boolean;not null;default:true;column:is_active;index:idx_usertype_active,priority:2" json:"isActive"`
	LastLoginAt *time.Time     `gorm:"column:last_login_at" json:"lastLoginAt,omitempty"`
}

// TableName overrides the default table name.
func (User) TableName() string { return "users" }

// ListFilters defines user query filters.
type ListFilters struct {
	Keyword  string
	UserType types.UserType
}

// CreateInput carries data for creating a new user.
type CreateInput struct {
	FullName string
	Email    string
	Password string
	UserType types.UserType
	Active   *bool
}

// List returns one page of users matching filters, newest first, and the total match count.
func List(db *gorm.DB, filters ListFilters, page pagination.Params) ([]User, int64, error) {
	query := db.Model(&User{})

	if filters.Keyword != "" {
		keyword := "%" + strings.ToLower(filters.Keyword) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", keyword, keyword)
	}
	if filters.UserType != "" {
		query = query.Where("user_type = ?", filters.UserType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []User
	err := query.Order("created_at DESC").Offset(page.Offset()).Limit(page.Limit).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Get retrieves a user by ID.
func Get(db *gorm.DB, id uuid.UUID) (User, error) {
	var user User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		return user, err
	}
	return user, nil
}

// GetByEmail retrieves a user by email.
func GetByEmail(db *gorm.DB, email string) (User, error) {
	var user User
	if err := db.First(&user, "LOWER(email) = ?", normalizeEmail(email)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		return user, err
	}
	return user, nil
}

// Create inserts a new user with hashed password.
func Create(db *gorm.DB, input CreateInput) (User, error) {
	if len(input.Password) < 8 {
		return User{}, ErrInvalidPassword
	}
	if input.UserType == "" {
		input.UserType = types.UserTypeStudent
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		FullName: strings.TrimSpace(input.FullName),
		Email:    normalizeEmail(input.Email),
		Password: string(hashedPassword),
		UserType: input.UserType,
		Active:   true,
	}
	if input.Active != nil {
		user.Active = *input.Active
	}

	if err := db.Create(&user).Error; err != nil {
		if strings.Contains(err.Error(), "users_email_key") || strings.Contains(err.Error(), "idx_users_email") {
			return user, ErrEmailTaken
		}
		return user, err
	}

	return user, nil
}

// UpdateInput carries optional changes to a user.
type UpdateInput struct {
	FullName *string
	Password *string
	UserType *types.UserType
	Active   *bool
}

// Update applies the non-nil fields of input and returns the stored user.
func Update(db *gorm.DB, id uuid.UUID, input UpdateInput) (User, error) {
	usr, err := Get(db, id)
	if err != nil {
		return User{}, err
	}

	updates := map[string]interface{}{}
	if input.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*input.FullName)
	}
	if input.UserType != nil {
		updates["user_type"] = *input.UserType
	}
	if input.Active != nil {
		updates["is_active"] = *input.Active
	}
	if input.Password != nil {
		if len(*input.Password) < 8 {
			return User{}, ErrInvalidPassword
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcryptCost)
		if err != nil {
			return User{}, err
		}
		updates["password"] = string(hashed)
	}
	if len(updates) == 0 {
		return usr, nil
	}

	if err := db.Model(&usr).Updates(updates).Error; err != nil {
		return User{}, err
	}
	return Get(db, id)
}

// Delete removes a user.
func Delete(db *gorm.DB, id uuid.UUID) error {
	result := db.Delete(&User{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Count returns the number of users.
func Count(db *gorm.DB) (int64, error) {
	var total int64
	err := db.Model(&User{}).Count(&total).Error
	return total, err
}

// CountActiveStudents returns the number of active student accounts.
func CountActiveStudents(db *gorm.DB) (int64, error) {
	var total int64
	err := db.Model(&User{}).
		Where("user_type = ? AND is_active = ?", types.UserTypeStudent, true).
		Count(&total).Error
	return total, err
}

// ComparePassword checks if the provided password matches the user's hashed password.
func (u *User) ComparePassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// Store adapts the package functions to the interfaces other features depend on.
type Store struct {
	db *gorm.DB
}

// NewStore wraps a database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// VerifyCredentials returns the active user owning email when password matches,
// and records the login time.
func (s *Store) VerifyCredentials(ctx context.Context, email, password string) (User, error) {
	db := s.db.WithContext(ctx)

	usr, err := GetByEmail(db, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if !usr.ComparePassword(password) {
		return User{}, ErrInvalidCredentials
	}
	if !usr.Active {
		return User{}, ErrInactiveUser
	}

	now := time.Now().UTC()
	if err := db.Model(&User{}).Where("id = ?", usr.ID).Update("last_login_at", now).Error; err != nil {
		return User{}, err
	}
	usr.LastLoginAt = &now
	return usr, nil
}

// CountUsers returns the total and active-student counts.
func (s *Store) CountUsers(ctx context.Context) (total, activeStudents int64, err error) {
	db := s.db.WithContext(ctx)
	if total, err = Count(db); err != nil {
		return 0, 0, err
	}
	if activeStudents, err = CountActiveStudents(db); err != nil {
		return 0, 0, err
	}
	return total, activeStudents, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
