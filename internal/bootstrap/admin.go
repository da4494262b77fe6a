package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mo-amir99/training-portal/internal/features/user"
	"github.com/mo-amir99/training-portal/pkg/types"
)

const defaultAdminName = "Portal Admin"

// EnsureDefaultAdmin creates the configured admin account or brings an
// existing one back to an active admin with the configured password. An
// empty password disables seeding.
func EnsureDefaultAdmin(db *gorm.DB, email, password string, logger *slog.Logger) error {
	if password == "" {
		logger.Info("default admin seeding disabled", slog.String("env_var", "DEFAULT_ADMIN_PASSWORD"))
		return nil
	}
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := user.GetByEmail(db, email)
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		_, createErr := user.Create(db, user.CreateInput{
			FullName: defaultAdminName,
			Email:    email,
			Password: password,
			UserType: types.UserTypeAdmin,
		})
		if createErr != nil {
			if isUndefinedTableError(createErr) {
				logger.Warn("default admin skipped, users table missing", slog.String("email", email))
				return nil
			}
			return fmt.Errorf("create default admin: %w", createErr)
		}
		logger.Info("default admin created", slog.String("email", email))
		return nil

	case err != nil:
		if isUndefinedTableError(err) {
			logger.Warn("default admin skipped, users table missing", slog.String("email", email))
			return nil
		}
		return fmt.Errorf("get default admin: %w", err)
	}

	updates, err := adminUpdates(existing, password)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		logger.Debug("default admin up to date", slog.String("email", email))
		return nil
	}

	if err := db.Model(&existing).Updates(updates).Error; err != nil {
		return fmt.Errorf("update default admin: %w", err)
	}
	logger.Info("default admin synchronized", slog.String("email", email))
	return nil
}

func adminUpdates(existing user.User, password string) (map[string]any, error) {
	updates := map[string]any{}

	if bcrypt.CompareHashAndPassword([]byte(existing.Password), []byte(password)) != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash default admin password: %w", err)
		}
		updates["password"] = string(hashed)
	}
	if existing.UserType != types.UserTypeAdmin {
		updates["user_type"] = types.UserTypeAdmin
	}
	if !existing.Active {
		updates["is_active"] = true
	}
	return updates, nil
}

func isUndefinedTableError(err error) bool {
	return err != nil && strings.Contains(err.Error(), `relation "users" does not exist`)
}
