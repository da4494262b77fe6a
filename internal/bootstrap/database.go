package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/mo-amir99/training-portal/internal/features/adminaction"
	"github.com/mo-amir99/training-portal/internal/features/auth"
	"github.com/mo-amir99/training-portal/internal/features/progress"
	"github.com/mo-amir99/training-portal/internal/features/user"
	"github.com/mo-amir99/training-portal/pkg/config"
	"github.com/mo-amir99/training-portal/pkg/database"
	"github.com/mo-amir99/training-portal/pkg/database/migrations"
)

func init() {
	migrations.Register("progress_completion_range", func(db *gorm.DB) error {
		return db.Exec(`DO $$ BEGIN
	ALTER TABLE user_progress ADD CONSTRAINT chk_progress_completion
		CHECK (completion_percentage >= 0 AND completion_percentage <= 100);
EXCEPTION WHEN duplicate_object THEN NULL;
END $$`).Error
	})
	migrations.Register("admin_actions_created_at_index", func(db *gorm.DB) error {
		return db.Exec(`CREATE INDEX IF NOT EXISTS idx_admin_actions_created_at ON admin_actions (created_at DESC)`).Error
	})
}

// Models lists every table owned by the portal database.
func Models() []any {
	return []any{
		&user.User{},
		&auth.Session{},
		&progress.UserProgress{},
		&adminaction.AdminAction{},
	}
}

// OpenDatabase connects to PostgreSQL and migrates the schema when
// PORTAL_DB_RUN_MIGRATIONS is set.
func OpenDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	if err := ApplyDatabaseMigrations(ctx, db, cfg, logger); err != nil {
		_ = database.Close(db, logger)
		return nil, err
	}
	return db, nil
}

// ApplyDatabaseMigrations runs database migrations when enabled via configuration.
func ApplyDatabaseMigrations(ctx context.Context, db *gorm.DB, cfg *config.Config, logger *slog.Logger) error {
	if !cfg.Database.RunMigrations {
		logger.Info("database migrations skipped", slog.String("env_var", "PORTAL_DB_RUN_MIGRATIONS=false"))
		return nil
	}

	if err := database.Migrate(ctx, db, logger, Models()...); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
