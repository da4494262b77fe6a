package database

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mo-amir99/training-portal/pkg/config"
	"github.com/mo-amir99/training-portal/pkg/database/migrations"
)

const slowQueryThreshold = 200 * time.Millisecond

// Connect establishes a GORM connection with the default retry policy.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	return ConnectWithRetry(ctx, cfg, log, 5, time.Second)
}

// ConnectWithRetry retries the initial connection with exponential backoff
// and up to 25% jitter.
func ConnectWithRetry(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger, maxRetries int, initialBackoff time.Duration) (*gorm.DB, error) {
	var err error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			sleep := retryBackoff(initialBackoff, attempt)
			log.Warn("retrying database connection",
				slog.Int("attempt", attempt),
				slog.Int("max_retries", maxRetries),
				slog.Duration("backoff", sleep),
				slog.String("error", err.Error()),
			)

			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("connection cancelled: %w", ctx.Err())
			case <-time.After(sleep):
			}
		}

		var db *gorm.DB
		db, err = connectOnce(ctx, cfg, log)
		if err == nil {
			if attempt > 0 {
				log.Info("database connection established after retry", slog.Int("attempts", attempt+1))
			}
			return db, nil
		}
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", maxRetries+1, err)
}

func retryBackoff(initial time.Duration, attempt int) time.Duration {
	backoff := initial << (attempt - 1)
	return backoff + time.Duration(rand.Int64N(int64(backoff)/4+1))
}

func connectOnce(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                 NewCustomLogger(log, slowQueryThreshold),
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Second)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := db.Use(NewReconnectPlugin(log)); err != nil {
		return nil, fmt.Errorf("register reconnect plugin: %w", err)
	}

	return db, nil
}

// Migrate creates the portal tables for models and then runs the registered
// SQL migrations in order.
func Migrate(ctx context.Context, db *gorm.DB, log *slog.Logger, models ...any) error {
	tx := db.WithContext(ctx)

	if err := tx.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("create uuid extension: %w", err)
	}

	log.Info("running database migrations", slog.Int("models", len(models)))
	if err := tx.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if err := migrations.Run(tx, log); err != nil {
		return err
	}

	log.Info("database schema migrated successfully")
	return nil
}

// Close gracefully closes the underlying sql.DB connection pool.
func Close(db *gorm.DB, log *slog.Logger) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	log.Info("database connection closed")
	return nil
}
