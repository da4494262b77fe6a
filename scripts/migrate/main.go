package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/mo-amir99/training-portal/internal/bootstrap"
	"github.com/mo-amir99/training-portal/pkg/config"
	"github.com/mo-amir99/training-portal/pkg/database"
	"github.com/mo-amir99/training-portal/pkg/database/migrations"
	"github.com/mo-amir99/training-portal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewConsole(cfg.LogLevel, os.Stderr)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.Database, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close(db, appLogger)

	appLogger.Info("Starting database migrations...", slog.Any("steps", migrations.Names()))

	if err := database.Migrate(ctx, db, appLogger, bootstrap.Models()...); err != nil {
		appLogger.Error("Failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Println("All database tables created/updated successfully")
}
