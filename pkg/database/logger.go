package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mo-amir99/training-portal/pkg/metrics"
)

// CustomLogger routes gorm's output through slog and feeds query latency
// into the db_query_duration_seconds histogram.
type CustomLogger struct {
	logger               *slog.Logger
	slowThreshold        time.Duration
	logLevel             logger.LogLevel
	ignoreRecordNotFound bool
}

// NewCustomLogger creates a new GORM logger with structured logging.
func NewCustomLogger(appLogger *slog.Logger, slowThreshold time.Duration) logger.Interface {
	return &CustomLogger{
		logger:               appLogger,
		slowThreshold:        slowThreshold,
		logLevel:             logger.Warn,
		ignoreRecordNotFound: true,
	}
}

func (l *CustomLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

func (l *CustomLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *CustomLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *CustomLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Error {
		l.logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *CustomLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	table := extractTableName(sql)
	operation := extractOperation(sql)
	metrics.RecordDBQuery(operation, table, elapsed)

	switch {
	case err != nil && l.logLevel >= logger.Error && (!l.ignoreRecordNotFound || !errors.Is(err, gorm.ErrRecordNotFound)):
		l.logger.ErrorContext(ctx, "database query error",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", elapsed),
			slog.String("sql", sql),
			slog.Int64("rows", rows),
		)
	case elapsed > l.slowThreshold && l.slowThreshold != 0 && l.logLevel >= logger.Warn:
		l.logger.WarnContext(ctx, "slow query detected",
			slog.Duration("elapsed", elapsed),
			slog.Duration("threshold", l.slowThreshold),
			slog.String("operation", operation),
			slog.String("table", table),
			slog.Int64("rows", rows),
			slog.String("sql", sql),
		)
	case l.logLevel >= logger.Info:
		l.logger.DebugContext(ctx, "database query",
			slog.Duration("elapsed", elapsed),
			slog.String("operation", operation),
			slog.String("table", table),
			slog.Int64("rows", rows),
		)
	}
}

// extractOperation returns the leading SQL keyword in upper case.
func extractOperation(sql string) string {
	sql = strings.TrimSpace(sql)
	if sql == "" {
		return "UNKNOWN"
	}
	if i := strings.IndexAny(sql, " \n\t("); i > 0 {
		sql = sql[:i]
	}
	return strings.ToUpper(sql)
}

var tableMarkers = []string{" FROM ", "INTO ", "UPDATE ", " JOIN "}

// extractTableName finds the first table named after one of the markers gorm
// emits. It only needs to be good enough for metric labels.
func extractTableName(sql string) string {
	for _, marker := range tableMarkers {
		idx := strings.Index(sql, marker)
		if idx == -1 {
			continue
		}
		rest := strings.TrimLeft(sql[idx+len(marker):], " \"`")
		end := strings.IndexAny(rest, " ,;\"`(\n")
		if end == -1 {
			end = len(rest)
		}
		if end > 0 {
			return rest[:end]
		}
	}
	return "unknown"
}
