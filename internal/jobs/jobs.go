// Package jobs holds the portal's periodic background work.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
)

// Exporter writes the content snapshot files into a directory.
type Exporter interface {
	ExportForGitHub(ctx context.Context, dir string) error
}

// SessionPurger removes sessions whose expiry has passed.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// SnapshotExportJob refreshes the static JSON snapshot used by the GitHub
// pages build.
type SnapshotExportJob struct {
	exporter Exporter
	dir      string
	logger   *slog.Logger
}

func NewSnapshotExportJob(exporter Exporter, dir string, logger *slog.Logger) *SnapshotExportJob {
	return &SnapshotExportJob{exporter: exporter, dir: dir, logger: logger}
}

func (j *SnapshotExportJob) Name() string { return "snapshot_export" }

func (j *SnapshotExportJob) Execute(ctx context.Context) error {
	if err := j.exporter.ExportForGitHub(ctx, j.dir); err != nil {
		return fmt.Errorf("export snapshot to %s: %w", j.dir, err)
	}
	j.logger.Debug("snapshot exported", slog.String("dir", j.dir))
	return nil
}

// SessionCleanupJob deletes expired sessions.
type SessionCleanupJob struct {
	sessions SessionPurger
	logger   *slog.Logger
}

func NewSessionCleanupJob(sessions SessionPurger, logger *slog.Logger) *SessionCleanupJob {
	return &SessionCleanupJob{sessions: sessions, logger: logger}
}

func (j *SessionCleanupJob) Name() string { return "session_cleanup" }

func (j *SessionCleanupJob) Execute(ctx context.Context) error {
	removed, err := j.sessions.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("purge expired sessions: %w", err)
	}
	if removed > 0 {
		j.logger.Info("expired sessions removed", slog.Int64("count", removed))
	}
	return nil
}
