package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/mo-amir99/training-portal/internal/bootstrap"
	"github.com/mo-amir99/training-portal/internal/content"
	"github.com/mo-amir99/training-portal/pkg/config"
	"github.com/mo-amir99/training-portal/pkg/logger"
)

const (
	lockWait       = 30 * time.Second
	lockRetryDelay = 100 * time.Millisecond
)

var errLockBusy = errors.New("admin lock busy")

// contentService is the part of content.Client the commands use.
type contentService interface {
	GetAllDays(ctx context.Context) []content.TrainingDay
	GetAllRecordings(ctx context.Context) []content.Recording
	UnlockDay(ctx context.Context, dayNumber int, actor string) (content.TrainingDay, error)
	LockDay(ctx context.Context, dayNumber int) (content.TrainingDay, error)
	UnlockAllDays(ctx context.Context, actor string) (int, error)
	UploadRecording(ctx context.Context, in content.UploadInput) (content.Recording, error)
	RemoveRecording(ctx context.Context, dayNumber int) (int, error)
	GetStats(ctx context.Context) (content.Stats, error)
	ExportForGitHub(ctx context.Context, dir string) error
}

// app carries what every command needs. Tests replace open and lockFile.
type app struct {
	stdout io.Writer
	stderr io.Writer
	actor  string

	open     func(ctx context.Context) (contentService, error)
	lockFile func() string

	once   sync.Once
	cfg    *config.Config
	cfgErr error
}

func newApp(stdout, stderr io.Writer) *app {
	a := &app{stdout: stdout, stderr: stderr}
	a.open = a.openStore
	a.lockFile = func() string {
		cfg, err := a.config()
		if err != nil {
			return ""
		}
		return cfg.Content.LockFile
	}
	return a
}

func (a *app) config() (*config.Config, error) {
	a.once.Do(func() {
		a.cfg, a.cfgErr = config.Load()
	})
	return a.cfg, a.cfgErr
}

func (a *app) logger() *slog.Logger {
	level := "warn"
	if cfg, err := a.config(); err == nil && cfg.LogLevel == "debug" {
		level = "debug"
	}
	log, err := logger.NewConsole(level, a.stderr)
	if err != nil {
		return logger.Discard()
	}
	return log
}

// openStore authenticates against OneLake. Failing here ends the command.
func (a *app) openStore(ctx context.Context) (contentService, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	stack, err := bootstrap.OpenContent(ctx, cfg, a.logger())
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	return stack.Client, nil
}

// withStore runs fn against the content store.
func (a *app) withStore(ctx context.Context, fn func(contentService) error) error {
	svc, err := a.open(ctx)
	if err != nil {
		return err
	}
	return fn(svc)
}

// withLockedStore is withStore for mutations: it holds the host-wide admin
// lock so two CLI runs on one machine never interleave their writes.
func (a *app) withLockedStore(ctx context.Context, fn func(contentService) error) error {
	path := a.lockFile()
	if path == "" {
		return a.withStore(ctx, fn)
	}

	lock := flock.New(path)
	lockCtx, cancel := context.WithTimeout(ctx, lockWait)
	defer cancel()

	locked, err := lock.TryLockContext(lockCtx, lockRetryDelay)
	switch {
	case errors.Is(err, context.DeadlineExceeded), err == nil && !locked:
		return fmt.Errorf("%w: another admin command holds %s", errLockBusy, path)
	case err != nil:
		return fmt.Errorf("acquire admin lock %s: %w", path, err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			fmt.Fprintf(a.stderr, "warning: release admin lock: %v\n", err)
		}
	}()

	return a.withStore(ctx, fn)
}
