package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mo-amir99/training-portal/internal/content"
	"github.com/mo-amir99/training-portal/internal/content/contenttest"
	"github.com/mo-amir99/training-portal/internal/onelake"
	"github.com/mo-amir99/training-portal/pkg/logger"
)

type cliEnv struct {
	store    *contenttest.Store
	lockPath string
	openErr  error
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	store := contenttest.NewStore()
	store.Seed(content.DaysDocument, content.DefaultCatalog().LockedDays())
	return &cliEnv{
		store:    store,
		lockPath: filepath.Join(t.TempDir(), "admin.lock"),
	}
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer

	a := newApp(&stdout, &stderr)
	a.open = func(context.Context) (contentService, error) {
		if e.openErr != nil {
			return nil, e.openErr
		}
		return content.NewClient(e.store, logger.Discard()), nil
	}
	a.lockFile = func() string { return e.lockPath }

	if args == nil {
		args = []string{}
	}
	root := newRootCommand(a)
	root.SetArgs(args)
	_, err := root.ExecuteContextC(context.Background())
	return stdout.String(), stderr.String(), err
}

func (e *cliEnv) days(t *testing.T) []content.TrainingDay {
	t.Helper()
	var days []content.TrainingDay
	require.NoError(t, e.store.Decode(content.DaysDocument, &days))
	return days
}

func TestUnlockAndLock(t *testing.T) {
	env := newCLIEnv(t)

	out, _, err := env.run(t, "unlock", "3", "--actor", "trainer")
	require.NoError(t, err)
	assert.Equal(t, "Day 3 unlocked successfully\n", out)

	day, ok := content.FindDay(env.days(t), 3)
	require.True(t, ok)
	assert.True(t, day.IsUnlocked)
	require.NotNil(t, day.UnlockedBy)
	assert.Equal(t, "trainer", *day.UnlockedBy)

	out, _, err = env.run(t, "lock", "3")
	require.NoError(t, err)
	assert.Equal(t, "Day 3 locked successfully\n", out)

	day, _ = content.FindDay(env.days(t), 3)
	assert.False(t, day.IsUnlocked)
	assert.Nil(t, day.UnlockedAt)
}

func TestUnlockAll(t *testing.T) {
	env := newCLIEnv(t)

	out, _, err := env.run(t, "unlock-all")
	require.NoError(t, err)
	assert.Equal(t, "All 12 days unlocked successfully\n", out)

	for _, d := range env.days(t) {
		assert.True(t, d.IsUnlocked, "day %d", d.DayNumber)
		assert.Equal(t, "admin", *d.UnlockedBy)
	}
}

func TestArgumentErrors(t *testing.T) {
	env := newCLIEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"missing day", []string{"unlock"}},
		{"non numeric day", []string{"lock", "three"}},
		{"zero day", []string{"remove", "0"}},
		{"short upload", []string{"upload", "1", "title", "https://youtu.be/x"}},
		{"bad platform", []string{"upload", "1", "t", "https://youtu.be/x", "1h", "--platform", "betamax"}},
		{"unknown flag", []string{"stats", "--yaml"}},
		{"blank actor", []string{"unlock", "1", "--actor", "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := env.run(t, tt.args...)
			require.Error(t, err)
			var usage usageError
			assert.True(t, errors.As(err, &usage), "got %v", err)
		})
	}
	assert.Zero(t, env.store.Puts)
}

func TestUnlockUnknownDay(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run(t, "unlock", "40")
	require.Error(t, err)
	assert.ErrorIs(t, err, content.ErrDayNotFound)
	assert.Zero(t, env.store.Puts)
}

func TestUploadAndRemove(t *testing.T) {
	env := newCLIEnv(t)

	out, _, err := env.run(t, "upload", "1", "Session 1", "https://youtu.be/abc123", "2h")
	require.NoError(t, err)
	assert.Contains(t, out, "Recording uploaded for Day 1\n")
	assert.Contains(t, out, "https://www.youtube.com/embed/abc123")

	_, _, err = env.run(t, "upload", "1", "Session 1 (fixed)", "https://vimeo.com/77", "2h", "--platform", "VIMEO")
	require.NoError(t, err)

	var recs []content.Recording
	require.NoError(t, env.store.Decode(content.RecordingsDocument, &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "Session 1 (fixed)", recs[0].Title)
	assert.Equal(t, content.PlatformVimeo, recs[0].Platform)

	out, _, err = env.run(t, "remove", "1")
	require.NoError(t, err)
	assert.Equal(t, "Recording removed for Day 1\n", out)

	out, _, err = env.run(t, "remove", "1")
	require.NoError(t, err)
	assert.Equal(t, "Day 1 had no recording\n", out)
}

func TestStats(t *testing.T) {
	env := newCLIEnv(t)
	_, _, err := env.run(t, "unlock", "1")
	require.NoError(t, err)

	out, _, err := env.run(t, "stats", "--json")
	require.NoError(t, err)

	var stats map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.EqualValues(t, 12, stats["totalDays"])
	assert.EqualValues(t, 1, stats["unlockedDays"])
	assert.EqualValues(t, 11, stats["lockedDays"])
	assert.EqualValues(t, 0, stats["recordingsAvailable"])

	out, _, err = env.run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Training Portal Statistics")
	assert.Contains(t, out, "Unlocked")
}

func TestStatsStoreDown(t *testing.T) {
	env := newCLIEnv(t)
	env.store.GetErr = onelake.ErrUnavailable

	_, _, err := env.run(t, "stats")
	assert.ErrorIs(t, err, onelake.ErrUnavailable)
}

func TestList(t *testing.T) {
	env := newCLIEnv(t)
	_, _, err := env.run(t, "unlock", "2")
	require.NoError(t, err)

	out, _, err := env.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Power Query & Data Transformation")
	assert.Contains(t, out, "Unlocked")
	assert.NotContains(t, out, "🔓", "emoji only on a terminal")

	out, _, err = env.run(t, "list", "--json")
	require.NoError(t, err)
	var days []content.TrainingDay
	require.NoError(t, json.Unmarshal([]byte(out), &days))
	assert.Len(t, days, 12)
	assert.True(t, days[1].IsUnlocked)
}

func TestListFallsBackToDefaults(t *testing.T) {
	env := newCLIEnv(t)
	env.store.GetErr = onelake.ErrUnavailable

	out, _, err := env.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Introduction to DAX")
}

func TestExport(t *testing.T) {
	env := newCLIEnv(t)
	dir := filepath.Join(t.TempDir(), "out")

	out, _, err := env.run(t, "export", "-o", dir)
	require.NoError(t, err)
	assert.Equal(t, "Data exported to "+dir+string(filepath.Separator)+"\n", out)

	for _, name := range []string{content.DaysDocument, content.RecordingsDocument, content.StatsDocument} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestAuthenticationFailure(t *testing.T) {
	env := newCLIEnv(t)
	env.openErr = errors.New("authentication failed: no credentials")

	_, _, err := env.run(t, "list")
	assert.EqualError(t, err, "authentication failed: no credentials")
}

func TestMutationRequiresLock(t *testing.T) {
	env := newCLIEnv(t)

	held := flock.New(env.lockPath)
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer held.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr)
	a.lockFile = func() string { return env.lockPath }
	a.open = func(context.Context) (contentService, error) {
		t.Fatal("store opened without the lock")
		return nil, nil
	}
	err = a.withLockedStore(ctx, func(contentService) error { return nil })
	require.Error(t, err)
	assert.Zero(t, env.store.Puts)
}
