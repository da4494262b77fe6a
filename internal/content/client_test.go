package content

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mo-amir99/training-portal/internal/content/contenttest"
	"github.com/mo-amir99/training-portal/internal/onelake"
)

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 123456789, time.UTC)

func newTestClient(t *testing.T, store *contenttest.Store, opts ...Option) *Client {
	t.Helper()
	ids := 0
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			ids++
			return "rec-" + string(rune('0'+ids))
		}),
	}
	return NewClient(store, slog.New(slog.NewTextHandler(io.Discard, nil)), append(base, opts...)...)
}

func seededStore(t *testing.T) *contenttest.Store {
	t.Helper()
	store := contenttest.NewStore()
	store.Seed(DaysDocument, DefaultCatalog().LockedDays())
	return store
}

func TestUnlockDay_ThenGetAllDays(t *testing.T) {
	store := seededStore(t)
	c := newTestClient(t, store)
	ctx := context.Background()

	day, err := c.UnlockDay(ctx, 3, "trainer")
	require.NoError(t, err)
	assert.True(t, day.IsUnlocked)

	days := c.GetAllDays(ctx)
	got, ok := FindDay(days, 3)
	require.True(t, ok)
	assert.True(t, got.IsUnlocked)
	require.NotNil(t, got.UnlockedAt)
	assert.Equal(t, "2026-03-01T09:30:00.123456Z", got.UnlockedAt.String())
	require.NotNil(t, got.UnlockedBy)
	assert.Equal(t, "trainer", *got.UnlockedBy)

	other, _ := FindDay(days, 4)
	assert.False(t, other.IsUnlocked)
}

func TestLockDay_ClearsUnlockFields(t *testing.T) {
	store := seededStore(t)
	c := newTestClient(t, store)
	ctx := context.Background()

	_, err := c.UnlockDay(ctx, 5, "")
	require.NoError(t, err)
	_, err = c.LockDay(ctx, 5)
	require.NoError(t, err)

	got, _ := FindDay(c.GetAllDays(ctx), 5)
	assert.False(t, got.IsUnlocked)
	assert.Nil(t, got.UnlockedAt)
	assert.Nil(t, got.UnlockedBy)

	var raw []map[string]any
	require.NoError(t, store.Decode(DaysDocument, &raw))
	assert.Contains(t, raw[4], "unlockedAt")
	assert.Nil(t, raw[4]["unlockedAt"])
	assert.Nil(t, raw[4]["unlockedBy"])
}

func TestUnlockDay_DefaultActor(t *testing.T) {
	c := newTestClient(t, seededStore(t))

	day, err := c.UnlockDay(context.Background(), 1, "  ")
	require.NoError(t, err)
	assert.Equal(t, "admin", *day.UnlockedBy)
}

func TestUnlockDay_UnknownDayWritesNothing(t *testing.T) {
	store := seededStore(t)
	c := newTestClient(t, store)

	_, err := c.UnlockDay(context.Background(), 13, "admin")
	assert.ErrorIs(t, err, ErrDayNotFound)
	assert.Equal(t, OutcomeNotFound, Classify(err))
	assert.Zero(t, store.Puts)

	_, err = c.LockDay(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidDayNumber)
}

func TestUnlockDay_MissingDocumentSeedsDefaults(t *testing.T) {
	store := contenttest.NewStore()
	c := newTestClient(t, store)

	_, err := c.UnlockDay(context.Background(), 1, "admin")
	require.NoError(t, err)

	var days []TrainingDay
	require.NoError(t, store.Decode(DaysDocument, &days))
	assert.Len(t, days, 12)
	assert.True(t, days[0].IsUnlocked)
}

func TestUnlockDay_StoreFailureNeverOverwrites(t *testing.T) {
	store := seededStore(t)
	store.GetErr = onelake.ErrUnavailable
	c := newTestClient(t, store)

	_, err := c.UnlockDay(context.Background(), 2, "admin")
	assert.ErrorIs(t, err, onelake.ErrUnavailable)
	assert.Equal(t, OutcomeTransient, Classify(err))
	assert.Zero(t, store.Puts)
}

func TestUnlockAllDays_SharedTimestamp(t *testing.T) {
	store := seededStore(t)
	c := newTestClient(t, store)
	ctx := context.Background()

	n, err := c.UnlockAllDays(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	days := c.GetAllDays(ctx)
	for _, d := range days {
		assert.True(t, d.IsUnlocked)
		assert.Equal(t, days[0].UnlockedAt.String(), d.UnlockedAt.String())
	}
	assert.Len(t, UnlockedDays(days), 12)
}

func TestGetAllDays_FallsBackWhenStoreUnreachable(t *testing.T) {
	store := contenttest.NewStore()
	store.GetErr = onelake.ErrUnavailable
	c := newTestClient(t, store)

	days := c.GetAllDays(context.Background())
	require.Len(t, days, 12)
	for _, d := range days {
		assert.False(t, d.IsUnlocked)
		assert.Nil(t, d.UnlockedAt)
	}
	assert.Equal(t, "Introduction to Power BI & Data Connectivity", days[0].Title)
	assert.Equal(t, "Performance Optimization & Best Practices", days[11].Title)

	_, err := c.LoadDays(context.Background())
	assert.ErrorIs(t, err, onelake.ErrUnavailable)
}

func TestGetAllDays_MalformedDocument(t *testing.T) {
	store := contenttest.NewStore()
	store.SeedRaw(DaysDocument, []byte(`{"not":"a list"}`))
	c := newTestClient(t, store)

	assert.Len(t, c.GetAllDays(context.Background()), 12)

	_, err := c.LoadDays(context.Background())
	assert.ErrorIs(t, err, ErrMalformedDocument)
	assert.Equal(t, OutcomeFatal, Classify(err))
}

func TestGetAllRecordings_EmptyOnFailure(t *testing.T) {
	store := contenttest.NewStore()
	store.GetErr = onelake.ErrUnauthorized
	c := newTestClient(t, store)

	recs := c.GetAllRecordings(context.Background())
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestUploadRecording_ReplacesExisting(t *testing.T) {
	store := contenttest.NewStore()
	c := newTestClient(t, store)
	ctx := context.Background()

	_, err := c.UploadRecording(ctx, UploadInput{DayNumber: 2, Title: "Day 2", VideoURL: "https://vimeo.com/1", Duration: "1:00:00"})
	require.NoError(t, err)
	_, err = c.UploadRecording(ctx, UploadInput{DayNumber: 4, Title: "Day 4", VideoURL: "https://vimeo.com/4", Duration: "50:00"})
	require.NoError(t, err)

	rec, err := c.UploadRecording(ctx, UploadInput{
		DayNumber: 2,
		Title:     "Day 2 (re-recorded)",
		VideoURL:  "https://www.youtube.com/watch?v=abc123",
		Duration:  "1:05:00",
		Actor:     "trainer",
	})
	require.NoError(t, err)

	want := Recording{
		RecordingID: "rec-3",
		DayNumber:   2,
		Title:       "Day 2 (re-recorded)",
		VideoURL:    "https://www.youtube.com/watch?v=abc123",
		EmbedURL:    "https://www.youtube.com/embed/abc123",
		Platform:    PlatformYouTube,
		Duration:    "1:05:00",
		UploadedAt:  NewTimestamp(fixedNow),
		UploadedBy:  "trainer",
		ViewCount:   0,
		IsActive:    true,
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("uploaded recording mismatch (-want +got):\n%s", diff)
	}

	recs := c.GetAllRecordings(ctx)
	require.Len(t, recs, 2)
	count := 0
	for _, r := range recs {
		if r.DayNumber == 2 {
			count++
			assert.Equal(t, "rec-3", r.RecordingID)
		}
	}
	assert.Equal(t, 1, count)

	got, err := c.GetRecording(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Day 2 (re-recorded)", got.Title)
}

func TestUploadRecording_Validation(t *testing.T) {
	c := newTestClient(t, contenttest.NewStore())
	ctx := context.Background()

	_, err := c.UploadRecording(ctx, UploadInput{DayNumber: 0, Title: "x", VideoURL: "u"})
	assert.ErrorIs(t, err, ErrInvalidDayNumber)
	_, err = c.UploadRecording(ctx, UploadInput{DayNumber: 1, Title: " ", VideoURL: "u"})
	assert.ErrorIs(t, err, ErrTitleRequired)
	_, err = c.UploadRecording(ctx, UploadInput{DayNumber: 1, Title: "x"})
	assert.ErrorIs(t, err, ErrVideoURLRequired)
	_, err = c.UploadRecording(ctx, UploadInput{DayNumber: 1, Title: "x", VideoURL: "u", Platform: "twitch"})
	assert.ErrorIs(t, err, ErrInvalidPlatform)
}

func TestUploadRecording_NormalizesPlatform(t *testing.T) {
	store := contenttest.NewStore()
	c := newTestClient(t, store)

	rec, err := c.UploadRecording(context.Background(), UploadInput{
		DayNumber: 1, Title: "Day 1", VideoURL: "https://cdn.example.com/day1.mp4", Platform: " YOUTUBE ",
	})
	require.NoError(t, err)
	assert.Equal(t, PlatformYouTube, rec.Platform)

	var raw []map[string]any
	require.NoError(t, store.Decode(RecordingsDocument, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "youtube", raw[0]["platform"])
}

func TestRemoveRecording_NoneIsSuccess(t *testing.T) {
	store := contenttest.NewStore()
	store.Seed(RecordingsDocument, []Recording{})
	c := newTestClient(t, store)

	removed, err := c.RemoveRecording(context.Background(), 7)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Zero(t, store.Puts)
}

func TestRemoveRecording_DropsDay(t *testing.T) {
	store := contenttest.NewStore()
	c := newTestClient(t, store)
	ctx := context.Background()

	_, err := c.UploadRecording(ctx, UploadInput{DayNumber: 1, Title: "a", VideoURL: "https://vimeo.com/1"})
	require.NoError(t, err)
	_, err = c.UploadRecording(ctx, UploadInput{DayNumber: 2, Title: "b", VideoURL: "https://vimeo.com/2"})
	require.NoError(t, err)

	removed, err := c.RemoveRecording(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = c.GetRecording(ctx, 1)
	assert.ErrorIs(t, err, ErrRecordingNotFound)
	assert.Len(t, c.GetAllRecordings(ctx), 1)
}

func TestRemoveRecordingByID(t *testing.T) {
	store := contenttest.NewStore()
	c := newTestClient(t, store)
	ctx := context.Background()

	rec, err := c.UploadRecording(ctx, UploadInput{DayNumber: 1, Title: "a", VideoURL: "https://vimeo.com/1"})
	require.NoError(t, err)

	removed, err := c.RemoveRecordingByID(ctx, rec.RecordingID)
	require.NoError(t, err)
	assert.Equal(t, 1, removed.DayNumber)
	assert.Empty(t, c.GetAllRecordings(ctx))

	_, err = c.RemoveRecordingByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrRecordingNotFound)
}

func TestLegacyDocumentsDecode(t *testing.T) {
	store := contenttest.NewStore()
	store.SeedRaw(RecordingsDocument, []byte(`[{
		"recordingId": "r1", "dayNumber": 1, "title": "Day 1",
		"videoUrl": "https://youtu.be/x", "embedUrl": "https://www.youtube.com/embed/x",
		"platform": "YOUTUBE", "duration": "1:00:00",
		"uploadedAt": "2025-10-14T08:00:00.123456Z", "uploadedBy": "admin",
		"viewCount": 0, "isActive": true
	}]`))
	store.SeedRaw(DaysDocument, []byte(`[{"dayNumber": 1, "title": "Intro", "isUnlocked": true,
		"unlockedAt": "2025-10-14T08:00:00.5", "unlockedBy": "admin"}]`))
	c := newTestClient(t, store)

	recs, err := c.LoadRecordings(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, PlatformYouTube, recs[0].Platform)
	assert.Equal(t, "2025-10-14T08:00:00.123456Z", recs[0].UploadedAt.String())

	days, err := c.LoadDays(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-10-14T08:00:00.500000Z", days[0].UnlockedAt.String())
}

func TestLegacyRecordingsStayWritable(t *testing.T) {
	store := contenttest.NewStore()
	store.SeedRaw(RecordingsDocument, []byte(`[
		{"recordingId": "r1", "dayNumber": 1, "title": "Day 1", "videoUrl": "https://dailymotion.com/video/x1",
		 "platform": "dailymotion", "uploadedAt": null, "isActive": true},
		{"recordingId": "r2", "dayNumber": 2, "title": "Day 2", "videoUrl": "https://vimeo.com/2",
		 "platform": "vimeo", "uploadedAt": "", "isActive": true}
	]`))
	c := newTestClient(t, store)
	ctx := context.Background()

	recs, err := c.LoadRecordings(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, PlatformDirect, recs[0].Platform)
	assert.True(t, recs[0].UploadedAt.IsZero())
	assert.True(t, recs[1].UploadedAt.IsZero())
	assert.Len(t, c.GetAllRecordings(ctx), 2)

	removed, err := c.RemoveRecording(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = c.UploadRecording(ctx, UploadInput{DayNumber: 3, Title: "Day 3", VideoURL: "https://vimeo.com/3"})
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, store.Decode(RecordingsDocument, &raw))
	require.Len(t, raw, 2)
	assert.Equal(t, "r2", raw[0]["recordingId"])
	assert.Nil(t, raw[0]["uploadedAt"])
	assert.Equal(t, "2026-03-01T09:30:00.123456Z", raw[1]["uploadedAt"])
}

func TestGetStats(t *testing.T) {
	store := seededStore(t)
	c := newTestClient(t, store)
	ctx := context.Background()

	for _, d := range []int{1, 2, 3} {
		_, err := c.UnlockDay(ctx, d, "admin")
		require.NoError(t, err)
	}
	_, err := c.UploadRecording(ctx, UploadInput{DayNumber: 1, Title: "a", VideoURL: "https://vimeo.com/1"})
	require.NoError(t, err)

	stats, err := c.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalDays)
	assert.Equal(t, 3, stats.UnlockedDays)
	assert.Equal(t, 9, stats.LockedDays)
	assert.Equal(t, 1, stats.RecordingsAvailable)
	assert.Equal(t, "2026-03-01T09:30:00.123456Z", stats.LastUpdated.String())
}

func TestGetStats_StoreFailure(t *testing.T) {
	store := seededStore(t)
	store.GetErr = onelake.ErrUnavailable
	c := newTestClient(t, store)

	_, err := c.GetStats(context.Background())
	assert.Equal(t, OutcomeTransient, Classify(err))
}

func TestWrite_RetriesAfterConcurrentChange(t *testing.T) {
	store := seededStore(t)
	c := newTestClient(t, store)

	// Another writer unlocks day 9 between our read and our write, once.
	interfered := false
	store.BeforePut = func(name string) {
		if interfered {
			return
		}
		interfered = true
		days := DefaultCatalog().LockedDays()
		ts := NewTimestamp(fixedNow)
		by := "other-admin"
		days[8].IsUnlocked, days[8].UnlockedAt, days[8].UnlockedBy = true, &ts, &by
		store.Seed(DaysDocument, days)
	}

	_, err := c.UnlockDay(context.Background(), 1, "admin")
	require.NoError(t, err)
	assert.Equal(t, 2, store.Puts)

	days := c.GetAllDays(context.Background())
	d1, _ := FindDay(days, 1)
	d9, _ := FindDay(days, 9)
	assert.True(t, d1.IsUnlocked)
	assert.True(t, d9.IsUnlocked, "concurrent update must survive")
}

func TestWrite_GivesUpAfterMaxAttempts(t *testing.T) {
	store := seededStore(t)
	c := newTestClient(t, store, WithMaxWriteAttempts(3))

	store.BeforePut = func(name string) {
		store.Seed(DaysDocument, DefaultCatalog().LockedDays())
	}

	_, err := c.UnlockDay(context.Background(), 1, "admin")
	assert.ErrorIs(t, err, ErrWriteConflict)
	assert.Equal(t, OutcomeTransient, Classify(err))
	assert.Equal(t, 3, store.Puts)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, Classify(nil))
	assert.Equal(t, OutcomeNotFound, Classify(ErrRecordingNotFound))
	assert.Equal(t, OutcomeTransient, Classify(context.DeadlineExceeded))
	assert.Equal(t, OutcomeFatal, Classify(onelake.ErrUnauthorized))
	assert.Equal(t, OutcomeFatal, Classify(errors.New("boom")))
}

func TestExportForGitHub(t *testing.T) {
	store := seededStore(t)
	c := newTestClient(t, store)
	ctx := context.Background()

	_, err := c.UnlockDay(ctx, 1, "admin")
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "data")
	require.NoError(t, c.ExportForGitHub(ctx, dir))

	var days []TrainingDay
	readJSON(t, filepath.Join(dir, DaysDocument), &days)
	assert.Len(t, days, 12)

	var recs []Recording
	readJSON(t, filepath.Join(dir, RecordingsDocument), &recs)
	assert.Empty(t, recs)

	var stats Stats
	readJSON(t, filepath.Join(dir, StatsDocument), &stats)
	assert.Equal(t, 1, stats.UnlockedDays)

	raw, err := os.ReadFile(filepath.Join(dir, StatsDocument))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  \"totalDays\": 12")
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`course: Fabric
days:
  - dayNumber: 2
    title: Pipelines
  - dayNumber: 1
    title: Lakehouses
`), 0o644))

	cat, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, "Fabric", cat.Course)
	require.Len(t, cat.Days, 2)
	assert.Equal(t, "Lakehouses", cat.Days[0].Title)

	store := contenttest.NewStore()
	store.GetErr = onelake.ErrUnavailable
	c := newTestClient(t, store, WithCatalog(cat))
	assert.Len(t, c.GetAllDays(context.Background()), 2)
}

func TestLoadCatalog_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("days:\n  - dayNumber: 1\n  - dayNumber: 1\n    title: x\n"), 0o644))

	_, err := LoadCatalog(path)
	assert.ErrorIs(t, err, ErrTitleRequired)
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}
