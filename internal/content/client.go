package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mo-amir99/training-portal/internal/onelake"
	"github.com/mo-amir99/training-portal/pkg/metrics"
)

const (
	defaultActor       = "admin"
	defaultMaxAttempts = 5
)

// DocumentStore is the whole-document storage the client reads and replaces.
// Put must honour etag as a precondition and report onelake.ErrPreconditionFailed
// when it no longer matches.
type DocumentStore interface {
	Get(ctx context.Context, name string) (onelake.Document, error)
	Put(ctx context.Context, name string, body []byte, etag string) (string, error)
}

// Client owns every read-modify-write cycle against the two content collections.
type Client struct {
	store       DocumentStore
	logger      *slog.Logger
	catalog     Catalog
	maxAttempts int
	now         func() time.Time
	newID       func() string

	// mu serialises writes issued through this client.
	mu sync.Mutex
}

// Option customises a Client.
type Option func(*Client)

// WithCatalog replaces the built-in default days.
func WithCatalog(cat Catalog) Option {
	return func(c *Client) { c.catalog = cat }
}

// WithMaxWriteAttempts bounds how often a write is retried after a version conflict.
func WithMaxWriteAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithIDGenerator overrides recording id generation.
func WithIDGenerator(newID func() string) Option {
	return func(c *Client) { c.newID = newID }
}

// NewClient creates a content client over store.
func NewClient(store DocumentStore, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		store:       store,
		logger:      logger,
		catalog:     DefaultCatalog(),
		maxAttempts: defaultMaxAttempts,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Catalog returns the seed catalog used for defaults.
func (c *Client) Catalog() Catalog {
	return c.catalog
}

// ---------- Training days ----------

// GetAllDays never fails: when the store cannot be read the default locked days are returned.
func (c *Client) GetAllDays(ctx context.Context) []TrainingDay {
	days, _, err := c.loadDays(ctx)
	if err != nil {
		metrics.RecordReadFallback("days")
		c.logger.Warn("falling back to default training days", slog.String("error", err.Error()))
		return c.catalog.LockedDays()
	}
	return days
}

// LoadDays reads the days collection and reports store failures.
// A days document that does not exist yet yields the default days.
func (c *Client) LoadDays(ctx context.Context) ([]TrainingDay, error) {
	days, _, err := c.loadDays(ctx)
	return days, err
}

// UnlockDay marks a day as unlocked by actor.
func (c *Client) UnlockDay(ctx context.Context, dayNumber int, actor string) (TrainingDay, error) {
	if dayNumber <= 0 {
		return TrainingDay{}, ErrInvalidDayNumber
	}
	actor = actorOrDefault(actor)

	var updated TrainingDay
	err := c.updateDays(ctx, func(days []TrainingDay) error {
		i := indexOfDay(days, dayNumber)
		if i < 0 {
			return ErrDayNotFound
		}
		ts := NewTimestamp(c.now())
		days[i].IsUnlocked = true
		days[i].UnlockedAt = &ts
		days[i].UnlockedBy = &actor
		updated = days[i]
		return nil
	})
	if err != nil {
		return TrainingDay{}, fmt.Errorf("unlock day %d: %w", dayNumber, err)
	}

	c.logger.Info("training day unlocked", slog.Int("day", dayNumber), slog.String("actor", actor))
	return updated, nil
}

// LockDay clears the unlock fields of a day.
func (c *Client) LockDay(ctx context.Context, dayNumber int) (TrainingDay, error) {
	if dayNumber <= 0 {
		return TrainingDay{}, ErrInvalidDayNumber
	}

	var updated TrainingDay
	err := c.updateDays(ctx, func(days []TrainingDay) error {
		i := indexOfDay(days, dayNumber)
		if i < 0 {
			return ErrDayNotFound
		}
		days[i].IsUnlocked = false
		days[i].UnlockedAt = nil
		days[i].UnlockedBy = nil
		updated = days[i]
		return nil
	})
	if err != nil {
		return TrainingDay{}, fmt.Errorf("lock day %d: %w", dayNumber, err)
	}

	c.logger.Info("training day locked", slog.Int("day", dayNumber))
	return updated, nil
}

// UnlockAllDays unlocks every day with one shared timestamp and returns how many days exist.
func (c *Client) UnlockAllDays(ctx context.Context, actor string) (int, error) {
	actor = actorOrDefault(actor)

	var count int
	err := c.updateDays(ctx, func(days []TrainingDay) error {
		ts := NewTimestamp(c.now())
		for i := range days {
			by := actor
			at := ts
			days[i].IsUnlocked = true
			days[i].UnlockedAt = &at
			days[i].UnlockedBy = &by
		}
		count = len(days)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("unlock all days: %w", err)
	}

	c.logger.Info("all training days unlocked", slog.Int("count", count), slog.String("actor", actor))
	return count, nil
}

// ---------- Recordings ----------

// GetAllRecordings never fails: when the store cannot be read an empty list is returned.
func (c *Client) GetAllRecordings(ctx context.Context) []Recording {
	recs, _, err := c.loadRecordings(ctx)
	if err != nil {
		metrics.RecordReadFallback("recordings")
		c.logger.Warn("falling back to empty recordings", slog.String("error", err.Error()))
		return []Recording{}
	}
	return recs
}

// LoadRecordings reads the recordings collection and reports store failures.
func (c *Client) LoadRecordings(ctx context.Context) ([]Recording, error) {
	recs, _, err := c.loadRecordings(ctx)
	return recs, err
}

// GetRecording returns the recording attached to a day.
func (c *Client) GetRecording(ctx context.Context, dayNumber int) (Recording, error) {
	recs, err := c.LoadRecordings(ctx)
	if err != nil {
		return Recording{}, err
	}
	if rec, ok := RecordingForDay(recs, dayNumber); ok {
		return rec, nil
	}
	return Recording{}, ErrRecordingNotFound
}

// UploadRecording replaces any recording for the day with a new one.
func (c *Client) UploadRecording(ctx context.Context, in UploadInput) (Recording, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.VideoURL = strings.TrimSpace(in.VideoURL)

	switch {
	case in.DayNumber <= 0:
		return Recording{}, ErrInvalidDayNumber
	case in.Title == "":
		return Recording{}, ErrTitleRequired
	case in.VideoURL == "":
		return Recording{}, ErrVideoURLRequired
	}
	if in.Platform == "" {
		in.Platform = DetectPlatform(in.VideoURL)
	} else {
		p, err := ParsePlatform(string(in.Platform))
		if err != nil {
			return Recording{}, err
		}
		in.Platform = p
	}

	rec := Recording{
		RecordingID: c.newID(),
		DayNumber:   in.DayNumber,
		Title:       in.Title,
		VideoURL:    in.VideoURL,
		EmbedURL:    EmbedURL(in.VideoURL),
		Platform:    in.Platform,
		Duration:    in.Duration,
		UploadedBy:  actorOrDefault(in.Actor),
		ViewCount:   0,
		IsActive:    true,
	}

	err := c.updateRecordings(ctx, func(recs []Recording) ([]Recording, bool, error) {
		rec.UploadedAt = NewTimestamp(c.now())
		kept, _ := withoutDay(recs, in.DayNumber)
		return append(kept, rec), true, nil
	})
	if err != nil {
		return Recording{}, fmt.Errorf("upload recording for day %d: %w", in.DayNumber, err)
	}

	c.logger.Info("recording uploaded",
		slog.Int("day", rec.DayNumber),
		slog.String("recordingId", rec.RecordingID),
		slog.String("platform", string(rec.Platform)),
		slog.String("actor", rec.UploadedBy),
	)
	return rec, nil
}

// RemoveRecording drops every recording for a day. Removing nothing is not an error.
func (c *Client) RemoveRecording(ctx context.Context, dayNumber int) (int, error) {
	if dayNumber <= 0 {
		return 0, ErrInvalidDayNumber
	}

	var removed int
	err := c.updateRecordings(ctx, func(recs []Recording) ([]Recording, bool, error) {
		var kept []Recording
		kept, removed = withoutDay(recs, dayNumber)
		return kept, removed > 0, nil
	})
	if err != nil {
		return 0, fmt.Errorf("remove recording for day %d: %w", dayNumber, err)
	}

	c.logger.Info("recording removed", slog.Int("day", dayNumber), slog.Int("removed", removed))
	return removed, nil
}

// RemoveRecordingByID drops a single recording.
func (c *Client) RemoveRecordingByID(ctx context.Context, recordingID string) (Recording, error) {
	var removed Recording
	err := c.updateRecordings(ctx, func(recs []Recording) ([]Recording, bool, error) {
		for i, r := range recs {
			if r.RecordingID == recordingID {
				removed = r
				return append(recs[:i:i], recs[i+1:]...), true, nil
			}
		}
		return nil, false, ErrRecordingNotFound
	})
	if err != nil {
		return Recording{}, fmt.Errorf("remove recording %s: %w", recordingID, err)
	}

	c.logger.Info("recording removed", slog.Int("day", removed.DayNumber), slog.String("recordingId", recordingID))
	return removed, nil
}

// ---------- Stats ----------

// Snapshot reads both collections concurrently.
func (c *Client) Snapshot(ctx context.Context) ([]TrainingDay, []Recording, error) {
	var (
		days []TrainingDay
		recs []Recording
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		days, err = c.LoadDays(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		recs, err = c.LoadRecordings(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return days, recs, nil
}

// GetStats summarises both collections.
func (c *Client) GetStats(ctx context.Context) (Stats, error) {
	days, recs, err := c.Snapshot(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("get stats: %w", err)
	}
	return ComputeStats(days, recs, c.now()), nil
}

// ComputeStats counts days and recordings as of now.
func ComputeStats(days []TrainingDay, recs []Recording, now time.Time) Stats {
	unlocked := len(UnlockedDays(days))
	return Stats{
		TotalDays:           len(days),
		UnlockedDays:        unlocked,
		LockedDays:          len(days) - unlocked,
		RecordingsAvailable: len(recs),
		LastUpdated:         NewTimestamp(now),
	}
}

// UnlockedDays filters days down to the unlocked ones, keeping order.
func UnlockedDays(days []TrainingDay) []TrainingDay {
	out := make([]TrainingDay, 0, len(days))
	for _, d := range days {
		if d.IsUnlocked {
			out = append(out, d)
		}
	}
	return out
}

// FindDay returns the first day with the given number.
func FindDay(days []TrainingDay, dayNumber int) (TrainingDay, bool) {
	if i := indexOfDay(days, dayNumber); i >= 0 {
		return days[i], true
	}
	return TrainingDay{}, false
}

// RecordingForDay returns the first recording attached to a day.
func RecordingForDay(recs []Recording, dayNumber int) (Recording, bool) {
	for _, r := range recs {
		if r.DayNumber == dayNumber {
			return r, true
		}
	}
	return Recording{}, false
}

// ---------- internals ----------

func (c *Client) loadDays(ctx context.Context) ([]TrainingDay, string, error) {
	doc, err := c.store.Get(ctx, DaysDocument)
	if errors.Is(err, onelake.ErrNotFound) {
		return c.catalog.LockedDays(), "", nil
	}
	if err != nil {
		return nil, "", err
	}

	var days []TrainingDay
	if err := json.Unmarshal(doc.Body, &days); err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrMalformedDocument, DaysDocument, err)
	}
	if days == nil {
		days = []TrainingDay{}
	}
	return days, doc.ETag, nil
}

func (c *Client) loadRecordings(ctx context.Context) ([]Recording, string, error) {
	doc, err := c.store.Get(ctx, RecordingsDocument)
	if errors.Is(err, onelake.ErrNotFound) {
		return []Recording{}, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	var recs []Recording
	if err := json.Unmarshal(doc.Body, &recs); err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrMalformedDocument, RecordingsDocument, err)
	}
	if recs == nil {
		recs = []Recording{}
	}
	return recs, doc.ETag, nil
}

// updateDays runs mutate against a fresh copy of the days and writes the result
// back conditionally, starting over whenever another writer got there first.
func (c *Client) updateDays(ctx context.Context, mutate func([]TrainingDay) error) error {
	return c.writeLoop(ctx, DaysDocument, func() ([]byte, string, bool, error) {
		days, etag, err := c.loadDays(ctx)
		if err != nil {
			return nil, "", false, err
		}
		if err := mutate(days); err != nil {
			return nil, "", false, err
		}
		body, err := marshalDocument(days)
		return body, etag, true, err
	})
}

func (c *Client) updateRecordings(ctx context.Context, mutate func([]Recording) ([]Recording, bool, error)) error {
	return c.writeLoop(ctx, RecordingsDocument, func() ([]byte, string, bool, error) {
		recs, etag, err := c.loadRecordings(ctx)
		if err != nil {
			return nil, "", false, err
		}
		next, changed, err := mutate(recs)
		if err != nil || !changed {
			return nil, "", false, err
		}
		body, err := marshalDocument(next)
		return body, etag, true, err
	})
}

func (c *Client) writeLoop(ctx context.Context, name string, prepare func() ([]byte, string, bool, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		body, etag, write, err := prepare()
		if err != nil || !write {
			return err
		}

		_, err = c.store.Put(ctx, name, body, etag)
		if err == nil {
			return nil
		}
		if !errors.Is(err, onelake.ErrPreconditionFailed) {
			return err
		}

		metrics.RecordWriteConflict(strings.TrimSuffix(name, ".json"))
		c.logger.Warn("document changed during write, retrying",
			slog.String("document", name),
			slog.Int("attempt", attempt),
		)
	}

	return ErrWriteConflict
}

func marshalDocument(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func indexOfDay(days []TrainingDay, dayNumber int) int {
	for i, d := range days {
		if d.DayNumber == dayNumber {
			return i
		}
	}
	return -1
}

func withoutDay(recs []Recording, dayNumber int) ([]Recording, int) {
	kept := make([]Recording, 0, len(recs))
	for _, r := range recs {
		if r.DayNumber != dayNumber {
			kept = append(kept, r)
		}
	}
	return kept, len(recs) - len(kept)
}

func actorOrDefault(actor string) string {
	if a := strings.TrimSpace(actor); a != "" {
		return a
	}
	return defaultActor
}
