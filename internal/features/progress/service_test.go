package progress

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mo-amir99/training-portal/internal/content"
	"github.com/mo-amir99/training-portal/internal/utils/jwt"
	"github.com/mo-amir99/training-portal/pkg/types"
)

type memRepo struct {
	mu   sync.Mutex
	rows map[string]UserProgress
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[string]UserProgress)}
}

func key(userID uuid.UUID, day int) string {
	return userID.String() + "/" + string(rune('0'+day))
}

func (m *memRepo) row(userID uuid.UUID, day int) (UserProgress, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[key(userID, day)]
	return p, ok
}

func (m *memRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]UserProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []UserProgress
	for _, p := range m.rows {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memRepo) Merge(_ context.Context, p *UserProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(p.UserID, p.DayNumber)
	row, ok := m.rows[k]
	if !ok {
		p.ID = uuid.New()
		m.rows[k] = *p
		return nil
	}
	row.ViewedPresentation = row.ViewedPresentation || p.ViewedPresentation
	row.ViewedRecording = row.ViewedRecording || p.ViewedRecording
	row.Recompute()
	row.LastAccessed = p.LastAccessed
	m.rows[k] = row
	*p = row
	return nil
}

type openDays map[int]bool

func (d openDays) IsDayUnlocked(_ context.Context, day int) (bool, error) {
	unlocked, ok := d[day]
	if !ok {
		return false, content.ErrDayNotFound
	}
	return unlocked, nil
}

type emitted struct {
	userID string
	event  string
}

type fakeNotifier struct{ got []emitted }

func (f *fakeNotifier) EmitToUser(userID, event string, _ any) {
	f.got = append(f.got, emitted{userID, event})
}

func newTestService(notifier Notifier) (*Service, *memRepo) {
	repo := newMemRepo()
	svc := NewService(repo, openDays{1: true, 2: false}, notifier, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestMarkViewed_Completion(t *testing.T) {
	notifier := &fakeNotifier{}
	svc, _ := newTestService(notifier)
	ctx := context.Background()
	uid := uuid.New()

	p, err := svc.MarkViewed(ctx, uid, 1, types.ContentTypePresentation)
	require.NoError(t, err)
	assert.True(t, p.ViewedPresentation)
	assert.False(t, p.ViewedRecording)
	assert.Equal(t, "50.00", p.CompletionPercentage.String())

	p, err = svc.MarkViewed(ctx, uid, 1, types.ContentTypePresentation)
	require.NoError(t, err)
	assert.Equal(t, "50.00", p.CompletionPercentage.String())

	p, err = svc.MarkViewed(ctx, uid, 1, "RECORDING")
	require.NoError(t, err)
	assert.True(t, p.ViewedRecording)
	assert.Equal(t, "100.00", p.CompletionPercentage.String())
	assert.Equal(t, time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC), p.LastAccessed)

	require.Len(t, notifier.got, 3)
	assert.Equal(t, uid.String(), notifier.got[0].userID)

	rows, err := svc.ForUser(ctx, uid)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestMarkViewed_ConcurrentContentTypesBothLand(t *testing.T) {
	svc, repo := newTestService(nil)
	ctx := context.Background()
	uid := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		ct := types.ContentTypePresentation
		if i%2 == 1 {
			ct = types.ContentTypeRecording
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.MarkViewed(ctx, uid, 1, ct)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	row, ok := repo.row(uid, 1)
	require.True(t, ok)
	assert.True(t, row.ViewedPresentation)
	assert.True(t, row.ViewedRecording)
	assert.Equal(t, "100.00", row.CompletionPercentage.String())
}

func TestMarkViewed_DoesNotClearStoredFlags(t *testing.T) {
	svc, repo := newTestService(nil)
	ctx := context.Background()
	uid := uuid.New()
	repo.rows[key(uid, 1)] = UserProgress{ID: uuid.New(), UserID: uid, DayNumber: 1, ViewedRecording: true}

	p, err := svc.MarkViewed(ctx, uid, 1, types.ContentTypePresentation)
	require.NoError(t, err)
	assert.True(t, p.ViewedRecording)
	assert.Equal(t, "100.00", p.CompletionPercentage.String())
}

func TestMergeStatement(t *testing.T) {
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=portal dbname=portal sslmode=disable"}),
		&gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	p := UserProgress{UserID: uuid.New(), DayNumber: 3, ViewedPresentation: true}
	sql := mergeStatement(db, &p).Statement.SQL.String()

	assert.Contains(t, sql, `ON CONFLICT ("user_id","day_number") DO UPDATE SET`)
	assert.Contains(t, sql, `"viewed_presentation"=user_progress.viewed_presentation OR excluded.viewed_presentation`)
	assert.Contains(t, sql, `"viewed_recording"=user_progress.viewed_recording OR excluded.viewed_recording`)
	assert.Contains(t, sql, `"completion_percentage"=(CASE WHEN user_progress.viewed_presentation OR excluded.viewed_presentation THEN`)
	assert.NotContains(t, sql, `"viewed_recording"="excluded"."viewed_recording"`)
	assert.Contains(t, sql, "RETURNING")
}

func TestMarkViewed_Rejections(t *testing.T) {
	svc, repo := newTestService(nil)
	ctx := context.Background()
	uid := uuid.New()

	_, err := svc.MarkViewed(ctx, uid, 2, types.ContentTypeRecording)
	assert.ErrorIs(t, err, ErrDayLocked)

	_, err = svc.MarkViewed(ctx, uid, 9, types.ContentTypeRecording)
	assert.ErrorIs(t, err, content.ErrDayNotFound)

	_, err = svc.MarkViewed(ctx, uid, 1, "slides")
	assert.ErrorIs(t, err, ErrInvalidContentType)

	_, err = svc.MarkViewed(ctx, uuid.Nil, 1, types.ContentTypeRecording)
	assert.ErrorIs(t, err, ErrUserRequired)

	assert.Empty(t, repo.rows)
}

func TestAuthorize(t *testing.T) {
	self := uuid.New()
	other := uuid.New()

	student := &jwt.Claims{UserID: &self, Role: types.UserTypeStudent}
	admin := &jwt.Claims{Role: types.UserTypeAdmin}

	assert.NoError(t, Authorize(student, self))
	assert.ErrorIs(t, Authorize(student, other), ErrForbidden)
	assert.NoError(t, Authorize(admin, other))
	assert.ErrorIs(t, Authorize(nil, self), ErrForbidden)
}

func TestResolveUser(t *testing.T) {
	self := uuid.New()
	student := &jwt.Claims{UserID: &self}

	got, err := ResolveUser(student, "")
	require.NoError(t, err)
	assert.Equal(t, self, got)

	_, err = ResolveUser(&jwt.Claims{}, "")
	assert.ErrorIs(t, err, ErrUserRequired)

	_, err = ResolveUser(student, "not-a-uuid")
	assert.ErrorIs(t, err, ErrUserRequired)
}
