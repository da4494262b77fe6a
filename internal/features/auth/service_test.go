package auth

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
	"golang.org/x/crypto/bcrypt"

	"github.com/mo-amir99/training-portal/internal/features/user"
	"github.com/mo-amir99/training-portal/pkg/cache"
	"github.com/mo-amir99/training-portal/pkg/types"
)

type memorySessions struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]Session
	gets     int
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: make(map[uuid.UUID]Session)}
}

func (m *memorySessions) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *memorySessions) Get(_ context.Context, id uuid.UUID) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

func (m *memorySessions) Revoke(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.RevokedAt != nil {
		return ErrSessionNotFound
	}
	s.RevokedAt = &at
	m.sessions[id] = s
	return nil
}

func (m *memorySessions) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.ExpiresAt.Before(before) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

type fakeUsers struct {
	users map[string]user.User
}

func (f *fakeUsers) VerifyCredentials(_ context.Context, email, password string) (user.User, error) {
	u, ok := f.users[email]
	if !ok || !u.ComparePassword(password) {
		return user.User{}, user.ErrInvalidCredentials
	}
	if !u.Active {
		return user.User{}, user.ErrInactiveUser
	}
	return u, nil
}

func newStudent(t *testing.T, email, password string, active bool) user.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := user.User{Email: email, Password: string(hash), UserType: types.UserTypeStudent, Active: active}
	u.ID = uuid.New()
	return u
}

func newTestService(t *testing.T) (*Service, *memorySessions) {
	t.Helper()
	c := cache.NewMemoryCache()
	t.Cleanup(func() { c.Close() })

	sessions := newMemorySessions()
	users := &fakeUsers{users: map[string]user.User{
		"ana@example.com":  newStudent(t, "ana@example.com", "correct-horse", true),
		"gone@example.com": newStudent(t, "gone@example.com", "correct-horse", false),
	}}

	svc := NewService(Config{
		AdminToken: "s3cret-admin",
		JWTSecret:  "jwt-secret",
		SessionTTL: 10 * time.Minute,
	}, sessions, users, c, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, sessions
}

func TestIssueAdminSession(t *testing.T) {
	svc, sessions := newTestService(t)
	ctx := context.Background()

	issued, err := svc.IssueAdminSession(ctx, "s3cret-admin", nil, ClientInfo{IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.ElementsMatch(t, types.AdminCapabilities, issued.Capabilities)
	assert.Equal(t, types.UserTypeAdmin, issued.Role)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), issued.ExpiresAt, 5*time.Second)

	stored, err := sessions.Get(ctx, issued.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", stored.ClientIP)

	claims, err := svc.Authenticate(ctx, issued.Token)
	require.NoError(t, err)
	assert.True(t, claims.Has(types.CapDaysWrite))
}

func TestIssueAdminSession_Narrowed(t *testing.T) {
	svc, _ := newTestService(t)

	issued, err := svc.IssueAdminSession(context.Background(), "s3cret-admin",
		[]types.Capability{types.CapStatsRead, types.CapStatsRead}, ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, []types.Capability{types.CapStatsRead}, issued.Capabilities)

	claims, err := svc.Authenticate(context.Background(), issued.Token)
	require.NoError(t, err)
	assert.False(t, claims.Has(types.CapDaysWrite))
}

func TestIssueAdminSession_Rejects(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.IssueAdminSession(ctx, "wrong", nil, ClientInfo{})
	assert.ErrorIs(t, err, ErrInvalidAdminToken)

	_, err = svc.IssueAdminSession(ctx, "s3cret-admin", []types.Capability{"days:delete"}, ClientInfo{})
	assert.ErrorIs(t, err, ErrCapabilityDenied)

	svc.cfg.AdminToken = ""
	_, err = svc.IssueAdminSession(ctx, "", nil, ClientInfo{})
	assert.ErrorIs(t, err, ErrAdminTokenDisabled)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	issued, err := svc.Login(ctx, "ana@example.com", "correct-horse", ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, []types.Capability{types.CapProgressWrite}, issued.Capabilities)
	require.NotNil(t, issued.User)

	claims, err := svc.Authenticate(ctx, issued.Token)
	require.NoError(t, err)
	require.NotNil(t, claims.UserID)
	assert.Equal(t, issued.User.ID, *claims.UserID)

	_, err = svc.Login(ctx, "ana@example.com", "wrong", ClientInfo{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "gone@example.com", "correct-horse", ClientInfo{})
	assert.ErrorIs(t, err, ErrInactiveAccount)

	_, err = svc.Login(ctx, "", "", ClientInfo{})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestRevoke(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	issued, err := svc.IssueAdminSession(ctx, "s3cret-admin", nil, ClientInfo{})
	require.NoError(t, err)
	claims, err := svc.Authenticate(ctx, issued.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, claims))

	_, err = svc.Authenticate(ctx, issued.Token)
	assert.ErrorIs(t, err, ErrSessionRevoked)
}

func TestAuthenticate_RevokedElsewhere(t *testing.T) {
	svc, sessions := newTestService(t)
	ctx := context.Background()

	issued, err := svc.IssueAdminSession(ctx, "s3cret-admin", nil, ClientInfo{})
	require.NoError(t, err)
	require.NoError(t, sessions.Revoke(ctx, issued.SessionID, time.Now()))

	_, err = svc.Authenticate(ctx, issued.Token)
	assert.ErrorIs(t, err, ErrSessionRevoked)
}

func TestAuthenticate_CachesActiveSessions(t *testing.T) {
	svc, sessions := newTestService(t)
	ctx := context.Background()

	issued, err := svc.IssueAdminSession(ctx, "s3cret-admin", nil, ClientInfo{})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.Authenticate(ctx, issued.Token)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, sessions.gets)
}

func TestAuthenticate_Invalid(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Authenticate(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticate_Expired(t *testing.T) {
	svc, _ := newTestService(t)
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }

	issued, err := svc.IssueAdminSession(context.Background(), "s3cret-admin", nil, ClientInfo{})
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), issued.Token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestPurgeExpired(t *testing.T) {
	svc, sessions := newTestService(t)
	ctx := context.Background()

	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	_, err := svc.IssueAdminSession(ctx, "s3cret-admin", nil, ClientInfo{})
	require.NoError(t, err)
	svc.now = time.Now
	_, err = svc.IssueAdminSession(ctx, "s3cret-admin", nil, ClientInfo{})
	require.NoError(t, err)

	n, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Len(t, sessions.sessions, 1)
}
