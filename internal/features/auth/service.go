package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mo-amir99/training-portal/internal/features/user"
	"github.com/mo-amir99/training-portal/internal/utils/jwt"
	"github.com/mo-amir99/training-portal/pkg/cache"
	"github.com/mo-amir99/training-portal/pkg/types"
)

const (
	revokedKeyPrefix = "session:revoked:"
	activeKeyPrefix  = "session:active:"
	activeCacheTTL   = time.Minute
)

// CredentialVerifier checks email and password logins.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, email, password string) (user.User, error)
}

// Config holds the secrets and lifetimes used to issue sessions.
type Config struct {
	AdminToken string
	JWTSecret  string
	SessionTTL time.Duration
}

// Service issues, verifies and revokes session tokens.
type Service struct {
	cfg      Config
	sessions SessionStore
	users    CredentialVerifier
	cache    cache.Client
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires the session service. users may be nil when logins are not offered.
func NewService(cfg Config, sessions SessionStore, users CredentialVerifier, c cache.Client, logger *slog.Logger) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	return &Service{
		cfg:      cfg,
		sessions: sessions,
		users:    users,
		cache:    c,
		logger:   logger,
		now:      time.Now,
	}
}

// ClientInfo is recorded alongside an issued session.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// Issued is what a caller receives after authenticating.
type Issued struct {
	Token        string             `json:"token"`
	SessionID    uuid.UUID          `json:"sessionId"`
	Role         types.UserType     `json:"role"`
	Capabilities []types.Capability `json:"capabilities"`
	ExpiresAt    time.Time          `json:"expiresAt"`
	User         *user.User         `json:"user,omitempty"`
}

// IssueAdminSession exchanges the shared admin secret for a session. When requested is
// empty the full admin capability set is granted; otherwise only the requested subset.
func (s *Service) IssueAdminSession(ctx context.Context, adminToken string, requested []types.Capability, client ClientInfo) (Issued, error) {
	if s.cfg.AdminToken == "" {
		return Issued{}, ErrAdminTokenDisabled
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(adminToken)), []byte(s.cfg.AdminToken)) != 1 {
		return Issued{}, ErrInvalidAdminToken
	}

	caps, err := narrow(types.AdminCapabilities, requested)
	if err != nil {
		return Issued{}, err
	}

	return s.issue(ctx, Session{
		Subject:      "admin-token",
		Role:         types.UserTypeAdmin,
		Capabilities: toStrings(caps),
		ClientIP:     client.IP,
		UserAgent:    client.UserAgent,
	}, nil)
}

// Login authenticates a portal user by email and password.
func (s *Service) Login(ctx context.Context, email, password string, client ClientInfo) (Issued, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return Issued{}, ErrMissingFields
	}
	if s.users == nil {
		return Issued{}, ErrInvalidCredentials
	}

	usr, err := s.users.VerifyCredentials(ctx, email, password)
	switch {
	case errors.Is(err, user.ErrInvalidCredentials):
		return Issued{}, ErrInvalidCredentials
	case errors.Is(err, user.ErrInactiveUser):
		return Issued{}, ErrInactiveAccount
	case err != nil:
		return Issued{}, err
	}

	userID := usr.ID
	return s.issue(ctx, Session{
		UserID:       &userID,
		Subject:      usr.Email,
		Role:         usr.UserType,
		Capabilities: toStrings(types.CapabilitiesFor(usr.UserType)),
		ClientIP:     client.IP,
		UserAgent:    client.UserAgent,
	}, &usr)
}

func (s *Service) issue(ctx context.Context, session Session, usr *user.User) (Issued, error) {
	now := s.now().UTC()
	session.ID = uuid.New()
	session.CreatedAt = now
	session.ExpiresAt = now.Add(s.cfg.SessionTTL)

	if err := s.sessions.Create(ctx, &session); err != nil {
		return Issued{}, fmt.Errorf("store session: %w", err)
	}

	caps := fromStrings(session.Capabilities)
	token, err := jwt.GenerateSessionToken(jwt.Session{
		ID:           session.ID,
		UserID:       session.UserID,
		Subject:      session.Subject,
		Role:         session.Role,
		Capabilities: caps,
		IssuedAt:     now,
		ExpiresAt:    session.ExpiresAt,
	}, s.cfg.JWTSecret)
	if err != nil {
		return Issued{}, fmt.Errorf("sign session: %w", err)
	}

	s.logger.Info("session issued",
		slog.String("sessionId", session.ID.String()),
		slog.String("subject", session.Subject),
		slog.String("role", string(session.Role)),
		slog.Time("expiresAt", session.ExpiresAt),
	)

	return Issued{
		Token:        token,
		SessionID:    session.ID,
		Role:         session.Role,
		Capabilities: caps,
		ExpiresAt:    session.ExpiresAt,
		User:         usr,
	}, nil
}

// Authenticate verifies a session token and rejects revoked sessions.
func (s *Service) Authenticate(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := jwt.VerifyToken(token, s.cfg.JWTSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	sid := claims.SessionID()
	if _, err := s.cache.Get(ctx, revokedKeyPrefix+sid.String()); err == nil {
		return nil, ErrSessionRevoked
	}
	if _, err := s.cache.Get(ctx, activeKeyPrefix+sid.String()); err == nil {
		return claims, nil
	}

	session, err := s.sessions.Get(ctx, sid)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session.RevokedAt != nil {
		s.markRevoked(ctx, sid, session.ExpiresAt)
		return nil, ErrSessionRevoked
	}

	if err := s.cache.Set(ctx, activeKeyPrefix+sid.String(), "1", activeCacheTTL); err != nil {
		s.logger.Warn("failed to cache session", slog.String("error", err.Error()))
	}
	return claims, nil
}

// Revoke ends a session before it expires.
func (s *Service) Revoke(ctx context.Context, claims *jwt.Claims) error {
	sid := claims.SessionID()
	if err := s.sessions.Revoke(ctx, sid, s.now().UTC()); err != nil {
		return err
	}

	expiresAt := s.now().Add(s.cfg.SessionTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	s.markRevoked(ctx, sid, expiresAt)

	s.logger.Info("session revoked", slog.String("sessionId", sid.String()))
	return nil
}

// PurgeExpired deletes sessions that expired before now.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now().UTC())
}

func (s *Service) markRevoked(ctx context.Context, sid uuid.UUID, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	_ = s.cache.Delete(ctx, activeKeyPrefix+sid.String())
	if err := s.cache.Set(ctx, revokedKeyPrefix+sid.String(), "1", ttl); err != nil {
		s.logger.Warn("failed to cache session revocation", slog.String("error", err.Error()))
	}
}

// narrow returns requested when it is a subset of allowed, or allowed when nothing was requested.
func narrow(allowed, requested []types.Capability) ([]types.Capability, error) {
	if len(requested) == 0 {
		return append([]types.Capability(nil), allowed...), nil
	}

	out := make([]types.Capability, 0, len(requested))
	seen := make(map[types.Capability]bool, len(requested))
	for _, want := range requested {
		ok := false
		for _, have := range allowed {
			if want == have {
				ok = true
				break
			}
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrCapabilityDenied, want)
		}
		if !seen[want] {
			seen[want] = true
			out = append(out, want)
		}
	}
	return out, nil
}

func toStrings(caps []types.Capability) []string {
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = string(c)
	}
	return out
}

func fromStrings(values []string) []types.Capability {
	out := make([]types.Capability, len(values))
	for i, v := range values {
		out[i] = types.Capability(v)
	}
	return out
}
