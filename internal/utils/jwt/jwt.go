package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mo-amir99/training-portal/pkg/types"
)

const issuer = "training-portal"

var (
	ErrInvalidToken = errors.New("invalid or malformed token")
	ErrExpiredToken = errors.New("token has expired")
	ErrRevoked      = errors.New("session has been revoked")
)

// Claims is the payload of a session token. The registered ID is the session id.
type Claims struct {
	UserID       *uuid.UUID         `json:"uid,omitempty"`
	Role         types.UserType     `json:"role"`
	Capabilities []types.Capability `json:"caps"`
	jwt.RegisteredClaims
}

// SessionID returns the revocable session identifier.
func (c *Claims) SessionID() uuid.UUID {
	id, err := uuid.Parse(c.ID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// Has reports whether the session carries a capability.
func (c *Claims) Has(want types.Capability) bool {
	for _, have := range c.Capabilities {
		if have == want {
			return true
		}
	}
	return false
}

// Session describes a token to issue.
type Session struct {
	ID           uuid.UUID
	UserID       *uuid.UUID
	Subject      string
	Role         types.UserType
	Capabilities []types.Capability
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// GenerateSessionToken signs a session with HS256.
func GenerateSessionToken(s Session, secret string) (string, error) {
	claims := Claims{
		UserID:       s.UserID,
		Role:         s.Role,
		Capabilities: s.Capabilities,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID.String(),
			Issuer:    issuer,
			Subject:   s.Subject,
			IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyToken validates a JWT and extracts claims.
func VerifyToken(tokenString string, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.SessionID() == uuid.Nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
