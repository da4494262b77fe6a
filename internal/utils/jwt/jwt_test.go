package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mo-amir99/training-portal/pkg/types"
)

const secret = "test-secret"

func TestGenerateAndVerify(t *testing.T) {
	sid := uuid.New()
	now := time.Now()

	token, err := GenerateSessionToken(Session{
		ID:           sid,
		Subject:      "admin",
		Role:         types.UserTypeAdmin,
		Capabilities: types.AdminCapabilities,
		IssuedAt:     now,
		ExpiresAt:    now.Add(time.Minute),
	}, secret)
	require.NoError(t, err)

	claims, err := VerifyToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, sid, claims.SessionID())
	assert.Equal(t, types.UserTypeAdmin, claims.Role)
	assert.True(t, claims.Has(types.CapDaysWrite))
	assert.Nil(t, claims.UserID)
}

func TestVerify_Expired(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	token, err := GenerateSessionToken(Session{
		ID:        uuid.New(),
		Role:      types.UserTypeStudent,
		IssuedAt:  past,
		ExpiresAt: past.Add(time.Minute),
	}, secret)
	require.NoError(t, err)

	_, err = VerifyToken(token, secret)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := GenerateSessionToken(Session{
		ID:        uuid.New(),
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Minute),
	}, secret)
	require.NoError(t, err)

	_, err = VerifyToken(token, "other")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RequiresSessionIDAndExpiry(t *testing.T) {
	noExpiry := gojwt.NewWithClaims(gojwt.SigningMethodHS256, Claims{
		RegisteredClaims: gojwt.RegisteredClaims{ID: uuid.NewString(), Issuer: issuer},
	})
	signed, err := noExpiry.SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = VerifyToken(signed, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noID := gojwt.NewWithClaims(gojwt.SigningMethodHS256, Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	signed, err = noID.SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = VerifyToken(signed, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
