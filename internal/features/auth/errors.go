package auth

import (
	"errors"

	"github.com/mo-amir99/training-portal/internal/utils/jwt"
)

var (
	ErrInvalidAdminToken  = errors.New("invalid admin token")
	ErrAdminTokenDisabled = errors.New("admin token sessions are disabled")
	ErrCapabilityDenied   = errors.New("requested capability cannot be granted")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveAccount    = errors.New("account is inactive")
	ErrMissingFields      = errors.New("missing required fields")
	ErrSessionNotFound    = errors.New("session not found")

	ErrInvalidToken   = jwt.ErrInvalidToken
	ErrExpiredToken   = jwt.ErrExpiredToken
	ErrSessionRevoked = jwt.ErrRevoked
)
