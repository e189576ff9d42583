package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Service defines operator authentication for write endpoints.
type Service interface {
	// Login checks the operator secret and issues a signed bearer token.
	Login(ctx context.Context, operatorID, secret string) (string, time.Time, error)

	// Verify returns the token's subject.
	Verify(token string) (string, error)
}

// Config holds the single operator account and signing key.
type Config struct {
	JWTSecret          string
	OperatorID         string
	OperatorSecretHash string // bcrypt
	TokenTTL           time.Duration
}
