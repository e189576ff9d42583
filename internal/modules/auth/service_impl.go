package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

type service struct {
	cfg Config
	key []byte
}

// NewService creates a new auth service.
func NewService(cfg Config) Service {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &service{cfg: cfg, key: []byte(cfg.JWTSecret)}
}

func (s *service) Login(ctx context.Context, operatorID, secret string) (string, time.Time, error) {
	if s.cfg.OperatorID == "" || s.cfg.OperatorSecretHash == "" {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(operatorID), []byte(s.cfg.OperatorID)) != 1 {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.OperatorSecretHash), []byte(secret)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	expirationTime := time.Now().Add(s.cfg.TokenTTL)
	claims := &jwt.StandardClaims{
		Subject:   operatorID,
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: expirationTime.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tokenString, expirationTime, nil
}

func (s *service) Verify(tokenString string) (string, error) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
