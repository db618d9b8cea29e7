package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"bookstore/internal/platform/crypto"
)

var ErrUnauthorized = errors.New("unauthorized")

// DefaultTokenTTL is how long an operator token stays valid.
const DefaultTokenTTL = time.Hour

// Service authenticates the single configured operator.
type Service struct {
	secret       string
	username     string
	passwordHash string
	ttl          time.Duration
}

func NewService(secret, username, passwordHash string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{
		secret:       secret,
		username:     username,
		passwordHash: passwordHash,
		ttl:          ttl,
	}
}

// Login checks the operator credentials and returns a signed token and its
// lifetime in seconds. With no password hash configured every login fails.
func (s *Service) Login(_ context.Context, username, password string) (string, int, error) {
	if s.passwordHash == "" {
		return "", 0, ErrUnauthorized
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := crypto.VerifyPassword(s.passwordHash, password)
	if !userOK || !passOK {
		return "", 0, ErrUnauthorized
	}

	token, _, err := crypto.GenerateToken(s.secret, s.username, crypto.RoleOperator, s.ttl)
	if err != nil {
		return "", 0, err
	}
	return token, int(s.ttl.Seconds()), nil
}
