package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// RoleOperator may mutate the catalog. It is the only role issued.
	RoleOperator = "OPERATOR"

	// Issuer is stamped into and required on every token.
	Issuer = "bookstore"
)

var errEmptySecret = errors.New("crypto: empty signing secret")

// Claims identifies an operator session.
type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var parser = jwt.NewParser(
	jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	jwt.WithIssuer(Issuer),
	jwt.WithIssuedAt(),
	jwt.WithExpirationRequired(),
)

func newTokenID() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("token id: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

// GenerateToken signs an HS256 token for subject and returns it with its id.
func GenerateToken(secret, subject, role string, ttl time.Duration) (token, id string, err error) {
	if secret == "" {
		return "", "", errEmptySecret
	}
	if id, err = newTokenID(); err != nil {
		return "", "", err
	}

	issued := time.Now()
	claims := &Claims{
		Sub:  subject,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", "", fmt.Errorf("sign token: %w", err)
	}
	return token, id, nil
}

// ParseToken verifies signature, algorithm, issuer and expiry.
func ParseToken(secret, token string) (*Claims, error) {
	if secret == "" {
		return nil, errEmptySecret
	}
	claims := &Claims{}
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}
