package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	// ErrMissingToken is returned when a request carries no bearer token.
	ErrMissingToken = errors.New("missing authentication token")
	// ErrInvalidToken is returned for malformed, expired or unsigned tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string `json:"userId"`
}

// IdentityProvider resolves a bearer token into an Identity.
type IdentityProvider interface {
	Identify(ctx context.Context, token string) (Identity, error)
}

// JWTIdentityProvider verifies HS256 tokens issued by the auth service.
// The subject claim carries the user id and an expiry is mandatory.
type JWTIdentityProvider struct {
	secret []byte
}

// NewJWTIdentityProvider creates a provider verifying with secret
func NewJWTIdentityProvider(secret []byte) *JWTIdentityProvider {
	return &JWTIdentityProvider{secret: secret}
}

// Identify validates token and returns the identity it names.
func (p *JWTIdentityProvider) Identify(ctx context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return Identity{}, ErrMissingToken
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.ExpiresAt == nil || claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}

	return Identity{UserID: claims.Subject}, nil
}

// GenerateJWT issues a token for userID valid for ttl. Used by tests and
// the CLI; production tokens come from the auth service.
func GenerateJWT(userID string, secret []byte, ttl time.Duration) (string, int64, error) {
	now := time.Now()
	expirationTime := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expirationTime),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(secret)
	if err != nil {
		return "", 0, err
	}
	return signedToken, expirationTime.Unix(), nil
}
