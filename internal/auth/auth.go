// Package auth supplies the identity recorded on every imported reading.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CurrentUser resolves the user an import is attributed to.
type CurrentUser interface {
	CurrentUser(ctx context.Context) (string, error)
}

// ErrNoUser is returned when no identity is available.
var ErrNoUser = errors.New("auth: no current user")

// Static is a fixed identity, typically taken from a flag or config.
type Static string

// CurrentUser returns the fixed identity.
func (s Static) CurrentUser(ctx context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrNoUser
	}
	return string(s), nil
}

// Claims is the token payload shared with the property-management backend.
type Claims struct {
	TenantID string `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}

// Token resolves the user from the subject of an HS256 signed JWT.
type Token struct {
	raw    string
	secret []byte
}

// NewToken returns a CurrentUser backed by the given token and secret.
func NewToken(raw, secret string) *Token {
	return &Token{raw: strings.TrimSpace(raw), secret: []byte(secret)}
}

// CurrentUser verifies the token and returns its subject.
func (t *Token) CurrentUser(ctx context.Context) (string, error) {
	claims, err := t.Claims()
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("auth: token has no subject")
	}
	return claims.Subject, nil
}

// Claims verifies the token and returns its payload.
func (t *Token) Claims() (*Claims, error) {
	if t.raw == "" {
		return nil, ErrNoUser
	}
	if len(t.secret) == 0 {
		return nil, errors.New("auth: jwt secret is not configured")
	}

	token, err := jwt.ParseWithClaims(t.raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("auth: unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("auth: invalid claims")
}

// IssueToken signs a token for the subject. Used by tooling and tests.
func IssueToken(subject, tenantID, secret string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("auth: subject is required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	now := time.Now().UTC()
	claims := Claims{
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
