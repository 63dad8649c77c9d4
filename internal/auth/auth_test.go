package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	user, err := Static("alice").CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", user)

	_, err = Static(" ").CurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrNoUser)
}

func TestToken_Subject(t *testing.T) {
	raw, err := IssueToken("user-42", "tenant-a", "s3cret", time.Minute)
	require.NoError(t, err)

	tok := NewToken(raw, "s3cret")
	user, err := tok.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user-42", user)

	claims, err := tok.Claims()
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", claims.TenantID)
}

func TestToken_WrongSecret(t *testing.T) {
	raw, err := IssueToken("user-42", "", "s3cret", time.Minute)
	require.NoError(t, err)

	_, err = NewToken(raw, "other").CurrentUser(context.Background())
	assert.Error(t, err)
}

func TestToken_Expired(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = NewToken(raw, "s3cret").CurrentUser(context.Background())
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestToken_MissingInputs(t *testing.T) {
	_, err := NewToken("", "s3cret").CurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrNoUser)

	_, err = NewToken("a.b.c", "").CurrentUser(context.Background())
	assert.EqualError(t, err, "auth: jwt secret is not configured")
}
