package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTResolverRoundTrip(t *testing.T) {
	r, err := NewJWTResolver("secret")
	require.NoError(t, err)

	token, err := r.Sign("user-1", "a@example.com", time.Hour)
	require.NoError(t, err)

	id, err := r.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.UserID)
	assert.Equal(t, "a@example.com", id.Email)
}

func TestJWTResolverRejects(t *testing.T) {
	r, err := NewJWTResolver("secret")
	require.NoError(t, err)
	other, err := NewJWTResolver("other-secret")
	require.NoError(t, err)

	wrongKey, err := other.Sign("user-1", "", 0)
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{}).SignedString([]byte("secret"))
	require.NoError(t, err)

	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "user-1"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	cases := map[string]string{
		"garbage":    "not.a.token",
		"wrong key":  wrongKey,
		"expired":    expired,
		"no subject": noSubject,
		"wrong alg":  wrongAlg,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), token)
			assert.True(t, errors.Is(err, ErrInvalidToken), "got %v", err)
		})
	}
}

func TestNewJWTResolverRequiresSecret(t *testing.T) {
	_, err := NewJWTResolver("  ")
	assert.Error(t, err)
}
