package identity

import (
	"context"
	"errors"
	"fmt"
	"route-planner-service/internal/ports"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTResolver verifies HS256 bearer tokens. The subject claim is the user id.
type JWTResolver struct {
	secret []byte
}

func NewJWTResolver(secret string) (*JWTResolver, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt resolver: secret must not be empty")
	}
	return &JWTResolver{secret: []byte(secret)}, nil
}

func (r *JWTResolver) Resolve(ctx context.Context, token string) (ports.Identity, error) {
	c := &claims{}
	parsed, err := jwt.ParseWithClaims(token, c, func(*jwt.Token) (any, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return ports.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || strings.TrimSpace(c.Subject) == "" {
		return ports.Identity{}, ErrInvalidToken
	}

	return ports.Identity{UserID: c.Subject, Email: c.Email}, nil
}

// Sign issues a token for userID; a zero ttl never expires.
func (r *JWTResolver) Sign(userID, email string, ttl time.Duration) (string, error) {
	c := claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("jwt resolver: sign: %w", err)
	}
	return signed, nil
}
