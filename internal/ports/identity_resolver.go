package ports

import "context"

type Identity struct {
	UserID string
	Email  string
}

// IdentityResolver turns a bearer token into a stable user identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (Identity, error)
}
