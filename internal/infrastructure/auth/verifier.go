package auth

import "context"

// TokenVerifier resolves a bearer token to the user id it was issued for.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// TokenIssuer mints tokens for existing users. Only the JWT provider can
// issue tokens locally.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}
