package authcore

import (
	"context"
	"time"
)

// Identity is the authenticated caller established by the verification gate.
// It is passed down the call chain explicitly; nothing in this module reads
// the caller's identity from ambient state.
type Identity struct {
	Principal string
	Roles     []string

	// TokenID is the jti of the access token that produced this identity.
	TokenID string
	// ExpiresAt is when the access token stops being valid.
	ExpiresAt time.Time
}

// TokenPair is an issued access/refresh credential pair with expiries, as
// returned by Login and Refresh.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Directory is the user directory the engine authenticates against. It owns
// principals, credentials and role membership; the engine only consumes it.
// userdir.PostgresDirectory and userdir.MemoryDirectory implement it.
type Directory interface {
	// VerifyCredentials reports whether secret is the principal's current
	// credential. An unknown principal is (false, nil), not an error.
	VerifyCredentials(ctx context.Context, principal, secret string) (bool, error)

	// Roles returns the principal's role names.
	Roles(ctx context.Context, principal string) ([]string, error)
}
