// Package refresh persists long-lived refresh tokens, one active token per
// principal, with single-use rotation semantics. Token values never touch
// durable storage; only their SHA-256 hashes do.
package refresh

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"
)

var (
	// ErrNotFound means the principal has no active refresh token.
	ErrNotFound = errors.New("refresh token not found")
	// ErrExpired means the active token exists but its lifetime has elapsed.
	// Expired tokens are never silently extended.
	ErrExpired = errors.New("refresh token expired")
	// ErrMismatch means the presented value does not hash to the active
	// token. After a rotation this is exactly what reuse of the old value
	// looks like, which is the theft signal rotation exists to produce.
	ErrMismatch = errors.New("refresh token mismatch")
	// ErrUnavailable wraps backing store failures.
	ErrUnavailable = errors.New("refresh store unavailable")
)

// Token is an issued refresh token. Value is only populated on the Issue and
// Rotate paths that created it; lookups never recover it.
type Token struct {
	Principal   string
	Value       string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	CreatedByIP string
}

// Store is the durable refresh token store consumed by the engine.
//
// Rotate must be atomic per principal: of two concurrent rotations against
// the same prior value, exactly one may succeed. Implementations use a
// single-statement compare-and-replace (Postgres) or a mutex (memory);
// a read-then-write sequence is a race that silently discards one caller's
// rotation.
type Store interface {
	// Issue replaces any existing active token for the principal with a
	// freshly generated one expiring at now+TTL.
	Issue(ctx context.Context, principal, clientIP string, now time.Time) (Token, error)

	// Rotate atomically replaces the active token, provided presented
	// matches it and it has not expired. Failures are ErrNotFound,
	// ErrExpired or ErrMismatch.
	Rotate(ctx context.Context, principal, presented, clientIP string, now time.Time) (Token, error)

	// Revoke deletes the principal's active token. Revoking a principal
	// with no token is not an error.
	Revoke(ctx context.Context, principal string) error
}

const valueBytes = 64

// NewValue generates an opaque token value with 512 bits of entropy,
// base64url encoded.
func NewValue() (string, error) {
	raw := make([]byte, valueBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// HashValue is the digest stored in place of the token value.
func HashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func hashEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
