package authcore

import "errors"

var (
	// ErrEngineNotReady is returned when the engine is used before all
	// required dependencies are wired.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrInvalidCredentials is returned by Login for an unknown principal or
	// a wrong secret. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is returned by Authenticate for malformed, forged,
	// expired and revoked access tokens alike, so callers cannot tell which
	// check failed.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRefreshRejected is returned by Refresh when the presented refresh
	// token does not match the principal's active token, including reuse of
	// an already-rotated value.
	ErrRefreshRejected = errors.New("refresh token rejected")
	// ErrSessionExpired is returned by Refresh when the refresh token's own
	// lifetime has elapsed. Distinct from ErrRefreshRejected because it is
	// the one refresh failure a client should surface as "log in again".
	ErrSessionExpired = errors.New("session expired")
	// ErrStoreUnavailable wraps refresh store failures. No session can be
	// established or extended without durable rotation state, so this is a
	// server error, never a silent fallback.
	ErrStoreUnavailable = errors.New("refresh token store unavailable")
)
