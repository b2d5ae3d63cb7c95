package authcore

import (
	"context"
	"fmt"

	"github.com/taskvault/authcore/audit"
)

// Logout ends the session behind the access token: the principal's refresh
// token is deleted and the access token's ID is blacklisted until its natural
// expiry. An already-expired access token is still accepted, so a client can
// always log out; the blacklist write simply becomes a no-op. Logging out
// twice is not an error.
func (e *Engine) Logout(ctx context.Context, accessToken string) error {
	ip := clientIPFromContext(ctx)

	claims, err := e.tokens.ParseAccessIgnoringExpiry(accessToken)
	if err != nil {
		return ErrUnauthorized
	}
	principal := claims.Subject

	if err := e.refresh.Revoke(ctx, principal); err != nil {
		e.logger.Error("refresh token revocation failed", "principal", principal, "error", err)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// The blacklist write is best effort: the cache is not a source of
	// truth, and the refresh token is already gone, so the session cannot
	// be extended. A lost entry leaves the access token live until exp,
	// the same bounded exposure the fail-open read path accepts.
	if err := e.blacklist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		e.logger.Error("access token revocation failed", "principal", principal, "error", err)
	}

	e.metrics.Logout()
	e.emitAudit(ctx, audit.Event{
		Action: audit.ActionLogout, Principal: principal, IP: ip,
		TokenID: claims.ID, Success: true,
	})
	return nil
}
