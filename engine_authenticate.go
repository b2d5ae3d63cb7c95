package authcore

import (
	"context"

	"github.com/taskvault/authcore/metrics"
)

// Authenticate verifies an access token and returns the identity it carries.
// Malformed, forged, expired and revoked tokens all come back as
// ErrUnauthorized; the caller learns nothing about which check failed.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (Identity, error) {
	claims, err := e.tokens.ParseAccess(accessToken)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}

	if e.blacklist.IsRevoked(ctx, claims.ID) {
		e.metrics.RevocationCheck(metrics.OutcomeRevoked)
		return Identity{}, ErrUnauthorized
	}
	e.metrics.RevocationCheck(metrics.OutcomeActive)

	return Identity{
		Principal: claims.Subject,
		Roles:     claims.Roles,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
