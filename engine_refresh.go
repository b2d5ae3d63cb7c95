package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskvault/authcore/audit"
	"github.com/taskvault/authcore/jwt"
	"github.com/taskvault/authcore/metrics"
	"github.com/taskvault/authcore/refresh"
)

// Refresh rotates the session: the presented refresh token is consumed and a
// new access/refresh pair issued. The access token may be expired; its
// signature must still verify, since it carries the principal the rotation
// is performed for.
//
// Presenting a refresh token that was already rotated away is treated as
// theft evidence. The session is revoked outright, so neither the thief nor
// the legitimate holder keeps access, and the next login starts clean.
func (e *Engine) Refresh(ctx context.Context, accessToken, refreshToken string) (TokenPair, error) {
	ip := clientIPFromContext(ctx)

	claims, err := e.tokens.ParseAccessIgnoringExpiry(accessToken)
	if err != nil {
		e.metrics.Refresh(metrics.ResultRejected)
		return TokenPair{}, ErrUnauthorized
	}
	principal := claims.Subject

	rotated, err := e.refresh.Rotate(ctx, principal, refreshToken, ip, e.now())
	switch {
	case err == nil:
		// fall through to issuance
	case errors.Is(err, refresh.ErrMismatch):
		e.revokeOnReuse(ctx, claims, ip)
		e.metrics.Refresh(metrics.ResultReused)
		return TokenPair{}, ErrRefreshRejected
	case errors.Is(err, refresh.ErrNotFound):
		e.metrics.Refresh(metrics.ResultRejected)
		e.emitAudit(ctx, audit.Event{
			Action: audit.ActionRefresh, Principal: principal, IP: ip,
			Error: "no active session",
		})
		return TokenPair{}, ErrRefreshRejected
	case errors.Is(err, refresh.ErrExpired):
		e.metrics.Refresh(metrics.ResultRejected)
		e.emitAudit(ctx, audit.Event{
			Action: audit.ActionRefresh, Principal: principal, IP: ip,
			Error: ErrSessionExpired.Error(),
		})
		return TokenPair{}, ErrSessionExpired
	default:
		e.metrics.Refresh(metrics.ResultError)
		e.logger.Error("refresh rotation failed", "principal", principal, "error", err)
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// Roles are re-read at rotation time so grants and removals take effect
	// without waiting for the next login.
	roles, err := e.directory.Roles(ctx, principal)
	if err != nil {
		e.metrics.Refresh(metrics.ResultError)
		return TokenPair{}, fmt.Errorf("load roles: %w", err)
	}

	access, newClaims, err := e.tokens.CreateAccess(principal, roles)
	if err != nil {
		e.metrics.Refresh(metrics.ResultError)
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	e.metrics.Refresh(metrics.ResultSuccess)
	e.emitAudit(ctx, audit.Event{
		Action: audit.ActionRefresh, Principal: principal, IP: ip,
		TokenID: newClaims.ID, Success: true,
	})

	return TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  newClaims.ExpiresAt.Time,
		RefreshToken:     rotated.Value,
		RefreshExpiresAt: rotated.ExpiresAt,
	}, nil
}

// revokeOnReuse tears the session down after a rotated-away refresh token
// was presented again: the active refresh token is deleted and the access
// token that accompanied the reuse is blacklisted for its remaining life.
func (e *Engine) revokeOnReuse(ctx context.Context, claims *jwt.AccessClaims, ip string) {
	principal := claims.Subject
	e.logger.Warn("refresh token reuse detected", "principal", principal, "ip", ip)

	if err := e.refresh.Revoke(ctx, principal); err != nil {
		e.logger.Error("session revocation failed", "principal", principal, "error", err)
	}
	if err := e.blacklist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		e.logger.Error("access token revocation failed", "principal", principal, "error", err)
	}

	e.emitAudit(ctx, audit.Event{
		Action: audit.ActionRefreshReused, Principal: principal, IP: ip, TokenID: claims.ID,
	})
	e.emitAudit(ctx, audit.Event{
		Action: audit.ActionSessionRevoked, Principal: principal, IP: ip, Success: true,
	})
}
