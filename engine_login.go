package authcore

import (
	"context"
	"fmt"

	"github.com/taskvault/authcore/audit"
	"github.com/taskvault/authcore/metrics"
)

// Login verifies the principal's credentials and establishes a session,
// returning a fresh access/refresh pair. A failed credential check is
// ErrInvalidCredentials regardless of whether the principal exists. A refresh
// store failure aborts the login; no access token is handed out without its
// rotation anchor.
func (e *Engine) Login(ctx context.Context, principal, secret string) (TokenPair, error) {
	ip := clientIPFromContext(ctx)

	ok, err := e.directory.VerifyCredentials(ctx, principal, secret)
	if err != nil {
		e.metrics.Login(metrics.ResultError)
		e.emitAudit(ctx, audit.Event{
			Action: audit.ActionLoginFailed, Principal: principal, IP: ip,
			Error: "directory unavailable",
		})
		return TokenPair{}, fmt.Errorf("verify credentials: %w", err)
	}
	if !ok {
		e.metrics.Login(metrics.ResultRejected)
		e.emitAudit(ctx, audit.Event{
			Action: audit.ActionLoginFailed, Principal: principal, IP: ip,
			Error: ErrInvalidCredentials.Error(),
		})
		return TokenPair{}, ErrInvalidCredentials
	}

	roles, err := e.directory.Roles(ctx, principal)
	if err != nil {
		e.metrics.Login(metrics.ResultError)
		return TokenPair{}, fmt.Errorf("load roles: %w", err)
	}

	access, claims, err := e.tokens.CreateAccess(principal, roles)
	if err != nil {
		e.metrics.Login(metrics.ResultError)
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	issued, err := e.refresh.Issue(ctx, principal, ip, e.now())
	if err != nil {
		e.metrics.Login(metrics.ResultError)
		e.logger.Error("refresh token issue failed", "principal", principal, "error", err)
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metrics.Login(metrics.ResultSuccess)
	e.emitAudit(ctx, audit.Event{
		Action: audit.ActionLogin, Principal: principal, IP: ip,
		TokenID: claims.ID, Success: true,
	})

	return TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  claims.ExpiresAt.Time,
		RefreshToken:     issued.Value,
		RefreshExpiresAt: issued.ExpiresAt,
	}, nil
}
