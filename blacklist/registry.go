// Package blacklist is the access token revocation registry: a time-bounded
// record, kept in the shared cache, of tokens rejected before their natural
// expiry.
package blacklist

import (
	"context"
	"log/slog"
	"time"

	"github.com/taskvault/authcore/cache"
)

const entryValue = "revoked"

// Registry records revoked access tokens by token ID. Entries self-expire at
// the guarded token's own expiry, so the registry never grows beyond the set
// of tokens that are still otherwise valid.
type Registry struct {
	cache  *cache.Service
	logger *slog.Logger
	now    func() time.Time
}

// New creates a registry over the shared cache coordinator. now may be nil.
func New(c *cache.Service, logger *slog.Logger, now func() time.Time) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if now == nil {
		now = time.Now
	}
	return &Registry{cache: c, logger: logger, now: now}
}

func key(tokenID string) string {
	return "revoked:" + tokenID
}

// Revoke marks the token unusable until guardedExpiry. The entry's TTL is
// the token's remaining lifetime: any shorter and the token would come back
// to life when the entry evicts, which is a correctness bug, not a tuning
// choice. A token already past its expiry needs no entry and revoking it is
// a no-op.
func (r *Registry) Revoke(ctx context.Context, tokenID string, guardedExpiry time.Time) error {
	ttl := guardedExpiry.Sub(r.now())
	if ttl <= 0 {
		return nil
	}

	if err := r.cache.SetString(ctx, key(tokenID), entryValue, ttl); err != nil {
		r.logger.Warn("blacklist write failed", "token_id", tokenID, "error", err)
		return err
	}

	return nil
}

// IsRevoked reports whether the token has been revoked. Cache unavailability
// reads as "not revoked": the deployment accepts a window of degraded
// revocation rather than failing every request while the cache is down.
// Deployments wanting fail-closed behavior must gate on Ping instead.
func (r *Registry) IsRevoked(ctx context.Context, tokenID string) bool {
	found, err := r.cache.Exists(ctx, key(tokenID))
	if err != nil {
		r.logger.Warn("blacklist lookup failed, failing open", "token_id", tokenID, "error", err)
		return false
	}
	return found
}
