package blacklist

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/taskvault/authcore/cache"
)

func newTestRegistry(t *testing.T, now func() time.Time) (*Registry, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := cache.New(rdb, cache.Config{Namespace: "bl"}, nil)
	return New(svc, nil, now), mr
}

func TestRevocationStickyWithinWindow(t *testing.T) {
	reg, mr := newTestRegistry(t, nil)
	ctx := context.Background()

	require.NoError(t, reg.Revoke(ctx, "jti-1", time.Now().Add(5*time.Minute)))

	require.True(t, reg.IsRevoked(ctx, "jti-1"))

	mr.FastForward(time.Minute)
	require.True(t, reg.IsRevoked(ctx, "jti-1"))

	// At the guarded expiry the entry evicts; the token is dead by its own
	// exp claim by then anyway.
	mr.FastForward(4*time.Minute + time.Second)
	require.False(t, reg.IsRevoked(ctx, "jti-1"))
}

func TestRevokeExpiredTokenIsNoOp(t *testing.T) {
	reg, mr := newTestRegistry(t, nil)
	ctx := context.Background()

	require.NoError(t, reg.Revoke(ctx, "jti-old", time.Now().Add(-time.Minute)))
	require.False(t, reg.IsRevoked(ctx, "jti-old"))
	require.Empty(t, mr.Keys())
}

func TestEntryTTLCoversRemainingLifetime(t *testing.T) {
	fixed := time.Now()
	reg, mr := newTestRegistry(t, func() time.Time { return fixed })

	require.NoError(t, reg.Revoke(context.Background(), "jti-2", fixed.Add(30*time.Minute)))
	require.Equal(t, 30*time.Minute, mr.TTL("bl:revoked:jti-2"))
}

func TestRevokeIsIdempotent(t *testing.T) {
	reg, _ := newTestRegistry(t, nil)
	ctx := context.Background()

	expiry := time.Now().Add(10 * time.Minute)
	require.NoError(t, reg.Revoke(ctx, "jti-3", expiry))
	require.NoError(t, reg.Revoke(ctx, "jti-3", expiry))
	require.True(t, reg.IsRevoked(ctx, "jti-3"))
}

func TestLookupFailsOpenWhenCacheDown(t *testing.T) {
	reg, mr := newTestRegistry(t, nil)
	ctx := context.Background()

	require.NoError(t, reg.Revoke(ctx, "jti-4", time.Now().Add(10*time.Minute)))
	mr.Close()

	require.False(t, reg.IsRevoked(ctx, "jti-4"))
}

func TestRevokeReturnsErrorWhenCacheDown(t *testing.T) {
	reg, mr := newTestRegistry(t, nil)
	mr.Close()

	err := reg.Revoke(context.Background(), "jti-5", time.Now().Add(10*time.Minute))
	require.Error(t, err)
}
