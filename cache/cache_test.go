package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := New(rdb, Config{Namespace: "test", DefaultTTL: 10 * time.Minute}, nil)
	return svc, mr
}

type taskPage struct {
	IDs   []string `json:"ids"`
	Total int      `json:"total"`
}

func TestSetGetRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	want := taskPage{IDs: []string{"t1", "t2"}, Total: 2}
	require.NoError(t, svc.Set(ctx, TaskListKey("u1", 1, 20), want, 0))

	var got taskPage
	require.NoError(t, svc.Get(ctx, TaskListKey("u1", 1, 20), &got))
	require.Equal(t, want, got)
}

func TestDefaultTTLApplied(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "k", "v", 0))
	require.Equal(t, 10*time.Minute, mr.TTL("test:k"))

	require.NoError(t, svc.Set(ctx, "k2", "v", time.Minute))
	require.Equal(t, time.Minute, mr.TTL("test:k2"))
}

func TestGetMissOnAbsence(t *testing.T) {
	svc, _ := newTestService(t)

	var dest string
	err := svc.Get(context.Background(), "absent", &dest)
	require.ErrorIs(t, err, ErrMiss)
}

func TestGetMissOnCorruptValue(t *testing.T) {
	svc, mr := newTestService(t)

	require.NoError(t, mr.Set("test:bad", "{not json"))

	var dest taskPage
	err := svc.Get(context.Background(), "bad", &dest)
	require.ErrorIs(t, err, ErrMiss)
}

func TestGetMissOnUnavailableCache(t *testing.T) {
	svc, mr := newTestService(t)
	mr.Close()

	var dest string
	err := svc.Get(context.Background(), "k", &dest)
	require.ErrorIs(t, err, ErrMiss)
}

func TestEntryExpiresNaturally(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "k", "v", time.Minute))

	var dest string
	require.NoError(t, svc.Get(ctx, "k", &dest))

	mr.FastForward(61 * time.Second)
	require.ErrorIs(t, svc.Get(ctx, "k", &dest), ErrMiss)
}

func TestInvalidateAfterMutation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Derived views of task t1 owned by u1, plus an unrelated principal.
	require.NoError(t, svc.Set(ctx, TaskKey("t1", "u1"), "detail", 0))
	require.NoError(t, svc.Set(ctx, TaskListKey("u1", 1, 20), taskPage{IDs: []string{"t1"}}, 0))
	require.NoError(t, svc.Set(ctx, TaskListKey("u1", 2, 20), taskPage{}, 0))
	require.NoError(t, svc.Set(ctx, TaskCountKey("u1"), 1, 0))
	require.NoError(t, svc.Set(ctx, AllTasksKey(1, 20), taskPage{IDs: []string{"t1"}}, 0))
	require.NoError(t, svc.Set(ctx, TaskListKey("u2", 1, 20), taskPage{}, 0))

	require.NoError(t, svc.Invalidate(ctx, TaskMutation("t1", "u1", "u1")))

	var page taskPage
	require.ErrorIs(t, svc.Get(ctx, TaskKey("t1", "u1"), &page), ErrMiss)
	require.ErrorIs(t, svc.Get(ctx, TaskListKey("u1", 1, 20), &page), ErrMiss)
	require.ErrorIs(t, svc.Get(ctx, TaskListKey("u1", 2, 20), &page), ErrMiss)
	require.ErrorIs(t, svc.Get(ctx, AllTasksKey(1, 20), &page), ErrMiss)

	var n int
	require.ErrorIs(t, svc.Get(ctx, TaskCountKey("u1"), &n), ErrMiss)

	// Unrelated principal's view survives.
	require.NoError(t, svc.Get(ctx, TaskListKey("u2", 1, 20), &page))
}

func TestTaskMutationIncludesActorViews(t *testing.T) {
	set := TaskMutation("t1", "owner", "admin")

	require.Contains(t, set.Keys, TaskKey("t1", "owner"))
	require.Contains(t, set.Keys, TaskKey("t1", "admin"))
	require.Contains(t, set.Keys, TaskCountKey("owner"))
	require.Contains(t, set.Keys, TaskCountKey("admin"))
	require.Contains(t, set.Patterns, TaskListPattern("owner"))
	require.Contains(t, set.Patterns, TaskListPattern("admin"))
}

func TestRemoveMissingKeyIsNoError(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.Remove(context.Background(), "nope"))
}
