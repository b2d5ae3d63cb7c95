package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestIssueAndRotate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	now := time.Now()

	issued, err := store.Issue(ctx, "alice", "10.0.0.1", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if issued.Value == "" {
		t.Fatal("issued token has empty value")
	}
	if !issued.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expiry = %v, want %v", issued.ExpiresAt, now.Add(time.Hour))
	}

	rotated, err := store.Rotate(ctx, "alice", issued.Value, "10.0.0.1", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if rotated.Value == issued.Value {
		t.Fatal("rotation returned the prior token value")
	}
}

func TestRotateIsSingleUse(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	now := time.Now()

	issued, _ := store.Issue(ctx, "alice", "", now)
	if _, err := store.Rotate(ctx, "alice", issued.Value, "", now); err != nil {
		t.Fatalf("first rotate: %v", err)
	}

	// Presenting the consumed value again is the reuse signal.
	_, err := store.Rotate(ctx, "alice", issued.Value, "", now)
	if !errors.Is(err, ErrMismatch) {
		t.Fatalf("second rotate err = %v, want ErrMismatch", err)
	}
}

func TestRotateExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	now := time.Now()

	issued, _ := store.Issue(ctx, "alice", "", now)
	_, err := store.Rotate(ctx, "alice", issued.Value, "", now.Add(2*time.Hour))
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("rotate err = %v, want ErrExpired", err)
	}
}

func TestRotateUnknownPrincipal(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	_, err := store.Rotate(context.Background(), "nobody", "whatever", "", time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("rotate err = %v, want ErrNotFound", err)
	}
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	now := time.Now()

	issued, _ := store.Issue(ctx, "alice", "", now)
	if err := store.Revoke(ctx, "alice"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := store.Rotate(ctx, "alice", issued.Value, "", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("rotate after revoke err = %v, want ErrNotFound", err)
	}

	// Revoking again is a no-op.
	if err := store.Revoke(ctx, "alice"); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
}

func TestIssueReplacesActiveToken(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	now := time.Now()

	first, _ := store.Issue(ctx, "alice", "", now)
	second, _ := store.Issue(ctx, "alice", "", now)

	if _, err := store.Rotate(ctx, "alice", first.Value, "", now); !errors.Is(err, ErrMismatch) {
		t.Fatalf("rotate with replaced token err = %v, want ErrMismatch", err)
	}
	if _, err := store.Rotate(ctx, "alice", second.Value, "", now); err != nil {
		t.Fatalf("rotate with active token: %v", err)
	}
}

func TestConcurrentRotationSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	now := time.Now()

	issued, _ := store.Issue(ctx, "alice", "", now)

	const racers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	for range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Rotate(ctx, "alice", issued.Value, "", now); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("winners = %d, want exactly 1", wins)
	}
}

func TestValueEntropy(t *testing.T) {
	a, err := NewValue()
	if err != nil {
		t.Fatalf("new value: %v", err)
	}
	b, _ := NewValue()
	if a == b {
		t.Fatal("two generated values collided")
	}
	if len(a) < 80 {
		t.Fatalf("value length = %d, want at least 80 characters", len(a))
	}
}
