package refresh

import (
	"context"
	"sync"
	"time"
)

type memoryRecord struct {
	hash        string
	createdAt   time.Time
	expiresAt   time.Time
	createdByIP string
}

// MemoryStore keeps refresh tokens in process memory. Suitable for tests and
// single-node deployments that can tolerate forced re-login on restart.
type MemoryStore struct {
	ttl time.Duration

	mu     sync.Mutex
	tokens map[string]memoryRecord
}

// NewMemoryStore returns an empty store issuing tokens with the given TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:    ttl,
		tokens: make(map[string]memoryRecord),
	}
}

func (s *MemoryStore) Issue(ctx context.Context, principal, clientIP string, now time.Time) (Token, error) {
	value, err := NewValue()
	if err != nil {
		return Token{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[principal] = memoryRecord{
		hash:        HashValue(value),
		createdAt:   now,
		expiresAt:   now.Add(s.ttl),
		createdByIP: clientIP,
	}
	return Token{
		Principal:   principal,
		Value:       value,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
		CreatedByIP: clientIP,
	}, nil
}

func (s *MemoryStore) Rotate(ctx context.Context, principal, presented, clientIP string, now time.Time) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tokens[principal]
	if !ok {
		return Token{}, ErrNotFound
	}
	if !hashEqual(rec.hash, HashValue(presented)) {
		return Token{}, ErrMismatch
	}
	if !rec.expiresAt.After(now) {
		return Token{}, ErrExpired
	}

	value, err := NewValue()
	if err != nil {
		return Token{}, err
	}
	s.tokens[principal] = memoryRecord{
		hash:        HashValue(value),
		createdAt:   now,
		expiresAt:   now.Add(s.ttl),
		createdByIP: clientIP,
	}
	return Token{
		Principal:   principal,
		Value:       value,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
		CreatedByIP: clientIP,
	}, nil
}

func (s *MemoryStore) Revoke(ctx context.Context, principal string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, principal)
	return nil
}
