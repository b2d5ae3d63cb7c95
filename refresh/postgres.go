package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists refresh tokens in the refresh_tokens table, one row
// per principal. Rotation is a single compare-and-replace UPDATE so two
// concurrent rotations against the same prior value cannot both win.
type PostgresStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewPostgresStore wraps an existing connection pool. The pool is owned by
// the caller; Close it there.
func NewPostgresStore(pool *pgxpool.Pool, ttl time.Duration) *PostgresStore {
	return &PostgresStore{pool: pool, ttl: ttl}
}

func (s *PostgresStore) Issue(ctx context.Context, principal, clientIP string, now time.Time) (Token, error) {
	value, err := NewValue()
	if err != nil {
		return Token{}, err
	}
	expiresAt := now.Add(s.ttl)

	_, err = s.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, created_at, expires_at, created_by_ip)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET token_hash = EXCLUDED.token_hash,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at,
		    created_by_ip = EXCLUDED.created_by_ip`,
		principal, HashValue(value), now, expiresAt, clientIP)
	if err != nil {
		return Token{}, fmt.Errorf("%w: issue: %v", ErrUnavailable, err)
	}

	return Token{
		Principal:   principal,
		Value:       value,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
		CreatedByIP: clientIP,
	}, nil
}

func (s *PostgresStore) Rotate(ctx context.Context, principal, presented, clientIP string, now time.Time) (Token, error) {
	value, err := NewValue()
	if err != nil {
		return Token{}, err
	}
	expiresAt := now.Add(s.ttl)

	tag, err := s.pool.Exec(ctx, `
		UPDATE refresh_tokens
		SET token_hash = $3, created_at = $4, expires_at = $5, created_by_ip = $6
		WHERE user_id = $1 AND token_hash = $2 AND expires_at > $4`,
		principal, HashValue(presented), HashValue(value), now, expiresAt, clientIP)
	if err != nil {
		return Token{}, fmt.Errorf("%w: rotate: %v", ErrUnavailable, err)
	}
	if tag.RowsAffected() == 1 {
		return Token{
			Principal:   principal,
			Value:       value,
			CreatedAt:   now,
			ExpiresAt:   expiresAt,
			CreatedByIP: clientIP,
		}, nil
	}

	// The compare-and-replace matched nothing. Read the row once to tell
	// the caller which precondition failed; the classification is advisory
	// and may race with another writer, but the rotation itself cannot.
	var hash string
	var rowExpiry time.Time
	err = s.pool.QueryRow(ctx,
		`SELECT token_hash, expires_at FROM refresh_tokens WHERE user_id = $1`,
		principal).Scan(&hash, &rowExpiry)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return Token{}, ErrNotFound
	case err != nil:
		return Token{}, fmt.Errorf("%w: rotate: %v", ErrUnavailable, err)
	case !hashEqual(hash, HashValue(presented)):
		return Token{}, ErrMismatch
	default:
		return Token{}, ErrExpired
	}
}

func (s *PostgresStore) Revoke(ctx context.Context, principal string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE user_id = $1`, principal)
	if err != nil {
		return fmt.Errorf("%w: revoke: %v", ErrUnavailable, err)
	}
	return nil
}
