// Package userdir provides principal directories backed by Postgres or
// process memory. A directory answers two questions for the engine: does this
// secret belong to this principal, and what roles does the principal hold.
package userdir

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskvault/authcore/password"
)

var (
	// ErrAlreadyExists is returned by Register for a taken username.
	ErrAlreadyExists = errors.New("userdir: username already registered")
	// ErrUnknownRole is returned when assigning a role that was never seeded.
	ErrUnknownRole = errors.New("userdir: unknown role")
)

// PostgresDirectory stores users, roles and their assignments in the users,
// roles and user_roles tables (see migrations/).
type PostgresDirectory struct {
	pool   *pgxpool.Pool
	hasher *password.Hasher
	logger *slog.Logger
}

func NewPostgresDirectory(pool *pgxpool.Pool, hasher *password.Hasher, logger *slog.Logger) *PostgresDirectory {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PostgresDirectory{pool: pool, hasher: hasher, logger: logger}
}

// SeedRoles ensures the named roles exist. Already-present roles are left
// untouched, so seeding is safe to run on every startup.
func (d *PostgresDirectory) SeedRoles(ctx context.Context, names ...string) error {
	for _, name := range names {
		_, err := d.pool.Exec(ctx,
			`INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
		if err != nil {
			return fmt.Errorf("seed role %q: %w", name, err)
		}
	}
	return nil
}

// Register creates a user with the given roles. The secret is hashed before
// it reaches the database.
func (d *PostgresDirectory) Register(ctx context.Context, username, secret string, roles ...string) error {
	hash, err := d.hasher.Hash(secret)
	if err != nil {
		return fmt.Errorf("hash secret: %w", err)
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO users (username, password_hash, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO NOTHING`,
		username, hash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyExists
	}

	for _, role := range roles {
		tag, err := tx.Exec(ctx, `
			INSERT INTO user_roles (username, role_name)
			SELECT $1, name FROM roles WHERE name = $2`,
			username, role)
		if err != nil {
			return fmt.Errorf("assign role %q: %w", role, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %q", ErrUnknownRole, role)
		}
	}

	return tx.Commit(ctx)
}

// VerifyCredentials checks the secret against the stored hash. An unknown
// principal is a plain false, not an error, so callers cannot distinguish it
// from a wrong secret. Hashes made under weaker parameters are transparently
// upgraded after a successful check.
func (d *PostgresDirectory) VerifyCredentials(ctx context.Context, principal, secret string) (bool, error) {
	var hash string
	err := d.pool.QueryRow(ctx,
		`SELECT password_hash FROM users WHERE username = $1`, principal).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load user: %w", err)
	}

	ok, err := d.hasher.Verify(secret, hash)
	if err != nil || !ok {
		return ok, err
	}

	if upgrade, err := d.hasher.NeedsRehash(hash); err == nil && upgrade {
		d.rehash(ctx, principal, secret)
	}
	return true, nil
}

func (d *PostgresDirectory) rehash(ctx context.Context, principal, secret string) {
	hash, err := d.hasher.Hash(secret)
	if err != nil {
		d.logger.Warn("password rehash failed", "principal", principal, "error", err)
		return
	}
	if _, err := d.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2 WHERE username = $1`, principal, hash); err != nil {
		d.logger.Warn("password rehash write failed", "principal", principal, "error", err)
	}
}

// Roles returns the principal's role names. An unknown principal yields an
// empty slice.
func (d *PostgresDirectory) Roles(ctx context.Context, principal string) ([]string, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT role_name FROM user_roles
		WHERE username = $1
		ORDER BY role_name`, principal)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, name)
	}
	return roles, rows.Err()
}
