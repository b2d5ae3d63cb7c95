package userdir

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/taskvault/authcore/password"
)

type memoryUser struct {
	hash  string
	roles []string
}

// MemoryDirectory is an in-memory directory for tests and examples.
type MemoryDirectory struct {
	hasher *password.Hasher

	mu    sync.RWMutex
	users map[string]memoryUser
	roles map[string]struct{}
}

func NewMemoryDirectory(hasher *password.Hasher) *MemoryDirectory {
	return &MemoryDirectory{
		hasher: hasher,
		users:  make(map[string]memoryUser),
		roles:  make(map[string]struct{}),
	}
}

func (d *MemoryDirectory) SeedRoles(ctx context.Context, names ...string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, name := range names {
		d.roles[name] = struct{}{}
	}
	return nil
}

func (d *MemoryDirectory) Register(ctx context.Context, username, secret string, roles ...string) error {
	hash, err := d.hasher.Hash(secret)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, taken := d.users[username]; taken {
		return ErrAlreadyExists
	}
	for _, role := range roles {
		if _, ok := d.roles[role]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownRole, role)
		}
	}
	d.users[username] = memoryUser{hash: hash, roles: slices.Clone(roles)}
	return nil
}

func (d *MemoryDirectory) VerifyCredentials(ctx context.Context, principal, secret string) (bool, error) {
	d.mu.RLock()
	user, ok := d.users[principal]
	d.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return d.hasher.Verify(secret, user.hash)
}

func (d *MemoryDirectory) Roles(ctx context.Context, principal string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	user, ok := d.users[principal]
	if !ok {
		return nil, nil
	}
	return slices.Clone(user.roles), nil
}
