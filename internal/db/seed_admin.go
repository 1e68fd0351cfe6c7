package db

import (
	"context"
	"errors"

	"github.com/geocoder89/lostfound/internal/domain/user"
	"github.com/geocoder89/lostfound/internal/security"
)

// AdminStore is the slice of the credential store admin seeding needs.
type AdminStore interface {
	FindByUsername(ctx context.Context, username string) (user.User, error)
	Create(ctx context.Context, username, passwordHash, role string) (user.User, error)
}

// EnsureAdminUser creates an admin account when username and password are both set
// and no user with that name exists yet. An existing account is left untouched.
func EnsureAdminUser(ctx context.Context, store AdminStore, hasher security.Hasher, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	_, err := store.FindByUsername(ctx, username)

	if err == nil {
		return nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := hasher.Hash(password)

	if err != nil {
		return err
	}

	_, err = store.Create(ctx, username, hash, user.RoleAdmin)

	// lost a race with another instance seeding the same account
	if errors.Is(err, user.ErrUsernameTaken) {
		return nil
	}

	return err
}
