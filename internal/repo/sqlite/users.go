package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/lostfound/internal/domain/user"
	"github.com/geocoder89/lostfound/internal/observability"
)

type UsersRepo struct {
	db      *sql.DB
	metrics *observability.Prom
	now     func() time.Time
}

func NewUsersRepo(db *sql.DB, metrics *observability.Prom) *UsersRepo {
	return &UsersRepo{db: db, metrics: metrics, now: time.Now}
}

// FindByUsername returns the user with that username or user.ErrNotFound.
func (r *UsersRepo) FindByUsername(ctx context.Context, username string) (user.User, error) {
	var u user.User
	var createdAt int64

	err := r.metrics.ObserveDB("users.find_by_username", func() error {
		return r.db.QueryRowContext(ctx,
			`SELECT id, username, password_hash, role, created_at FROM users WHERE username = ?`, username,
		).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &createdAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, fmt.Errorf("getting user by username: %w", err)
	}

	u.CreatedAt = time.Unix(0, createdAt).UTC()
	return u, nil
}

// Create inserts a user. An empty role defaults to user.
func (r *UsersRepo) Create(ctx context.Context, username, passwordHash, role string) (user.User, error) {
	if role == "" {
		role = user.RoleUser
	}

	createdAt := r.now().UTC()

	var id int64
	err := r.metrics.ObserveDB("users.create", func() error {
		result, err := r.db.ExecContext(ctx,
			`INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, ?)`,
			username, passwordHash, role, createdAt.UnixNano(),
		)
		if err != nil {
			return err
		}

		id, err = result.LastInsertId()
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrUsernameTaken
		}
		return user.User{}, fmt.Errorf("creating user: %w", err)
	}

	return user.User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    createdAt,
	}, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
