package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/lostfound/internal/domain/user"
	"github.com/geocoder89/lostfound/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type UsersRepo struct {
	pool    *pgxpool.Pool
	metrics *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, metrics *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, metrics: metrics}
}

func (r *UsersRepo) FindByUsername(ctx context.Context, username string) (user.User, error) {
	var u user.User

	err := r.metrics.ObserveDB("users.find_by_username", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, username, password_hash, role, created_at
			FROM users
			WHERE username = $1`,
			username,
		).Scan(
			&u.ID,
			&u.Username,
			&u.PasswordHash,
			&u.Role,
			&u.CreatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, fmt.Errorf("finding user: %w", err)
	}
	return u, nil
}

// Create inserts a user. An empty role defaults to user; a duplicate username is ErrUsernameTaken.
func (r *UsersRepo) Create(ctx context.Context, username, passwordHash, role string) (user.User, error) {
	if role == "" {
		role = user.RoleUser
	}

	u := user.User{Username: username, PasswordHash: passwordHash}

	err := r.metrics.ObserveDB("users.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO users (username, password_hash, role)
			VALUES ($1, $2, $3)
			RETURNING id, role, created_at`,
			username, passwordHash, role,
		).Scan(&u.ID, &u.Role, &u.CreatedAt)
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return user.User{}, user.ErrUsernameTaken
		}
		return user.User{}, fmt.Errorf("creating user: %w", err)
	}

	return u, nil
}
