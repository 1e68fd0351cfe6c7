package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/geocoder89/lostfound/internal/apperr"
	"github.com/geocoder89/lostfound/internal/config"
	"github.com/geocoder89/lostfound/internal/domain/user"
	"github.com/geocoder89/lostfound/internal/security"
)

type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (user.User, error)
	Create(ctx context.Context, username, passwordHash, role string) (user.User, error)
}

type TokenIssuer interface {
	Issue(subjectID int64, role string) (string, error)
}

type AuthService struct {
	users  CredentialStore
	hasher security.Hasher
	tokens TokenIssuer
}

func NewAuthService(users CredentialStore, hasher security.Hasher, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens}
}

type LoginResult struct {
	Token string      `json:"token"`
	User  user.Public `json:"user"`
}

var errInvalidCredentials = apperr.Unauthorized("invalid_credentials", "Invalid username or password")

// Login checks a username/password pair and issues an access token.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	if username == "" || password == "" {
		return LoginResult{}, apperr.BadRequest("missing_credentials", "username and password are required")
	}

	cctx, cancel := config.WithTimeout(ctx, storeTimeout)
	defer cancel()

	u, err := s.users.FindByUsername(cctx, username)
	if errors.Is(err, user.ErrNotFound) {
		return LoginResult{}, errInvalidCredentials
	}
	if err != nil {
		slog.ErrorContext(ctx, "looking up user failed", "err", err)
		return LoginResult{}, apperr.Internal(err)
	}

	if err := s.hasher.Check(u.PasswordHash, password); err != nil {
		if !errors.Is(err, security.ErrPasswordMismatch) {
			slog.WarnContext(ctx, "stored password hash unusable", "user_id", u.ID, "err", err)
		}
		return LoginResult{}, errInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		slog.ErrorContext(ctx, "issuing token failed", "err", err)
		return LoginResult{}, apperr.Internal(err)
	}

	return LoginResult{Token: token, User: u.Public()}, nil
}

// Register creates a regular user. It never grants admin.
func (s *AuthService) Register(ctx context.Context, username, password string) (user.Public, error) {
	username = strings.TrimSpace(username)

	if len(username) < 3 || len(username) > 64 {
		return user.Public{}, apperr.BadRequest("invalid_request", "username must be between 3 and 64 characters")
	}

	if len(password) < 8 || len(password) > 72 {
		return user.Public{}, apperr.BadRequest("invalid_request", "password must be between 8 and 72 characters")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		slog.ErrorContext(ctx, "hashing password failed", "err", err)
		return user.Public{}, apperr.Internal(err)
	}

	cctx, cancel := config.WithTimeout(ctx, storeTimeout)
	defer cancel()

	u, err := s.users.Create(cctx, username, hash, user.RoleUser)
	if errors.Is(err, user.ErrUsernameTaken) {
		return user.Public{}, apperr.Conflict("username_taken", "Username is already taken")
	}
	if err != nil {
		slog.ErrorContext(ctx, "creating user failed", "err", err)
		return user.Public{}, apperr.Internal(err)
	}

	return u.Public(), nil
}
