// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, checks shapes, writes responses
//	Service (Business layer) → enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the database
//
// Services take repository interfaces, not *sqlstore.Store, so tests hand
// them in-memory fakes (see users_test.go) and never touch SQL.
//
// Services return apperror values for domain failures. Anything else that
// comes back is an unexpected failure and is wrapped with the package prefix.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xjohnsondev/primal-backend/internal/apperror"
	"github.com/xjohnsondev/primal-backend/internal/auth"
	"github.com/xjohnsondev/primal-backend/internal/metrics"
	"github.com/xjohnsondev/primal-backend/internal/model"
	"github.com/xjohnsondev/primal-backend/internal/patch"
	"github.com/xjohnsondev/primal-backend/internal/repository"
)

// UserPatchTable is the allow-list for partial user updates. username and id
// are absent; they can never be changed through a patch.
var UserPatchTable = patch.Table{
	{Field: "first_name", Column: "first_name", Kind: patch.String, Access: patch.Mutable},
	{Field: "last_name", Column: "last_name", Kind: patch.String, Access: patch.Mutable},
	{Field: "email", Column: "email", Kind: patch.String, Access: patch.Mutable},
	{Field: "password", Column: "password_hash", Kind: patch.String, Access: patch.Mutable},
	{Field: "is_admin", Column: "is_admin", Kind: patch.Bool, Access: patch.Privileged},
}

// errBadCredentials is the single answer to every failed login.
func errBadCredentials() error {
	return apperror.Unauthorized("invalid username/password")
}

// UserService owns every mutation of user rows.
//
// DEPENDENCIES (injected via NewUserService):
//   - users      repository.UserRepository  → read/write user records
//   - passwords  *auth.PasswordService      → bcrypt hashing
//   - metrics    *metrics.Metrics           → login outcome counter (nil ok)
//   - logger     *slog.Logger               → structured logging
type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewUserService creates a UserService with all required dependencies.
func NewUserService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	m *metrics.Metrics,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		passwords: passwords,
		metrics:   m,
		logger:    logger,
	}
}

// Authenticate checks a username/password pair and returns the user.
//
// USERNAME ENUMERATION:
// "No such user" and "wrong password" return the same error, and the unknown
// user path still spends one bcrypt comparison, so neither the response nor
// its timing tells an attacker which usernames exist.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	creds, err := s.users.GetCredentials(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.VerifyNothing(password)
			s.metrics.ObserveAuth(metrics.AuthRejected)
			return nil, errBadCredentials()
		}
		s.metrics.ObserveAuth(metrics.AuthError)
		return nil, fmt.Errorf("service/users: loading credentials: %w", err)
	}

	if err := s.passwords.Verify(creds.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.metrics.ObserveAuth(metrics.AuthRejected)
			return nil, errBadCredentials()
		}
		s.metrics.ObserveAuth(metrics.AuthError)
		return nil, fmt.Errorf("service/users: verifying password for %s: %w", username, err)
	}

	s.metrics.ObserveAuth(metrics.AuthSuccess)
	user := creds.User
	return &user, nil
}

// Register creates an account and returns it without the hash.
//
// The duplicate-username lookup is only a fast path for a friendly error.
// Two concurrent registrations can both pass it; the UNIQUE constraint then
// rejects one and that rejection is reported the same way.
//
// nu.IsAdmin is stored as given. Callers decide whether the requester may
// create administrators.
func (s *UserService) Register(ctx context.Context, nu model.NewUser) (*model.User, error) {
	if len(nu.Password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}

	_, err := s.users.GetUser(ctx, nu.Username)
	switch {
	case err == nil:
		return nil, duplicateUsername(nu.Username)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/users: checking username %s: %w", nu.Username, err)
	}

	hash, err := s.passwords.Hash(nu.Password)
	if err != nil {
		return nil, fmt.Errorf("service/users: %w", err)
	}

	user, err := s.users.CreateUser(ctx, &model.UserCredentials{
		User: model.User{
			Username:  nu.Username,
			FirstName: nu.FirstName,
			LastName:  nu.LastName,
			Email:     nu.Email,
			IsAdmin:   nu.IsAdmin,
		},
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, duplicateUsername(nu.Username)
		}
		return nil, fmt.Errorf("service/users: creating %s: %w", nu.Username, err)
	}

	s.logger.Info("user registered",
		slog.String("username", user.Username),
		slog.Int64("userID", user.ID),
		slog.Bool("isAdmin", user.IsAdmin),
	)
	return user, nil
}

func duplicateUsername(username string) error {
	return apperror.ValidationFailed("username", "duplicate username: "+username)
}

// Get returns one user. Unknown usernames yield apperror.ErrNotFound.
func (s *UserService) Get(ctx context.Context, username string) (*model.User, error) {
	return s.users.GetUser(ctx, username)
}

// GetAll returns every user ordered by username.
func (s *UserService) GetAll(ctx context.Context) ([]model.User, error) {
	return s.users.ListUsers(ctx)
}

// Update applies a partial update to username.
//
// A replacement password is hashed before the patch is mapped, so the
// plaintext never reaches the repository. Fields outside UserPatchTable are
// dropped. An empty patch is a validation error; a patch with only unknown
// fields is reported by the store the same way. An unknown username is
// apperror.ErrNotFound whatever the patch holds.
func (s *UserService) Update(ctx context.Context, username string, p patch.Patch) (*model.User, error) {
	if _, err := s.users.GetUser(ctx, username); err != nil {
		return nil, err
	}

	if raw, ok := p.Get("password"); ok {
		plaintext, isString := raw.(string)
		if !isString {
			return nil, apperror.ValidationFailed("password", "password must be a string")
		}
		if len(plaintext) > auth.MaxPasswordBytes {
			return nil, apperror.ValidationFailed("password",
				fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
		}
		hash, err := s.passwords.Hash(plaintext)
		if err != nil {
			return nil, fmt.Errorf("service/users: %w", err)
		}
		p = p.With("password", hash)
	}

	set, err := UserPatchTable.Map(p)
	if err != nil {
		return nil, err
	}

	user, err := s.users.UpdateUser(ctx, username, set)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user updated",
		slog.String("username", username),
		slog.Any("columns", set.Columns()),
	)
	return user, nil
}

// Remove deletes a user. Unknown usernames yield apperror.ErrNotFound.
func (s *UserService) Remove(ctx context.Context, username string) error {
	if err := s.users.DeleteUser(ctx, username); err != nil {
		return err
	}
	s.logger.Info("user removed", slog.String("username", username))
	return nil
}
