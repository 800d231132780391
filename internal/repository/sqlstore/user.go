package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xjohnsondev/primal-backend/internal/apperror"
	"github.com/xjohnsondev/primal-backend/internal/model"
	"github.com/xjohnsondev/primal-backend/internal/patch"
	"github.com/xjohnsondev/primal-backend/internal/repository"
)

// compile-time check that *Store implements repository.UserRepository
var _ repository.UserRepository = (*Store)(nil)

// userColumns is every column of model.User. password_hash is left out on
// purpose; only GetCredentials reads it.
const userColumns = `id, username, first_name, last_name, email, is_admin`

// CreateUser inserts a new account and returns it without the hash.
//
// The UNIQUE constraint on username is the real guard against duplicates. A
// violation comes back wrapped in repository.ErrDuplicate so the service can
// report it the same way as its own pre-check.
func (s *Store) CreateUser(ctx context.Context, u *model.UserCredentials) (*model.User, error) {
	query := s.rebind(`
		INSERT INTO users (username, password_hash, first_name, last_name, email, is_admin)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`)

	out := u.User
	err := s.db.QueryRowxContext(ctx, query,
		u.Username,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.Email,
		u.IsAdmin,
	).Scan(&out.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("sqlstore: inserting user %s: %w", u.Username, repository.ErrDuplicate)
		}
		return nil, fmt.Errorf("sqlstore: inserting user %s: %w", u.Username, err)
	}
	return &out, nil
}

// GetUser retrieves a user by username.
// Returns apperror.ErrNotFound if no user has that username.
func (s *Store) GetUser(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, s.rebind(`SELECT `+userColumns+` FROM users WHERE username = ?`), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlstore: getting user %s: %w", username, err)
	}
	return &u, nil
}

// GetUserByID retrieves a user by surrogate id.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, s.rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", fmt.Sprint(id))
		}
		return nil, fmt.Errorf("sqlstore: getting user %d: %w", id, err)
	}
	return &u, nil
}

// GetCredentials returns the user together with the stored bcrypt hash.
func (s *Store) GetCredentials(ctx context.Context, username string) (*model.UserCredentials, error) {
	var c model.UserCredentials
	err := s.db.GetContext(ctx, &c,
		s.rebind(`SELECT `+userColumns+`, password_hash FROM users WHERE username = ?`), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlstore: getting credentials for %s: %w", username, err)
	}
	return &c, nil
}

// ListUsers returns every user ordered by username. No users is an empty
// slice, not an error.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	if err := s.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY username`); err != nil {
		return nil, fmt.Errorf("sqlstore: listing users: %w", err)
	}
	return users, nil
}

// UpdateUser applies a mapped partial update and returns the updated user.
//
// The SET clause comes from patch.Assignments, whose column names are taken
// from a table declared in Go. Values are bind arguments only.
func (s *Store) UpdateUser(ctx context.Context, username string, set patch.Assignments) (*model.User, error) {
	if len(set) == 0 {
		return nil, apperror.ValidationFailed("", "no updatable fields")
	}

	query := s.rebind(`UPDATE users SET ` + set.SetClause() + ` WHERE username = ?`)
	args := append(set.Args(), username)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: updating user %s: %w", username, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: updating user %s: %w", username, err)
	}
	if n == 0 {
		return nil, apperror.NotFound("user", username)
	}

	return s.GetUser(ctx, username)
}

// DeleteUser removes a user. Their favorites go with them (ON DELETE CASCADE).
func (s *Store) DeleteUser(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM users WHERE username = ?`), username)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting user %s: %w", username, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: deleting user %s: %w", username, err)
	}
	if n == 0 {
		return apperror.NotFound("user", username)
	}
	return nil
}
