// Package repository declares the storage contracts the services depend on.
// The sqlstore package implements all of them over one *sqlx.DB.
package repository

import (
	"context"
	"errors"

	"github.com/xjohnsondev/primal-backend/internal/model"
	"github.com/xjohnsondev/primal-backend/internal/patch"
)

// ErrDuplicate is wrapped by writes that hit a uniqueness constraint.
var ErrDuplicate = errors.New("repository: duplicate key")

// UserRepository stores accounts. Lookups of a missing user return an error
// matching apperror.ErrNotFound.
type UserRepository interface {
	CreateUser(ctx context.Context, u *model.UserCredentials) (*model.User, error)
	GetUser(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetCredentials(ctx context.Context, username string) (*model.UserCredentials, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, username string, set patch.Assignments) (*model.User, error)
	DeleteUser(ctx context.Context, username string) error
}

// ExerciseRepository reads the catalog and replaces it wholesale.
type ExerciseRepository interface {
	ListExercises(ctx context.Context) ([]model.Exercise, error)
	GetExercise(ctx context.Context, id int64) (*model.Exercise, error)
	ListTargets(ctx context.Context) ([]string, error)
	ListByTarget(ctx context.Context, target string) ([]model.Exercise, error)
	ReplaceExercises(ctx context.Context, exercises []model.Exercise) ([]model.Exercise, error)
}

// FavoriteRepository owns the user_favorites join table.
type FavoriteRepository interface {
	// ToggleFavorite flips membership of the pair and reports whether the
	// pair is a favorite afterwards.
	ToggleFavorite(ctx context.Context, userID, exerciseID int64) (bool, error)
	ListFavorites(ctx context.Context, userID int64) ([]model.Exercise, error)
}
