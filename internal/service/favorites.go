package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xjohnsondev/primal-backend/internal/metrics"
	"github.com/xjohnsondev/primal-backend/internal/model"
	"github.com/xjohnsondev/primal-backend/internal/repository"
)

// FavoriteService owns every mutation of the user_favorites relation.
type FavoriteService struct {
	users     repository.UserRepository
	exercises repository.ExerciseRepository
	favorites repository.FavoriteRepository
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewFavoriteService creates a FavoriteService.
func NewFavoriteService(
	users repository.UserRepository,
	exercises repository.ExerciseRepository,
	favorites repository.FavoriteRepository,
	m *metrics.Metrics,
	logger *slog.Logger,
) *FavoriteService {
	return &FavoriteService{
		users:     users,
		exercises: exercises,
		favorites: favorites,
		metrics:   m,
		logger:    logger,
	}
}

// Toggle flips whether exerciseID is one of userID's favorites.
//
// Both ids are checked before anything is written, so an unknown id fails
// with apperror.ErrNotFound and leaves the relation untouched. The caller
// cannot ask for a particular end state: calling Toggle twice restores the
// original membership.
//
// Returns the exercise (unchanged, as confirmation) and whether the pair is a
// favorite afterwards.
func (s *FavoriteService) Toggle(ctx context.Context, userID, exerciseID int64) (*model.Exercise, bool, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, false, err
	}
	exercise, err := s.exercises.GetExercise(ctx, exerciseID)
	if err != nil {
		return nil, false, err
	}

	favorited, err := s.favorites.ToggleFavorite(ctx, userID, exerciseID)
	if err != nil {
		return nil, false, fmt.Errorf("service/favorites: toggling (%d, %d): %w", userID, exerciseID, err)
	}

	s.metrics.ObserveToggle(favorited)
	s.logger.Debug("favorite toggled",
		slog.Int64("userID", userID),
		slog.Int64("exerciseID", exerciseID),
		slog.Bool("favorited", favorited),
	)
	return exercise, favorited, nil
}

// ListFavorites returns the user's favorite exercises sorted by exercise id.
// A user with no favorites gets an empty slice; an unknown user gets
// apperror.ErrNotFound.
func (s *FavoriteService) ListFavorites(ctx context.Context, userID int64) ([]model.Exercise, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	favs, err := s.favorites.ListFavorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/favorites: listing for %d: %w", userID, err)
	}
	if favs == nil {
		favs = []model.Exercise{}
	}
	return favs, nil
}
