package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xjohnsondev/primal-backend/internal/apperror"
	"github.com/xjohnsondev/primal-backend/internal/model"
	"github.com/xjohnsondev/primal-backend/internal/repository"
)

var _ repository.ExerciseRepository = (*Store)(nil)

const exerciseColumns = `id, name, target, secondary, gif, instructions`

// ListExercises returns the whole catalog ordered by id.
func (s *Store) ListExercises(ctx context.Context) ([]model.Exercise, error) {
	exercises := []model.Exercise{}
	if err := s.db.SelectContext(ctx, &exercises, `SELECT `+exerciseColumns+` FROM exercises ORDER BY id`); err != nil {
		return nil, fmt.Errorf("sqlstore: listing exercises: %w", err)
	}
	return exercises, nil
}

// GetExercise retrieves one exercise.
// Returns apperror.ErrNotFound if the id is unknown.
func (s *Store) GetExercise(ctx context.Context, id int64) (*model.Exercise, error) {
	var e model.Exercise
	err := s.db.GetContext(ctx, &e, s.rebind(`SELECT `+exerciseColumns+` FROM exercises WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("exercise", fmt.Sprint(id))
		}
		return nil, fmt.Errorf("sqlstore: getting exercise %d: %w", id, err)
	}
	return &e, nil
}

// ListTargets returns the distinct primary targets in alphabetical order.
func (s *Store) ListTargets(ctx context.Context) ([]string, error) {
	targets := []string{}
	if err := s.db.SelectContext(ctx, &targets, `SELECT DISTINCT target FROM exercises ORDER BY target`); err != nil {
		return nil, fmt.Errorf("sqlstore: listing targets: %w", err)
	}
	return targets, nil
}

// ListByTarget returns the exercises whose primary target is target.
func (s *Store) ListByTarget(ctx context.Context, target string) ([]model.Exercise, error) {
	exercises := []model.Exercise{}
	err := s.db.SelectContext(ctx, &exercises,
		s.rebind(`SELECT `+exerciseColumns+` FROM exercises WHERE target = ? ORDER BY id`), target)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing exercises for %s: %w", target, err)
	}
	return exercises, nil
}

// ReplaceExercises deletes the whole catalog and inserts exercises in its
// place, inside one transaction. Favorites pointing at the old rows are
// removed by ON DELETE CASCADE. Any failure rolls everything back.
//
// The returned slice carries the ids assigned by the database.
func (s *Store) ReplaceExercises(ctx context.Context, exercises []model.Exercise) (out []model.Exercise, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: beginning refresh: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM exercises`); err != nil {
		return nil, fmt.Errorf("sqlstore: clearing exercises: %w", err)
	}

	insert := s.rebind(`
		INSERT INTO exercises (name, target, secondary, gif, instructions)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`)

	out = make([]model.Exercise, 0, len(exercises))
	for i, e := range exercises {
		if err = tx.QueryRowxContext(ctx, insert, e.Name, e.Target, e.Secondary, e.GIF, e.Instructions).Scan(&e.ID); err != nil {
			return nil, fmt.Errorf("sqlstore: inserting exercise #%d (%s): %w", i, e.Name, err)
		}
		out = append(out, e)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlstore: committing refresh: %w", err)
	}
	return out, nil
}
