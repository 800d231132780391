package sqlstore

import (
	"context"
	"fmt"

	"github.com/xjohnsondev/primal-backend/internal/model"
	"github.com/xjohnsondev/primal-backend/internal/repository"
)

var _ repository.FavoriteRepository = (*Store)(nil)

// ToggleFavorite flips membership of (userID, exerciseID) in one transaction
// and reports whether the pair is a favorite afterwards.
//
// CHECK-THEN-ACT:
// Two identical requests can both see "absent" and both try to insert. The
// composite primary key rejects the second insert; that request reports
// "favorited", which is the state the table is in.
func (s *Store) ToggleFavorite(ctx context.Context, userID, exerciseID int64) (favorited bool, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("sqlstore: beginning toggle: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		s.rebind(`DELETE FROM user_favorites WHERE user_id = ? AND exercise_id = ?`),
		userID, exerciseID)
	if err != nil {
		return false, fmt.Errorf("sqlstore: removing favorite (%d, %d): %w", userID, exerciseID, err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlstore: removing favorite (%d, %d): %w", userID, exerciseID, err)
	}

	if removed == 0 {
		_, err = tx.ExecContext(ctx,
			s.rebind(`INSERT INTO user_favorites (user_id, exercise_id) VALUES (?, ?)`),
			userID, exerciseID)
		if err != nil {
			if isUniqueViolation(err) {
				// A concurrent toggle inserted the same pair first.
				_ = tx.Rollback()
				return true, nil
			}
			return false, fmt.Errorf("sqlstore: adding favorite (%d, %d): %w", userID, exerciseID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("sqlstore: committing toggle: %w", err)
	}
	return removed == 0, nil
}

// ListFavorites returns the user's favorite exercises ordered by id. A user
// with no favorites gets an empty slice.
func (s *Store) ListFavorites(ctx context.Context, userID int64) ([]model.Exercise, error) {
	exercises := []model.Exercise{}
	err := s.db.SelectContext(ctx, &exercises, s.rebind(`
		SELECT e.id, e.name, e.target, e.secondary, e.gif, e.instructions
		FROM exercises e
		JOIN user_favorites f ON f.exercise_id = e.id
		WHERE f.user_id = ?
		ORDER BY e.id`), userID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing favorites for user %d: %w", userID, err)
	}
	return exercises, nil
}
