package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xjohnsondev/primal-backend/internal/apperror"
	"github.com/xjohnsondev/primal-backend/internal/auth"
	"github.com/xjohnsondev/primal-backend/internal/service"
)

// ExerciseHandler serves the catalog and the favorites endpoints under
// /exercises.
type ExerciseHandler struct {
	exercises *service.ExerciseService
	favorites *service.FavoriteService
	users     *service.UserService
	logger    *slog.Logger
}

// NewExerciseHandler creates an ExerciseHandler.
func NewExerciseHandler(
	exercises *service.ExerciseService,
	favorites *service.FavoriteService,
	users *service.UserService,
	logger *slog.Logger,
) *ExerciseHandler {
	return &ExerciseHandler{
		exercises: exercises,
		favorites: favorites,
		users:     users,
		logger:    logger,
	}
}

// HandleTargets lists the distinct target muscles.
//
// HTTP: GET /exercises
func (h *ExerciseHandler) HandleTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := h.exercises.Targets(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"targets": targets})
}

// HandleList returns the whole catalog.
//
// HTTP: GET /exercises/all
func (h *ExerciseHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	exercises, err := h.exercises.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exercises": exercises})
}

// HandleGet returns one exercise.
//
// HTTP: GET /exercises/{id}
func (h *ExerciseHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, h.logger, apperror.ValidationFailed("id", "exercise id must be a positive integer"))
		return
	}

	exercise, err := h.exercises.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exercise": exercise})
}

// HandleByTarget lists the exercises for one target muscle. An unknown
// target yields an empty list.
//
// HTTP: GET /exercises/target/{target}
func (h *ExerciseHandler) HandleByTarget(w http.ResponseWriter, r *http.Request) {
	exercises, err := h.exercises.ByTarget(r.Context(), chi.URLParam(r, "target"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"target": exercises})
}

// HandleRefresh replaces the catalog with a fresh download.
//
// Every exercise row is deleted and reinserted with new ids, and favorites
// cascade with their exercises: a successful refresh clears every user's
// favorites. A failed refresh changes nothing.
//
// HTTP: POST /exercises/data/refresh (elevated)
// RESPONSE: 201 {"exercises": [...], "runId": "..."}
func (h *ExerciseHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.exercises.Refresh(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"exercises": res.Exercises, "runId": res.RunID})
}

type favoriteRequest struct {
	UserID     int64 `json:"userId"`
	ExerciseID int64 `json:"exerciseId"`
}

// HandleToggleFavorite flips one exercise in or out of a user's favorites.
//
// HTTP: POST /exercises/favorite
// REQUEST BODY: {"userId": 1, "exerciseId": 42}
// RESPONSE: {"message": "...", "favExercise": {...}, "favorited": true}
func (h *ExerciseHandler) HandleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var req favoriteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.UserID <= 0 {
		writeError(w, r, h.logger, apperror.ValidationFailed("userId", "userId is required"))
		return
	}
	if req.ExerciseID <= 0 {
		writeError(w, r, h.logger, apperror.ValidationFailed("exerciseId", "exerciseId is required"))
		return
	}
	if err := h.authorizeUserID(r, req.UserID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	exercise, favorited, err := h.favorites.Toggle(r.Context(), req.UserID, req.ExerciseID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Exercise favorites handled successfully",
		"favExercise": exercise,
		"favorited":   favorited,
	})
}

// HandleUserFavorites lists a user's favorite exercises.
//
// HTTP: POST /exercises/user-favorite
// REQUEST BODY: {"userId": 1}
// RESPONSE: {"userFavorites": [...]}, empty when nothing is favorited.
func (h *ExerciseHandler) HandleUserFavorites(w http.ResponseWriter, r *http.Request) {
	var req favoriteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.UserID <= 0 {
		writeError(w, r, h.logger, apperror.ValidationFailed("userId", "userId is required"))
		return
	}
	if err := h.authorizeUserID(r, req.UserID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	favorites, err := h.favorites.ListFavorites(r.Context(), req.UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"userFavorites": favorites})
}

// authorizeUserID passes administrators, and otherwise requires userID to
// be the caller's own id. The caller's id is looked up from the caller's
// username in the token, never from the request body.
func (h *ExerciseHandler) authorizeUserID(r *http.Request, userID int64) error {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return apperror.Unauthenticated("authentication required")
	}
	if claims.IsAdmin {
		return nil
	}

	self, err := h.users.Get(r.Context(), claims.Username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.Forbidden("account no longer exists")
		}
		return err
	}
	if self.ID != userID {
		return apperror.Forbidden("cannot act on another user's favorites")
	}
	return nil
}
