package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xjohnsondev/primal-backend/internal/apperror"
	"github.com/xjohnsondev/primal-backend/internal/auth"
	"github.com/xjohnsondev/primal-backend/internal/model"
	"github.com/xjohnsondev/primal-backend/internal/patch"
	"github.com/xjohnsondev/primal-backend/internal/service"
)

// UserHandler serves the /users resource. Route-level guards (auth.Elevated,
// auth.SelfOrElevated) run before these methods; checks that depend on the
// body, such as who may set is_admin, happen here.
type UserHandler struct {
	users  *service.UserService
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, tokens *auth.TokenService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, tokens: tokens, logger: logger}
}

// HandleCreate lets an administrator add a user, who may be an admin.
//
// HTTP: POST /users (elevated)
// RESPONSE: 201 {"user": {...}, "token": "..."}
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var nu model.NewUser
	if err := decodeJSON(w, r, &nu); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := validateNewUser(nu); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.users.Register(r.Context(), nu)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	token, err := h.tokens.Issue(user)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"user": user, "token": token})
}

// HandleList returns every user, ordered by username.
//
// HTTP: GET /users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.GetAll(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// HandleGet returns one user.
//
// HTTP: GET /users/{username}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// HandleUpdateSelf patches the caller's own account.
//
// HTTP: PATCH /users
func (h *UserHandler) HandleUpdateSelf(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperror.Unauthenticated("authentication required"))
		return
	}
	h.update(w, r, claims, claims.Username)
}

// HandleUpdate patches the named account.
//
// HTTP: PATCH /users/{username}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	h.update(w, r, claims, chi.URLParam(r, "username"))
}

// update applies a partial update to target.
//
// REQUEST BODY: any subset of
//
//	{"first_name", "last_name", "email", "password", "is_admin"}
//
// Unknown keys are ignored. Changing is_admin needs an elevated caller even
// when the caller is editing their own account.
func (h *UserHandler) update(w http.ResponseWriter, r *http.Request, claims *auth.Claims, target string) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	p, err := patch.FromJSON(body)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := service.UserPatchTable.Validate(p); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if service.UserPatchTable.Privileged(p) {
		if err := auth.RequireElevated(claims); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
	}
	if v, ok := p.Get("password"); ok {
		if err := validatePassword(v.(string)); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
	}
	if v, ok := p.Get("email"); ok {
		if err := validateEmail(v.(string)); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
	}

	user, err := h.users.Update(r.Context(), target, p)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// HandleDelete removes the named account and its favorites.
//
// HTTP: DELETE /users/{username}
// RESPONSE: {"deleted": "alice"}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := h.users.Remove(r.Context(), username); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": username})
}
