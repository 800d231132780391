package handler

import (
	"log/slog"
	"net/http"

	"github.com/xjohnsondev/primal-backend/internal/auth"
	"github.com/xjohnsondev/primal-backend/internal/model"
	"github.com/xjohnsondev/primal-backend/internal/service"
)

// AuthHandler exchanges credentials for session tokens.
//
// HANDLER RESPONSIBILITIES:
//   - HandleToken    → verify username/password, issue a token
//   - HandleRegister → create a non-admin account, issue a token
//
// DEPENDENCY CHAIN:
//   - users  *service.UserService → credential checks and account creation
//   - tokens *auth.TokenService   → signs session tokens
type AuthHandler struct {
	users  *service.UserService
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(users *service.UserService, tokens *auth.TokenService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is the body of every successful login or registration.
type TokenResponse struct {
	Token string `json:"token"`
}

// HandleToken logs a user in.
//
// HTTP: POST /auth/token
// REQUEST BODY: {"username": "alice", "password": "secret123"}
// RESPONSE: 200 {"token": "..."}; 401 for any bad username/password pair.
func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := validateLogin(req.Username, req.Password); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.respondWithToken(w, r, http.StatusOK, user)
}

// HandleRegister creates an account for the caller.
//
// HTTP: POST /auth/register
// REQUEST BODY: {"username", "password", "first_name", "last_name", "email"}
// RESPONSE: 201 {"token": "..."}
//
// Self-registration can never create an administrator: is_admin in the body
// is ignored. Admins are created through POST /users.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var nu model.NewUser
	if err := decodeJSON(w, r, &nu); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := validateNewUser(nu); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	nu.IsAdmin = false

	user, err := h.users.Register(r.Context(), nu)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, user)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user *model.User) {
	token, err := h.tokens.Issue(user)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, status, TokenResponse{Token: token})
}
