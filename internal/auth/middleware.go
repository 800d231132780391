package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/xjohnsondev/primal-backend/internal/apperror"
)

// contextKey is an unexported type used for context keys in this package.
//
// Only this package can create a key of type contextKey, so no other package
// can read or shadow the claims stored under it.
type contextKey string

const claimsKey contextKey = "claims"

// CookieName is the cookie the session token may be sent in when the client
// cannot set an Authorization header.
const CookieName = "token"

// Authenticate is a middleware that enforces a verified session.
//
// It reads the token from "Authorization: Bearer <jwt>" or, failing that,
// from the "token" cookie, verifies it and stores the Claims in the request
// context. A missing or invalid token stops the chain with 401.
//
// MIDDLEWARE PATTERN IN GO:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... before ...
//	        next.ServeHTTP(w, r)
//	        // ... after ...
//	    })
//	}
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func Authenticate(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := tokens.Verify(extractToken(r))
			if err != nil {
				deny(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// Elevated lets the request through only for administrators. It must run
// after Authenticate.
func Elevated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := ClaimsFromContext(r.Context())
			if err := RequireElevated(claims); err != nil {
				deny(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SelfOrElevated lets the request through when the chi URL parameter named
// param equals the caller's username, or the caller is an administrator.
func SelfOrElevated(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := ClaimsFromContext(r.Context())
			if err := RequireSelfOrElevated(claims, chi.URLParam(r, param)); err != nil {
				deny(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithClaims returns a copy of ctx carrying c.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// ClaimsFromContext retrieves the verified caller. It returns (nil, false)
// when the request did not pass through Authenticate.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}

// extractToken prefers the Authorization header over the cookie.
func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// deny writes the same {error, message} body the handler package uses.
func deny(w http.ResponseWriter, err error) {
	status, code := http.StatusUnauthorized, "unauthenticated"
	if errors.Is(err, apperror.ErrForbidden) {
		status, code = http.StatusForbidden, "forbidden"
	}

	msg := "authentication required"
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": msg})
}
