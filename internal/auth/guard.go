package auth

import "github.com/xjohnsondev/primal-backend/internal/apperror"

// RequireElevated passes only for an administrator.
//
// nil claims mean the request was never authenticated and yield
// ErrUnauthenticated; a verified non-admin yields ErrForbidden.
func RequireElevated(c *Claims) error {
	if c == nil {
		return apperror.Unauthenticated("authentication required")
	}
	if !c.IsAdmin {
		return apperror.Forbidden("admin privileges required")
	}
	return nil
}

// RequireSelfOrElevated passes when the caller is the target account or an
// administrator.
//
// The decision uses the claims alone. It never looks the target up, so a 403
// says nothing about whether target exists.
func RequireSelfOrElevated(c *Claims, target string) error {
	if c == nil {
		return apperror.Unauthenticated("authentication required")
	}
	if c.IsAdmin || c.Username == target {
		return nil
	}
	return apperror.Forbidden("not permitted to act on another user")
}
