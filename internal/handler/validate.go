package handler

import (
	"strings"
	"unicode/utf8"

	"github.com/xjohnsondev/primal-backend/internal/apperror"
	"github.com/xjohnsondev/primal-backend/internal/auth"
	"github.com/xjohnsondev/primal-backend/internal/model"
)

// minPasswordChars is the shortest password accepted on registration.
const minPasswordChars = 5

// validateNewUser checks the shape of a registration body. The first
// problem found is reported, naming the field.
func validateNewUser(nu model.NewUser) error {
	required := []struct{ field, value string }{
		{"username", nu.Username},
		{"password", nu.Password},
		{"first_name", nu.FirstName},
		{"last_name", nu.LastName},
		{"email", nu.Email},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return apperror.ValidationFailed(r.field, r.field+" is required")
		}
	}

	if err := validatePassword(nu.Password); err != nil {
		return err
	}
	return validateEmail(nu.Email)
}

func validatePassword(pw string) error {
	if utf8.RuneCountInString(pw) < minPasswordChars {
		return apperror.ValidationFailed("password", "password must be at least 5 characters")
	}
	if len(pw) > auth.MaxPasswordBytes {
		return apperror.ValidationFailed("password", "password must be 72 bytes or fewer")
	}
	return nil
}

func validateEmail(email string) error {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return apperror.ValidationFailed("email", "email must look like name@host")
	}
	return nil
}

// validateLogin only checks presence; wrong values are the service's call.
func validateLogin(username, password string) error {
	if username == "" {
		return apperror.ValidationFailed("username", "username is required")
	}
	if password == "" {
		return apperror.ValidationFailed("password", "password is required")
	}
	return nil
}
