// Package model defines the data structures used throughout the application.
package model

// User is the outward-facing view of an account.
//
// There is no password field here; the bcrypt hash lives only on
// UserCredentials, so no handler can serialise it by accident.
type User struct {
	ID        int64  `json:"id"        db:"id"`
	Username  string `json:"username"  db:"username"`
	FirstName string `json:"firstName" db:"first_name"`
	LastName  string `json:"lastName"  db:"last_name"`
	Email     string `json:"email"     db:"email"`
	IsAdmin   bool   `json:"isAdmin"   db:"is_admin"`
}

// UserCredentials pairs a user with the stored bcrypt hash. It is read by the
// login path only and never leaves the service layer.
type UserCredentials struct {
	User
	PasswordHash string `db:"password_hash"`
}

// NewUser is the registration payload. Password is plaintext and is hashed
// before anything reaches storage.
type NewUser struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	IsAdmin   bool   `json:"is_admin"`
}
