package models

import "errors"

// Errors returned by the server-side repositories.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Account is a user as persisted by the server.
type Account struct {
	User
	// PasswordHash is the bcrypt hash of the password.
	PasswordHash string `json:"-"`
}
