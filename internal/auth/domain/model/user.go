package model

import (
	"errors"
	"time"
)

// Typed errors surfaced by the auth domain. HTTP adapters map these to
// status codes; the usecase never leaks storage detail past them.
var (
	ErrUserExists      = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidPassword = errors.New("invalid password")
)

// User represents an account identity. Immutable after registration except
// for the password hash, which this service does not rotate.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
