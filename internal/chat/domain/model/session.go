package model

import (
	"errors"
	"time"
)

// ErrSessionNotFound covers both a session that does not exist and a session
// owned by another user. The two cases are indistinguishable to callers so
// session ids cannot be probed for existence.
var ErrSessionNotFound = errors.New("session not found or unauthorized")

// Session is a conversation owned by exactly one user.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}
