package model

import "time"

// Sender tags who produced a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one turn in a session's transcript. Append-only: never mutated
// after creation. Ordering within a session is by creation time ascending.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"-"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
